package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/repository/specification"
	"bank-chatbot-be/internal/repository/unitofwork"
	"bank-chatbot-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ConversationRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.CustomerRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Conversation Repository", func(t *testing.T) {
		count, err := uow.ConversationRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Conversation count: %d", count)
	})

	t.Run("Transactional Turn Write", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, txUow.Begin(ctx))

		conversationId := uuid.New()
		userId := "itest-" + uuid.New().String()

		conversation := &entity.Conversation{
			Id:           conversationId,
			UserId:       userId,
			InputTokens:  12,
			OutputTokens: 34,
			MessageCount: 2,
			CreatedAt:    time.Now(),
		}
		assert.NoError(t, txUow.ConversationRepository().Create(ctx, conversation))

		messages := []*entity.ChatMessage{
			{Id: uuid.New(), ConversationId: conversationId, Role: "user", Content: "What is the card annual fee?", InputTokens: 12, CreatedAt: time.Now()},
			{Id: uuid.New(), ConversationId: conversationId, Role: "model", Content: "The annual fee is listed in the fee schedule.", OutputTokens: 34, CreatedAt: time.Now()},
		}
		assert.NoError(t, txUow.ChatMessageRepository().CreateBatch(ctx, messages))

		// Roll back so the test leaves no rows behind.
		assert.NoError(t, txUow.Rollback())

		found, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}
