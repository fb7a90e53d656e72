package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bank-chatbot-be/internal/constant"
	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/repository/specification"
	"bank-chatbot-be/internal/repository/unitofwork"
	"bank-chatbot-be/pkg/events"
	pktNats "bank-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type IAuditService interface {
	Consume(ctx context.Context) error
}

// auditService drains the turn topic and writes the durable conversation
// record. It runs behind the response path: a slow database only delays the
// audit trail, never the customer.
type auditService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	rdb            *redis.Client
	eventPublisher *pktNats.Publisher
}

func NewAuditService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	rdb *redis.Client,
	eventPublisher *pktNats.Publisher,
) IAuditService {
	return &auditService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		rdb:            rdb,
		eventPublisher: eventPublisher,
	}
}

func (cs *auditService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *auditService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatTurnAuditMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal audit message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.recordTurn(ctx, &payload); err != nil {
		log.Printf("[ERROR] Failed to record turn for conversation %s: %v", payload.ConversationId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()

	// The persisted transcript changed; drop the cached copy.
	if err := cs.rdb.Del(ctx, historyCacheKey(payload.ConversationId)).Err(); err != nil {
		log.Printf("[WARN] Failed to invalidate history cache for %s: %v", payload.ConversationId, err)
	}

	if cs.eventPublisher != nil {
		evt := events.NewChatTurnRecorded(payload.UserID, payload.ConversationId, payload.InputTokens, payload.OutputTokens)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish CHAT_TURN_RECORDED event: %v", err)
		}
	}
}

func (cs *auditService) recordTurn(ctx context.Context, payload *dto.ChatTurnAuditMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: payload.ConversationId})
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	if conversation == nil {
		conversation = &entity.Conversation{
			Id:           payload.ConversationId,
			UserId:       payload.UserID,
			InputTokens:  payload.InputTokens,
			OutputTokens: payload.OutputTokens,
			MessageCount: 2,
			CreatedAt:    payload.CreatedAt,
		}
		err = uow.ConversationRepository().Create(ctx, conversation)
	} else {
		conversation.InputTokens += payload.InputTokens
		conversation.OutputTokens += payload.OutputTokens
		conversation.MessageCount += 2
		err = uow.ConversationRepository().Update(ctx, conversation)
	}
	if err != nil {
		_ = uow.Rollback()
		return err
	}

	now := payload.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	messages := []*entity.ChatMessage{
		{
			Id:             uuid.New(),
			ConversationId: payload.ConversationId,
			Role:           constant.ChatMessageRoleUser,
			Content:        payload.UserMessage,
			InputTokens:    payload.InputTokens,
			CreatedAt:      now,
		},
		{
			Id:             uuid.New(),
			ConversationId: payload.ConversationId,
			Role:           constant.ChatMessageRoleModel,
			Content:        payload.ModelReply,
			OutputTokens:   payload.OutputTokens,
			CreatedAt:      now,
		},
	}
	if err := uow.ChatMessageRepository().CreateBatch(ctx, messages); err != nil {
		_ = uow.Rollback()
		return err
	}

	return uow.Commit()
}
