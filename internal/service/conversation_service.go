package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/internal/repository/specification"
	"bank-chatbot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const historyCacheTTL = 5 * time.Minute

func historyCacheKey(conversationId uuid.UUID) string {
	return fmt.Sprintf("chat:history:%s", conversationId)
}

type IConversationService interface {
	GetUserConversations(ctx context.Context, userId string) ([]*dto.ConversationSummaryResponse, error)
	GetChatHistory(ctx context.Context, conversationId uuid.UUID, userId string) ([]*dto.GetChatHistoryResponse, error)
	GetTokenStats(ctx context.Context, conversationId uuid.UUID) (*dto.TokenStatsResponse, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
	rdb        *redis.Client
	logger     logger.ILogger
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory, rdb *redis.Client, log logger.ILogger) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
		rdb:        rdb,
		logger:     log,
	}
}

func (s *conversationService) GetUserConversations(ctx context.Context, userId string) ([]*dto.ConversationSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ConversationSummaryResponse, 0, len(conversations))
	for _, c := range conversations {
		responses = append(responses, &dto.ConversationSummaryResponse{
			Id:           c.Id,
			UserID:       c.UserId,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: c.MessageCount,
			InputTokens:  c.InputTokens,
			OutputTokens: c.OutputTokens,
		})
	}
	return responses, nil
}

// GetChatHistory returns the persisted transcript of one conversation. The
// result is cached in Redis; the audit consumer invalidates the key whenever
// a new turn lands. Returns nil when the conversation does not exist or
// belongs to another customer.
func (s *conversationService) GetChatHistory(ctx context.Context, conversationId uuid.UUID, userId string) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.UserId != userId {
		return nil, nil
	}

	cacheKey := historyCacheKey(conversationId)
	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var responses []*dto.GetChatHistoryResponse
		if err := json.Unmarshal(cached, &responses); err == nil {
			return responses, nil
		}
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, &dto.GetChatHistoryResponse{
			Id:           m.Id,
			Role:         m.Role,
			Content:      m.Content,
			InputTokens:  m.InputTokens,
			OutputTokens: m.OutputTokens,
			CreatedAt:    m.CreatedAt,
		})
	}

	if encoded, err := json.Marshal(responses); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, encoded, historyCacheTTL).Err(); err != nil {
			s.logger.Warn("CONVERSATION", "Failed to cache chat history", map[string]interface{}{
				"conversation_id": conversationId,
				"error":           err.Error(),
			})
		}
	}

	return responses, nil
}

func (s *conversationService) GetTokenStats(ctx context.Context, conversationId uuid.UUID) (*dto.TokenStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	return &dto.TokenStatsResponse{
		ConversationId: conversation.Id,
		InputTokens:    conversation.InputTokens,
		OutputTokens:   conversation.OutputTokens,
		TotalTokens:    conversation.InputTokens + conversation.OutputTokens,
		MessageCount:   conversation.MessageCount,
	}, nil
}
