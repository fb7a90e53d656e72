package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/internal/repository/unitofwork"
	"bank-chatbot-be/pkg/contextcache"
	"bank-chatbot-be/pkg/genai"
	"bank-chatbot-be/pkg/session"
	"bank-chatbot-be/pkg/store"
)

// ErrCustomerBlocked is returned when a blocked customer tries to converse.
var ErrCustomerBlocked = errors.New("customer is not permitted to use the assistant")

// IChatService is the orchestrator behind the converse endpoint.
type IChatService interface {
	Converse(ctx context.Context, request *dto.ConverseRequest) (*dto.ConverseResponse, error)
	ActiveSessions() []*dto.SessionInfoResponse
	EndSession(userId string)
}

type chatService struct {
	registry         *session.Registry
	holder           *contextcache.Holder
	generator        genai.Generator
	publisherService IPublisherService
	uowFactory       unitofwork.RepositoryFactory
	requestLimit     int
	sessionDuration  time.Duration
	logger           logger.ILogger
}

func NewChatService(
	registry *session.Registry,
	holder *contextcache.Holder,
	generator genai.Generator,
	publisherService IPublisherService,
	uowFactory unitofwork.RepositoryFactory,
	requestLimit int,
	sessionDuration time.Duration,
	log logger.ILogger,
) IChatService {
	return &chatService{
		registry:         registry,
		holder:           holder,
		generator:        generator,
		publisherService: publisherService,
		uowFactory:       uowFactory,
		requestLimit:     requestLimit,
		sessionDuration:  sessionDuration,
		logger:           log,
	}
}

// Converse runs one turn: resolve the cached context, call the model with the
// session history, and record the exchange. On any upstream failure the
// session is left exactly as it was, so the failed call costs the customer
// nothing.
func (s *chatService) Converse(ctx context.Context, request *dto.ConverseRequest) (*dto.ConverseResponse, error) {
	text := strings.TrimSpace(request.Message)
	if text == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	if err := s.checkCustomerPolicy(ctx, request.UserID); err != nil {
		return nil, err
	}

	var response *dto.ConverseResponse
	err := s.registry.WithSession(request.UserID, s.requestLimit, s.sessionDuration, func(sess *store.Session) error {
		handle, err := s.holder.Get()
		if err != nil {
			return err
		}

		history := make([]*genai.ChatHistory, 0, len(sess.History))
		for _, turn := range sess.History {
			history = append(history, &genai.ChatHistory{
				Chat: turn.Text,
				Role: turn.Role,
			})
		}

		result, err := s.generator.GenerateContent(ctx, handle.Name, history, text)
		if err != nil {
			return err
		}

		if err := sess.AppendExchange(text, result.Text, result.InputTokens, result.OutputTokens); err != nil {
			return err
		}

		response = &dto.ConverseResponse{
			ConversationId: sess.ConversationID,
			Reply:          result.Text,
			Usage: dto.ConverseUsage{
				InputTokens:  result.InputTokens,
				OutputTokens: result.OutputTokens,
				TotalTokens:  result.TotalTokens,
			},
			RemainingRequests: sess.RemainingRequests(),
			SessionExpiresAt:  sess.ExpiresAt,
		}

		s.publishTurn(ctx, sess, text, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// checkCustomerPolicy refuses blocked customers. An unreachable directory is
// logged and treated as active: policy enforcement must not take the
// assistant down with it.
func (s *chatService) checkCustomerPolicy(ctx context.Context, userId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	customer, err := uow.CustomerRepository().FindByRef(ctx, userId)
	if err != nil {
		s.logger.Warn("CHAT", "Customer policy lookup failed", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil
	}
	if customer != nil && customer.Status == entity.CustomerStatusBlocked {
		return ErrCustomerBlocked
	}
	return nil
}

// publishTurn hands the completed turn to the audit pipeline. Fire and
// forget: the customer already has their reply.
func (s *chatService) publishTurn(ctx context.Context, sess *store.Session, userMessage string, result *genai.GenerateResult) {
	payload := dto.ChatTurnAuditMessage{
		UserID:         sess.UserID,
		ConversationId: sess.ConversationID,
		UserMessage:    userMessage,
		ModelReply:     result.Text,
		InputTokens:    result.InputTokens,
		OutputTokens:   result.OutputTokens,
		CreatedAt:      time.Now(),
	}

	msgJson, err := json.Marshal(payload)
	if err == nil {
		err = s.publisherService.Publish(ctx, msgJson)
	}
	if err != nil {
		s.logger.Warn("CHAT", "Failed to publish audit message", map[string]interface{}{
			"user_id":         sess.UserID,
			"conversation_id": sess.ConversationID,
			"error":           err.Error(),
		})
	}
}

func (s *chatService) ActiveSessions() []*dto.SessionInfoResponse {
	snapshots := s.registry.Active()
	responses := make([]*dto.SessionInfoResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		responses = append(responses, &dto.SessionInfoResponse{
			UserID:            snap.UserID,
			ConversationId:    snap.ConversationID,
			CreatedAt:         snap.CreatedAt,
			ExpiresAt:         snap.ExpiresAt,
			ConsumedRequests:  snap.RequestCount,
			RemainingRequests: snap.RemainingRequests,
			InputTokens:       snap.Usage.InputTokens,
			OutputTokens:      snap.Usage.OutputTokens,
		})
	}
	return responses
}

func (s *chatService) EndSession(userId string) {
	s.registry.End(userId)
}
