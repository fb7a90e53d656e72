package service

import (
	"context"

	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/pkg/contextcache"
	"bank-chatbot-be/pkg/events"
	"bank-chatbot-be/pkg/genai"
	pktNats "bank-chatbot-be/pkg/nats"
)

// ICacheService exposes the cached inference context to back-office tooling.
type ICacheService interface {
	Info() (*dto.ContextCacheInfoResponse, error)
	List(ctx context.Context) ([]*dto.ContextCacheInfoResponse, error)
	Refresh(ctx context.Context) (*dto.ContextCacheInfoResponse, error)
	Delete(ctx context.Context, name string) error
}

type cacheService struct {
	holder         *contextcache.Holder
	provisioner    *contextcache.Provisioner
	api            genai.CacheAPI
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewCacheService(
	holder *contextcache.Holder,
	provisioner *contextcache.Provisioner,
	api genai.CacheAPI,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ICacheService {
	return &cacheService{
		holder:         holder,
		provisioner:    provisioner,
		api:            api,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *cacheService) Info() (*dto.ContextCacheInfoResponse, error) {
	handle, err := s.holder.Get()
	if err != nil {
		return nil, err
	}
	return &dto.ContextCacheInfoResponse{
		Name:           handle.Name,
		Model:          handle.Model,
		DisplayName:    handle.DisplayName,
		CreateTime:     handle.CreatedAt,
		UpdateTime:     handle.UpdatedAt,
		ExpireTime:     handle.ExpiresAt,
		SourceDocument: handle.SourceDocument,
	}, nil
}

func (s *cacheService) List(ctx context.Context) ([]*dto.ContextCacheInfoResponse, error) {
	cached, err := s.api.ListCachedContents(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ContextCacheInfoResponse, 0, len(cached))
	for _, c := range cached {
		responses = append(responses, &dto.ContextCacheInfoResponse{
			Name:        c.Name,
			Model:       c.Model,
			DisplayName: c.DisplayName,
			CreateTime:  c.CreateTime,
			UpdateTime:  c.UpdateTime,
			ExpireTime:  c.ExpireTime,
		})
	}
	return responses, nil
}

// Refresh re-reads the reference document and swaps in a fresh upstream
// cache. In-flight turns finish on the handle they already hold.
func (s *cacheService) Refresh(ctx context.Context) (*dto.ContextCacheInfoResponse, error) {
	handle, err := s.provisioner.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.NewContextCacheRefreshed(handle.Name, handle.ExpiresAt)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("CONTEXT_CACHE", "Failed to publish refresh event", map[string]interface{}{
				"name":  handle.Name,
				"error": err.Error(),
			})
		}
	}

	return &dto.ContextCacheInfoResponse{
		Name:           handle.Name,
		Model:          handle.Model,
		DisplayName:    handle.DisplayName,
		CreateTime:     handle.CreatedAt,
		UpdateTime:     handle.UpdatedAt,
		ExpireTime:     handle.ExpiresAt,
		SourceDocument: handle.SourceDocument,
	}, nil
}

func (s *cacheService) Delete(ctx context.Context, name string) error {
	return s.api.DeleteCachedContent(ctx, name)
}
