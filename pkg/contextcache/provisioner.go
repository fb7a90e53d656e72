package contextcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/pkg/genai"
)

// DocumentSource supplies the raw text of the reference document.
type DocumentSource interface {
	ExtractText(path string) (string, error)
}

// Config drives how the reference document is turned into an upstream
// cached content.
type Config struct {
	DocumentPath      string
	DisplayName       string
	SystemInstruction string
	TTL               time.Duration
	MetadataPath      string
}

// Provisioner performs the one-time, I/O-bound preparation of the reference
// document into a reusable cached context. Metadata of the last provisioned
// cache is persisted locally so a restart can reuse a still-valid upstream
// cache instead of re-uploading the document.
type Provisioner struct {
	api    genai.CacheAPI
	docs   DocumentSource
	holder *Holder
	cfg    Config
	logger logger.ILogger
	now    func() time.Time
}

func NewProvisioner(api genai.CacheAPI, docs DocumentSource, holder *Holder, cfg Config, log logger.ILogger) *Provisioner {
	return &Provisioner{
		api:    api,
		docs:   docs,
		holder: holder,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Provision installs a handle into the holder: a still-valid cache recorded
// in the metadata file is reused, otherwise a fresh cache is created from the
// document text. Failure here is fatal to startup; the caller decides.
func (p *Provisioner) Provision(ctx context.Context) (*Handle, error) {
	if handle := p.reuseExisting(ctx); handle != nil {
		p.holder.Replace(handle)
		return handle, nil
	}
	return p.Refresh(ctx)
}

// Refresh always creates a fresh upstream cache and atomically replaces the
// current handle. In-flight requests keep the handle they already resolved;
// the old upstream cache stays valid until its own TTL runs out.
func (p *Provisioner) Refresh(ctx context.Context) (*Handle, error) {
	text, err := p.docs.ExtractText(p.cfg.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference document: %w", err)
	}

	cached, err := p.api.CreateCachedContent(ctx, genai.CreateCachedContentConfig{
		DisplayName:       p.cfg.DisplayName,
		SystemInstruction: p.cfg.SystemInstruction,
		Content:           text,
		TTL:               p.cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cached content: %w", err)
	}

	handle := handleFromCachedContent(cached, p.cfg.DocumentPath)
	p.writeMetadata(handle)
	p.holder.Replace(handle)

	p.logger.Info("CONTEXT_CACHE", "Created new cached content", map[string]interface{}{
		"name":        handle.Name,
		"expire_time": handle.ExpiresAt,
	})
	return handle, nil
}

// reuseExisting returns a handle for the cache recorded in the metadata file
// when that cache is still alive upstream; nil otherwise.
func (p *Provisioner) reuseExisting(ctx context.Context) *Handle {
	raw, err := os.ReadFile(p.cfg.MetadataPath)
	if err != nil {
		return nil
	}

	var stored Handle
	if err := json.Unmarshal(raw, &stored); err != nil {
		p.logger.Warn("CONTEXT_CACHE", "Ignoring unreadable cache metadata file", map[string]interface{}{
			"path":  p.cfg.MetadataPath,
			"error": err.Error(),
		})
		return nil
	}

	if !stored.ExpiresAt.After(p.now()) {
		p.logger.Info("CONTEXT_CACHE", "Recorded cached content expired", map[string]interface{}{
			"name": stored.Name,
		})
		return nil
	}

	cached, err := p.api.GetCachedContent(ctx, stored.Name)
	if err != nil {
		p.logger.Warn("CONTEXT_CACHE", "Failed to retrieve recorded cached content", map[string]interface{}{
			"name":  stored.Name,
			"error": err.Error(),
		})
		return nil
	}

	p.logger.Info("CONTEXT_CACHE", "Reusing existing cached content", map[string]interface{}{
		"name": cached.Name,
	})
	return handleFromCachedContent(cached, p.cfg.DocumentPath)
}

func (p *Provisioner) writeMetadata(handle *Handle) {
	data, err := json.MarshalIndent(handle, "", "  ")
	if err == nil {
		err = os.WriteFile(p.cfg.MetadataPath, data, 0644)
	}
	if err != nil {
		p.logger.Warn("CONTEXT_CACHE", "Failed to persist cache metadata", map[string]interface{}{
			"path":  p.cfg.MetadataPath,
			"error": err.Error(),
		})
	}
}

func handleFromCachedContent(cached *genai.CachedContent, sourceDocument string) *Handle {
	return &Handle{
		Name:           cached.Name,
		Model:          cached.Model,
		DisplayName:    cached.DisplayName,
		CreatedAt:      cached.CreateTime,
		UpdatedAt:      cached.UpdateTime,
		ExpiresAt:      cached.ExpireTime,
		SourceDocument: sourceDocument,
	}
}
