package genai

import (
	"context"
	"time"
)

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)

type ChatParts struct {
	Text string `json:"text"`
}

type ChatContent struct {
	Parts []*ChatParts `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type ChatHistory struct {
	Chat string
	Role string
}

type generateRequest struct {
	Contents      []*ChatContent `json:"contents"`
	CachedContent string         `json:"cachedContent,omitempty"`
}

type chatCandidate struct {
	Content *ChatContent `json:"content"`
}

type usageMetadata struct {
	PromptTokenCount     int64 `json:"promptTokenCount"`
	CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	TotalTokenCount      int64 `json:"totalTokenCount"`
}

type generateResponse struct {
	Candidates    []*chatCandidate `json:"candidates"`
	UsageMetadata *usageMetadata   `json:"usageMetadata"`
}

// GenerateResult carries the model reply and the token accounting extracted
// from the response usage metadata.
type GenerateResult struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// CachedContent mirrors the upstream cached-content resource.
type CachedContent struct {
	Name        string    `json:"name"`
	Model       string    `json:"model"`
	DisplayName string    `json:"displayName"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
	ExpireTime  time.Time `json:"expireTime"`
}

// CreateCachedContentConfig is the payload for provisioning a new cached
// content from the reference document text.
type CreateCachedContentConfig struct {
	DisplayName       string
	SystemInstruction string
	Content           string
	TTL               time.Duration
}

type createCachedContentRequest struct {
	Model             string         `json:"model"`
	DisplayName       string         `json:"displayName"`
	SystemInstruction *ChatContent   `json:"systemInstruction,omitempty"`
	Contents          []*ChatContent `json:"contents"`
	TTL               string         `json:"ttl"`
}

type listCachedContentsResponse struct {
	CachedContents []*CachedContent `json:"cachedContents"`
}

// Generator is the inference backend contract consumed by the chat
// orchestrator.
type Generator interface {
	GenerateContent(ctx context.Context, cacheName string, history []*ChatHistory, message string) (*GenerateResult, error)
}

// CacheAPI is the cached-content management contract consumed by the
// context-cache provisioner and the operational endpoints.
type CacheAPI interface {
	CreateCachedContent(ctx context.Context, cfg CreateCachedContentConfig) (*CachedContent, error)
	GetCachedContent(ctx context.Context, name string) (*CachedContent, error)
	ListCachedContents(ctx context.Context) ([]*CachedContent, error)
	DeleteCachedContent(ctx context.Context, name string) error
}
