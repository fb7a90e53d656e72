package dto

import (
	"time"

	"github.com/google/uuid"
)

type ConverseRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type ConverseUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type ConverseResponse struct {
	ConversationId    uuid.UUID     `json:"conversation_id"`
	Reply             string        `json:"reply"`
	Usage             ConverseUsage `json:"usage"`
	RemainingRequests int           `json:"remaining_requests"`
	SessionExpiresAt  time.Time     `json:"session_expires_at"`
}

type SessionInfoResponse struct {
	UserID            string    `json:"user_id"`
	ConversationId    uuid.UUID `json:"conversation_id"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	ConsumedRequests  int       `json:"consumed_requests"`
	RemainingRequests int       `json:"remaining_requests"`
	InputTokens       int64     `json:"input_tokens"`
	OutputTokens      int64     `json:"output_tokens"`
}

// --- Limit Exceeded Error Types ---

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
