package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurnAuditMessage is the payload handed to the audit consumer after a
// completed turn. One message carries both sides of the exchange.
type ChatTurnAuditMessage struct {
	UserID         string    `json:"user_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	UserMessage    string    `json:"user_message"`
	ModelReply     string    `json:"model_reply"`
	InputTokens    int64     `json:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens"`
	CreatedAt      time.Time `json:"created_at"`
}
