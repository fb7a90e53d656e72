package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the durable audit record of one chat session. The live
// session itself only ever exists in memory; this row is what survives it.
type Conversation struct {
	Id           uuid.UUID
	UserId       string
	InputTokens  int64
	OutputTokens int64
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
