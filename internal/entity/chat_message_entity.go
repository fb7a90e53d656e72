package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	InputTokens    int64
	OutputTokens   int64
	CreatedAt      time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
