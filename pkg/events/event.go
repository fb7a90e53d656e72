package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChatTurnRecorded builds the event emitted after a completed turn has
// been written to the audit trail.
func NewChatTurnRecorded(userID string, conversationID uuid.UUID, inputTokens, outputTokens int64) Event {
	return BaseEvent{
		Type: "CHAT_TURN_RECORDED",
		Data: map[string]interface{}{
			"user_id":         userID,
			"conversation_id": conversationID,
			"input_tokens":    inputTokens,
			"output_tokens":   outputTokens,
		},
		OccurredAt: time.Now(),
	}
}

// NewContextCacheRefreshed builds the event emitted when the cached
// inference context is replaced.
func NewContextCacheRefreshed(cacheName string, expiresAt time.Time) Event {
	return BaseEvent{
		Type: "CONTEXT_CACHE_REFRESHED",
		Data: map[string]interface{}{
			"cache_name":  cacheName,
			"expire_time": expiresAt,
		},
		OccurredAt: time.Now(),
	}
}
