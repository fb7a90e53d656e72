package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ErrSessionExpired is returned when a turn is appended after the session's
// expiry time has passed.
var ErrSessionExpired = errors.New("chat session expired")

// LimitExceededError is a custom error that carries usage details
type LimitExceededError struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *LimitExceededError) Error() string {
	return "session request limit exceeded"
}

// Turn is a single message in a session's history. Immutable once appended.
type Turn struct {
	Role         string    `json:"role"` // "user" | "model"
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
}

// Usage accumulates token consumption for a session. Monotonically
// non-decreasing.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (u *Usage) Add(input, output int64) {
	u.InputTokens += input
	u.OutputTokens += output
}

// Session is the active per-user conversation state held in memory.
// Callers must hold the registry's per-user slot while mutating; the struct
// itself is not locked.
type Session struct {
	UserID         string    `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	RequestCount   int       `json:"request_count"`
	RequestLimit   int       `json:"request_limit"`
	History        []Turn    `json:"history"`
	Usage          Usage     `json:"usage"`

	now func() time.Time
}

// NewSession creates a fresh session for userID valid for the given duration.
// The clock is injectable for tests; pass nil to use time.Now.
func NewSession(userID string, requestLimit int, duration time.Duration, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	createdAt := now()
	return &Session{
		UserID:         userID,
		ConversationID: uuid.New(),
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(duration),
		RequestLimit:   requestLimit,
		now:            now,
	}
}

// AppendExchange records a completed user/model exchange as one operation.
// It is all-or-nothing: expiry and the request budget are checked once up
// front, so a session never keeps half of an exchange. One exchange consumes
// one request.
func (s *Session) AppendExchange(userText, modelText string, inputTokens, outputTokens int64) error {
	if s.IsExpired() {
		return ErrSessionExpired
	}
	if s.IsExhausted() {
		return &LimitExceededError{
			Limit:      s.RequestLimit,
			Used:       s.RequestCount,
			ResetAfter: s.ExpiresAt,
		}
	}

	now := s.now()
	s.History = append(s.History,
		Turn{
			Role:        RoleUser,
			Text:        userText,
			CreatedAt:   now,
			InputTokens: inputTokens,
		},
		Turn{
			Role:         RoleModel,
			Text:         modelText,
			CreatedAt:    now,
			OutputTokens: outputTokens,
		},
	)
	s.RequestCount++
	s.Usage.Add(inputTokens, outputTokens)
	return nil
}

func (s *Session) IsExpired() bool {
	return s.now().After(s.ExpiresAt)
}

func (s *Session) IsExhausted() bool {
	return s.RequestCount >= s.RequestLimit
}

func (s *Session) RemainingRequests() int {
	remaining := s.RequestLimit - s.RequestCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingDuration reports how long the session stays valid; zero when
// already expired.
func (s *Session) RemainingDuration() time.Duration {
	remaining := s.ExpiresAt.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UsageSnapshot returns a copy of the accumulated usage.
func (s *Session) UsageSnapshot() Usage {
	return s.Usage
}

// Snapshot is a point-in-time copy of a session's observable state. Unlike a
// live *Session it is safe to read without holding the owner's slot.
type Snapshot struct {
	UserID            string    `json:"user_id"`
	ConversationID    uuid.UUID `json:"conversation_id"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	RequestCount      int       `json:"request_count"`
	RemainingRequests int       `json:"remaining_requests"`
	Usage             Usage     `json:"usage"`
}

// Snapshot copies the session's scalar state. Callers must hold the owner's
// slot, as with every other read of a live session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		UserID:            s.UserID,
		ConversationID:    s.ConversationID,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
		RequestCount:      s.RequestCount,
		RemainingRequests: s.RemainingRequests(),
		Usage:             s.Usage,
	}
}
