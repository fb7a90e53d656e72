package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stepClock advances itself on every read, so a single operation observes
// different times across its internal clock reads.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func TestNewSession(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	sess := NewSession("cust-1", 3, time.Minute, clock.Now)

	assert.Equal(t, "cust-1", sess.UserID)
	assert.NotEqual(t, uuid.Nil, sess.ConversationID)
	assert.Equal(t, clock.Now(), sess.CreatedAt)
	assert.Equal(t, clock.Now().Add(time.Minute), sess.ExpiresAt)
	assert.Equal(t, 3, sess.RemainingRequests())
	assert.False(t, sess.IsExpired())
	assert.False(t, sess.IsExhausted())
}

func TestAppendExchangeCountsOneRequest(t *testing.T) {
	clock := newFakeClock(time.Now())
	sess := NewSession("cust-1", 3, time.Minute, clock.Now)

	assert.NoError(t, sess.AppendExchange("hello", "hi there", 10, 7))

	assert.Equal(t, 1, sess.RequestCount)
	assert.Equal(t, 2, len(sess.History))
	assert.Equal(t, RoleUser, sess.History[0].Role)
	assert.Equal(t, RoleModel, sess.History[1].Role)
	assert.Equal(t, 2, sess.RemainingRequests())

	usage := sess.UsageSnapshot()
	assert.Equal(t, int64(10), usage.InputTokens)
	assert.Equal(t, int64(7), usage.OutputTokens)
}

func TestAppendExchangeLimitExceeded(t *testing.T) {
	clock := newFakeClock(time.Now())
	sess := NewSession("cust-1", 2, time.Minute, clock.Now)

	assert.NoError(t, sess.AppendExchange("q1", "a1", 1, 1))
	assert.NoError(t, sess.AppendExchange("q2", "a2", 1, 1))

	err := sess.AppendExchange("q3", "a3", 1, 1)

	var limitErr *LimitExceededError
	assert.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, 2, limitErr.Used)
	assert.Equal(t, sess.ExpiresAt, limitErr.ResetAfter)

	// All-or-nothing: the rejected exchange left no trace.
	assert.Equal(t, 4, len(sess.History))
	assert.Equal(t, 2, sess.RequestCount)
	assert.Equal(t, int64(2), sess.UsageSnapshot().InputTokens)
}

func TestAppendExchangeExpired(t *testing.T) {
	clock := newFakeClock(time.Now())
	sess := NewSession("cust-1", 5, time.Minute, clock.Now)

	assert.NoError(t, sess.AppendExchange("q1", "a1", 1, 0))

	clock.Advance(61 * time.Second)

	err := sess.AppendExchange("q2", "a2", 1, 0)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.True(t, sess.IsExpired())
	assert.Equal(t, 2, len(sess.History))
	assert.Equal(t, time.Duration(0), sess.RemainingDuration())
}

// An exchange that begins before the expiry instant commits in full even when
// the clock crosses ExpiresAt while it is being recorded. Only the next
// exchange sees the expiry.
func TestAppendExchangeCrossingExpiryCommitsWhole(t *testing.T) {
	clock := &stepClock{
		t:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		step: 40 * time.Second,
	}
	sess := NewSession("cust-1", 5, time.Minute, clock.Now)

	// The expiry check reads 10:00:40, the turn timestamps read 10:01:20,
	// which is already past ExpiresAt (10:01:00).
	err := sess.AppendExchange("question", "answer", 5, 3)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(sess.History))
	assert.Equal(t, 1, sess.RequestCount)
	assert.Equal(t, int64(5), sess.UsageSnapshot().InputTokens)
	assert.Equal(t, int64(3), sess.UsageSnapshot().OutputTokens)

	err = sess.AppendExchange("too late", "unreachable", 1, 0)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, 2, len(sess.History))
	assert.Equal(t, 1, sess.RequestCount)
}

func TestRemainingDuration(t *testing.T) {
	clock := newFakeClock(time.Now())
	sess := NewSession("cust-1", 5, time.Minute, clock.Now)

	clock.Advance(20 * time.Second)
	assert.Equal(t, 40*time.Second, sess.RemainingDuration())
}

func TestSnapshotCopiesState(t *testing.T) {
	clock := newFakeClock(time.Now())
	sess := NewSession("cust-1", 3, time.Minute, clock.Now)
	assert.NoError(t, sess.AppendExchange("q1", "a1", 10, 7))

	snap := sess.Snapshot()
	assert.Equal(t, "cust-1", snap.UserID)
	assert.Equal(t, sess.ConversationID, snap.ConversationID)
	assert.Equal(t, 1, snap.RequestCount)
	assert.Equal(t, 2, snap.RemainingRequests)
	assert.Equal(t, int64(10), snap.Usage.InputTokens)

	// The copy is detached from later mutation.
	assert.NoError(t, sess.AppendExchange("q2", "a2", 10, 7))
	assert.Equal(t, 1, snap.RequestCount)
	assert.Equal(t, int64(10), snap.Usage.InputTokens)
}
