package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"bank-chatbot-be/internal/repository/memory"
	"bank-chatbot-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}
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

func newTestRegistry() (*Registry, *fakeClock) {
	clock := newFakeClock()
	repo := memory.NewSessionRepository(time.Hour, time.Hour)
	return NewRegistry(repo, clock.Now), clock
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	registry, _ := newTestRegistry()

	first := registry.GetOrCreate("cust-1", 3, time.Minute)
	second := registry.GetOrCreate("cust-1", 3, time.Minute)

	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestGetOrCreateConcurrentCreatesExactlyOne(t *testing.T) {
	registry, _ := newTestRegistry()

	const workers = 32
	sessions := make([]*store.Session, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = registry.GetOrCreate("cust-1", 3, time.Minute)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, sessions[0].ConversationID, sessions[i].ConversationID)
	}
	assert.Len(t, registry.Active(), 1)
}

func TestGetOrCreateReplacesExpired(t *testing.T) {
	registry, clock := newTestRegistry()

	first := registry.GetOrCreate("cust-1", 3, time.Minute)
	clock.Advance(61 * time.Second)
	second := registry.GetOrCreate("cust-1", 3, time.Minute)

	assert.NotEqual(t, first.ConversationID, second.ConversationID)
	assert.False(t, second.IsExpired())
}

func TestWithSessionBusy(t *testing.T) {
	registry, _ := newTestRegistry()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	err := registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		return nil
	})
	assert.True(t, errors.Is(err, ErrSessionBusy))

	close(release)
	assert.NoError(t, <-done)
}

func TestWithSessionDistinctUsersDoNotBlock(t *testing.T) {
	registry, _ := newTestRegistry()

	release := make(chan struct{})
	go registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		<-release
		return nil
	})

	err := registry.WithSession("cust-2", 3, time.Minute, func(sess *store.Session) error {
		return nil
	})
	assert.NoError(t, err)
	close(release)
}

// With a limit of three, the fourth attempt gets the limit error and the
// fifth starts over on a fresh session.
func TestWithSessionLimitThenFreshSession(t *testing.T) {
	registry, _ := newTestRegistry()

	var firstConversation uuid.UUID
	turn := func() error {
		return registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
			firstConversation = sess.ConversationID
			return sess.AppendExchange("question", "answer", 5, 3)
		})
	}

	for i := 0; i < 3; i++ {
		assert.NoError(t, turn())
	}

	// Fourth turn: limit reached, session evicted before fn runs.
	err := turn()
	var limitErr *store.LimitExceededError
	assert.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 3, limitErr.Used)

	// Fifth turn: fresh session.
	err = registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		assert.NotEqual(t, firstConversation, sess.ConversationID)
		assert.Equal(t, 0, sess.RequestCount)
		return nil
	})
	assert.NoError(t, err)
}

func TestWithSessionExpiredThenFreshSession(t *testing.T) {
	registry, clock := newTestRegistry()

	err := registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		return sess.AppendExchange("question", "answer", 5, 3)
	})
	assert.NoError(t, err)

	clock.Advance(61 * time.Second)

	// First observer of the expiry gets the error; the dead session is gone.
	err = registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		return nil
	})
	assert.True(t, errors.Is(err, store.ErrSessionExpired))

	// The next call starts clean.
	err = registry.WithSession("cust-1", 3, time.Minute, func(sess *store.Session) error {
		assert.Empty(t, sess.History)
		return nil
	})
	assert.NoError(t, err)
}

func TestEndIsIdempotent(t *testing.T) {
	registry, _ := newTestRegistry()

	registry.GetOrCreate("cust-1", 3, time.Minute)
	registry.End("cust-1")
	registry.End("cust-1")

	assert.Empty(t, registry.Active())
}

// Active must be safe to call while a turn for the same user is in flight,
// and every snapshot it returns must sit on an exchange boundary.
func TestActiveDuringConcurrentTurns(t *testing.T) {
	registry, _ := newTestRegistry()

	const turns = 500
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < turns; i++ {
			// Busy rejections are expected while the reader holds the slot.
			_ = registry.WithSession("cust-1", turns+1, time.Minute, func(sess *store.Session) error {
				return sess.AppendExchange("question", "answer", 5, 3)
			})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < turns; i++ {
			for _, snap := range registry.Active() {
				assert.Equal(t, int64(snap.RequestCount)*5, snap.Usage.InputTokens)
				assert.Equal(t, int64(snap.RequestCount)*3, snap.Usage.OutputTokens)
			}
		}
	}()

	wg.Wait()
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	registry, clock := newTestRegistry()

	registry.GetOrCreate("cust-1", 3, time.Minute)
	clock.Advance(40 * time.Second)
	registry.GetOrCreate("cust-2", 3, time.Minute)
	clock.Advance(30 * time.Second) // cust-1 is now past its minute, cust-2 is not

	assert.Equal(t, 1, registry.Sweep())

	active := registry.Active()
	assert.Len(t, active, 1)
	assert.Equal(t, "cust-2", active[0].UserID)
}
