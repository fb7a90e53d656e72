package session

import (
	"errors"
	"sync"
	"time"

	"bank-chatbot-be/internal/repository/memory"
	"bank-chatbot-be/pkg/store"
)

// ErrSessionBusy is returned when a second request for the same user arrives
// while the first is still in flight. The caller should retry.
var ErrSessionBusy = errors.New("another request for this user is in flight")

// Registry owns the collection of active sessions. It enforces one active
// session per user and serializes all session mutation per user through a
// keyed mutex, so requests for distinct users never block one another.
type Registry struct {
	repo *memory.SessionRepository
	now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates a registry over the in-memory session store. The clock
// is injectable for tests; pass nil to use time.Now.
func NewRegistry(repo *memory.SessionRepository, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		repo:  repo,
		now:   now,
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex for a user slot, creating it on first use.
// Lock entries are never removed: a removed-and-recreated mutex could be
// held twice concurrently, which would break the one-writer-per-user
// invariant. Growth is bounded by the user population.
func (r *Registry) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lk, ok := r.locks[userID]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[userID] = lk
	}
	return lk
}

// GetOrCreate returns the active session for userID. An expired or exhausted
// prior session is discarded and replaced with a fresh one. Concurrent calls
// for the same user serialize, so exactly one session is created.
func (r *Registry) GetOrCreate(userID string, requestLimit int, duration time.Duration) *store.Session {
	lk := r.userLock(userID)
	lk.Lock()
	defer lk.Unlock()

	if sess, found := r.repo.Get(userID); found && !sess.IsExpired() && !sess.IsExhausted() {
		return sess
	}

	sess := store.NewSession(userID, requestLimit, duration, r.now)
	r.repo.Save(sess)
	return sess
}

// WithSession runs fn while holding the user's slot exclusively. A concurrent
// call for the same user is rejected with ErrSessionBusy rather than queued.
//
// The call that first observes an expired or exhausted session gets the
// corresponding policy error and the dead session is evicted, so the next
// call starts a fresh one.
func (r *Registry) WithSession(userID string, requestLimit int, duration time.Duration, fn func(*store.Session) error) error {
	lk := r.userLock(userID)
	if !lk.TryLock() {
		return ErrSessionBusy
	}
	defer lk.Unlock()

	sess, found := r.repo.Get(userID)
	if found {
		if sess.IsExpired() {
			r.repo.Delete(userID)
			return store.ErrSessionExpired
		}
		if sess.IsExhausted() {
			r.repo.Delete(userID)
			return &store.LimitExceededError{
				Limit:      sess.RequestLimit,
				Used:       sess.RequestCount,
				ResetAfter: sess.ExpiresAt,
			}
		}
	} else {
		sess = store.NewSession(userID, requestLimit, duration, r.now)
		r.repo.Save(sess)
	}

	return fn(sess)
}

// End removes a user's session regardless of state. Idempotent.
func (r *Registry) End(userID string) {
	lk := r.userLock(userID)
	lk.Lock()
	defer lk.Unlock()

	r.repo.Delete(userID)
}

// Sweep evicts every expired session and returns how many were removed.
// Each eviction takes the user's slot, so a sweep never disagrees with a
// concurrent GetOrCreate about which session is authoritative.
func (r *Registry) Sweep() int {
	removed := 0
	for _, sess := range r.repo.All() {
		if !sess.IsExpired() {
			continue
		}
		lk := r.userLock(sess.UserID)
		lk.Lock()
		if current, found := r.repo.Get(sess.UserID); found && current.IsExpired() {
			r.repo.Delete(sess.UserID)
			removed++
		}
		lk.Unlock()
	}
	return removed
}

// Active returns point-in-time copies of all non-expired sessions. Each copy
// is taken while holding the user's slot, so a concurrent turn can never be
// observed half-applied and callers get values they may read freely.
func (r *Registry) Active() []store.Snapshot {
	var active []store.Snapshot
	for _, sess := range r.repo.All() {
		lk := r.userLock(sess.UserID)
		lk.Lock()
		if current, found := r.repo.Get(sess.UserID); found && !current.IsExpired() {
			active = append(active, current.Snapshot())
		}
		lk.Unlock()
	}
	return active
}
