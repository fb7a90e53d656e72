package memory

import (
	"time"

	"bank-chatbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps active chat sessions in memory, keyed by user id.
// The go-cache janitor purges entries whose wall-clock TTL elapsed; the
// session registry remains the authority on expiry (Session.ExpiresAt), the
// janitor is only a safety net against leaked entries.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(sessionTTL, purgeInterval time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(sessionTTL, purgeInterval),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.UserID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(userID string) (*store.Session, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(userID string) {
	r.cache.Delete(userID)
}

// All returns a snapshot of every stored session.
func (r *SessionRepository) All() []*store.Session {
	items := r.cache.Items()
	sessions := make([]*store.Session, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*store.Session))
	}
	return sessions
}
