package memory

import (
	"context"
	"sync"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
)

type session struct {
	token     string
	expiresAt time.Time
}

// SessionRepository keeps session tokens in process memory.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[int64]session
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: map[int64]session{},
		now:      time.Now,
	}
}

func (r *SessionRepository) Save(_ context.Context, userID int64, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[userID] = session{token: token, expiresAt: r.now().Add(ttl)}

	return nil
}

func (r *SessionRepository) Get(_ context.Context, userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok || !r.now().Before(s.expiresAt) {
		delete(r.sessions, userID)

		return "", dalerrors.ErrNotFound
	}

	return s.token, nil
}
