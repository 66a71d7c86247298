package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"predmaint/internal/pipeline"
	"predmaint/internal/presentation"
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Session is the state of one browser session.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	// Analysis is replaced wholesale by each upload and never mutated afterwards.
	Analysis    *pipeline.Result
	DatasetName string
	Viewer      presentation.ViewerState
}

// HasModel reports whether a model has been trained in this session
func (s *Session) HasModel() bool {
	return s.Analysis != nil && s.Analysis.Predictor != nil
}

// EvictFunc is called with the id of every session removed by the janitor or Delete.
type EvictFunc func(id string)

// Store is an in-memory session store
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl     time.Duration
	onEvict []EvictFunc
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a store that forgets sessions idle for longer than ttl.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "session")),
		now:      time.Now,
	}
}

// OnEvict registers a hook run after a session is removed
func (s *Store) OnEvict(fn EvictFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// GetOrCreate returns a copy of the session with id, creating a new session
// with a fresh id when id is empty or unknown. The bool reports creation.
func (s *Store) GetOrCreate(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.LastSeen = now
		return *sess, false
	}

	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	s.logger.Debug("session created", slog.String("session_id", sess.ID))
	return *sess, true
}

// Get returns a copy of the session with id
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *sess, nil
}

// Update runs fn on the stored session under the store lock. Changes are
// kept only when fn returns nil. The updated copy is returned.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	draft := *sess
	if err := fn(&draft); err != nil {
		return *sess, err
	}
	draft.ID = sess.ID
	draft.LastSeen = s.now()
	*sess = draft
	return draft, nil
}

// Delete removes a session and runs the eviction hooks.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	hooks := s.onEvict
	s.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(id)
		}
	}
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupExpired removes sessions idle for longer than the TTL and returns
// how many were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	hooks := s.onEvict
	s.mu.Unlock()

	for _, id := range expired {
		for _, fn := range hooks {
			fn(id)
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired sessions removed", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// RunJanitor calls CleanupExpired every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}
