package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/labelscan/internal/metrics"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Store holds live sessions keyed by id.
//
// Store is safe for concurrent use. It guards only the map; each Session
// carries its own lock for the operations run on it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewStore creates an empty store. A ttl of zero or less uses DefaultTTL.
func NewStore(ttl time.Duration, log logrus.FieldLogger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Create starts a new idle session.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		ID:      uuid.NewString(),
		State:   Idle,
		Created: now,
		Touched: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.Sessions.Set(float64(n))
	st.log.WithField("session", s.ID).Debug("session created")
	return s
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the session with id, or a new one when id is unknown.
func (st *Store) GetOrCreate(id string) *Session {
	if s, err := st.Get(id); err == nil {
		return s
	}
	return st.Create()
}

// Evict removes a session. Unknown ids are ignored.
func (st *Store) Evict(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	metrics.Sessions.Set(float64(n))
}

// Clear removes every session.
func (st *Store) Clear() {
	st.mu.Lock()
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	metrics.Sessions.Set(0)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts sessions untouched for longer than the ttl and returns how
// many were removed. Sessions busy in an operation are left for the next
// sweep.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if !s.mu.TryLock() {
			continue
		}
		expired := s.Touched.Before(cutoff)
		s.mu.Unlock()
		if expired {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.Sessions.Set(float64(n))
	if removed > 0 {
		st.log.WithFields(logrus.Fields{
			"removed": removed,
			"live":    n,
		}).Debug("expired sessions evicted")
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
