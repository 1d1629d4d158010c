package play

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/geogamer/internal/clock"
	"github.com/playperu/geogamer/internal/geogamer"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownMapEvent = errors.New("unknown map event")
)

// Registry holds the live play sessions of this process.
type Registry struct {
	sched  clock.Scheduler
	pub    Publisher
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Option func(*Registry)

// WithScheduler replaces the wall-clock scheduler used by session timers.
func WithScheduler(s clock.Scheduler) Option {
	return func(r *Registry) { r.sched = s }
}

// WithNow replaces time.Now for idle tracking.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry. Sessions idle for longer than ttl
// are removed by Run.
func NewRegistry(logger *slog.Logger, pub Publisher, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		sched:    clock.TickerScheduler{},
		pub:      pub,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a session on the first round of level.
func (r *Registry) Create(level geogamer.Level, lastLevelID int) *Session {
	id := uuid.NewString()
	s := newSession(id, level, lastLevelID, r.sched, r.pub, r.logger, r.now)

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("play session started", "session_id", id, "level", level.ID, "rounds", len(level.Rounds), "sessions", n)
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	r.logger.Info("play session ended", "session_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap removes sessions idle since before now-ttl and returns how many.
func (r *Registry) Reap() int {
	cutoff := r.now().Add(-r.ttl)

	var stale []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("reaped idle play sessions", "count", len(stale))
	}
	return len(stale)
}

// Run reaps idle sessions every interval until ctx is done, then closes
// all remaining sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		case <-t.C:
			r.Reap()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
