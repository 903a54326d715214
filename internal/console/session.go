package console

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"users-console/internal/metrics"
)

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry keeps one Controller per browser session and forgets sessions idle longer than ttl.
type Registry struct {
	ttl     time.Duration
	factory func() *Controller
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates a registry that builds controllers with factory.
func NewRegistry(ttl time.Duration, factory func() *Controller, log *zap.Logger) *Registry {
	return &Registry{
		ttl:      ttl,
		factory:  factory,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Get returns the controller of session id. An unknown, malformed or expired id
// gets a fresh session; the returned id is the one to keep.
func (r *Registry) Get(id string) (string, *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok {
		if now.Sub(s.lastSeen) <= r.ttl {
			s.lastSeen = now
			return id, s.ctrl
		}
		delete(r.sessions, id)
	}

	if _, err := uuid.Parse(id); err != nil || id == "" {
		id = uuid.NewString()
	}
	s := &session{ctrl: r.factory(), lastSeen: now}
	r.sessions[id] = s
	metrics.ConsoleSessions.Set(float64(len(r.sessions)))
	r.log.Debug("console session started", zap.String("session_id", id))
	return id, s.ctrl
}

// Sweep drops expired sessions and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dropped := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
			dropped++
		}
	}
	metrics.ConsoleSessions.Set(float64(len(r.sessions)))
	if dropped > 0 {
		r.log.Debug("console sessions expired", zap.Int("count", dropped))
	}
	return dropped
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
