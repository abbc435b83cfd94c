package binding

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxSessions bounds how many session loops a Registry keeps alive.
const DefaultMaxSessions = 10000

type session struct {
	binding  *Binding
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Registry keeps one Binding per browser session and evicts idle ones.
type Registry struct {
	recomputer Recomputer
	logger     *slog.Logger
	ttl        time.Duration
	max        int
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

func NewRegistry(recomputer Recomputer, logger *slog.Logger, ttl time.Duration) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		recomputer: recomputer,
		logger:     logger,
		ttl:        ttl,
		max:        DefaultMaxSessions,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*session),
	}
}

// Session returns the binding for id, starting it on first use. When the
// registry is full the least recently seen session is stopped to make room.
func (r *Registry) Session(id string) (*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ctx.Err(); err != nil {
		return nil, ErrStopped
	}

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s.binding, nil
	}

	if r.max > 0 && len(r.sessions) >= r.max {
		r.evictOldestLocked()
	}

	b := New(r.recomputer, r.logger.With("session_id", id))
	ctx, cancel := context.WithCancel(r.ctx)
	r.sessions[id] = &session{binding: b, cancel: cancel, lastSeen: r.now()}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = b.Run(ctx)
	}()

	r.logger.Debug("session started", "session_id", id)
	return b, nil
}

func (r *Registry) evictOldestLocked() {
	var (
		oldestID string
		oldest   *session
	)
	for id, s := range r.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, s
		}
	}
	if oldest == nil {
		return
	}
	oldest.cancel()
	delete(r.sessions, oldestID)
	r.logger.Debug("session evicted", "session_id", oldestID, "reason", "capacity")
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep stops sessions idle for longer than the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			s.cancel()
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("idle sessions evicted", "count", removed)
	}
	return removed
}

// Janitor sweeps every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Shutdown stops every session loop and waits for them to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.mu.Lock()
		r.sessions = make(map[string]*session)
		r.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
