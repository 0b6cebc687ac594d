package captcha

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"workshopflow/internal/logger"
	"workshopflow/internal/metrics"
)

var ErrUnknownSession = errors.New("captcha session not found or expired")

type session struct {
	gen      *Generator
	lastUsed time.Time
}

// Registry keeps one Generator per open login form, keyed by a random id.
// Sessions idle for longer than ttl are dropped by Run.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	src      Source
	now      func() time.Time
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewRegistry creates an empty registry. src is shared by every session, so it
// must be safe for concurrent use; nil selects the process-wide source.
func NewRegistry(ttl time.Duration, src Source, log *logger.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		src:      src,
		now:      time.Now,
		log:      log.WithComponent("captcha"),
		metrics:  m,
	}
}

// Open mounts a new login form and returns its session id and first challenge.
func (r *Registry) Open() (string, Challenge) {
	id := uuid.NewString()
	gen := NewGenerator(r.src)

	r.mu.Lock()
	r.sessions[id] = &session{gen: gen, lastUsed: r.now()}
	r.mu.Unlock()

	return id, gen.Current()
}

func (r *Registry) lookup(id string) (*Generator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	s.lastUsed = r.now()
	return s.gen, nil
}

// Refresh is the explicit "new question" action.
func (r *Registry) Refresh(id string) (Challenge, error) {
	gen, err := r.lookup(id)
	if err != nil {
		return Challenge{}, err
	}
	return gen.Generate(), nil
}

// Verify checks answer against the session's live challenge and returns the
// challenge that is live afterwards.
func (r *Registry) Verify(id, answer string) (Challenge, error) {
	gen, err := r.lookup(id)
	if err != nil {
		return Challenge{}, err
	}
	err = gen.Verify(answer)
	switch {
	case errors.Is(err, ErrEmptyAnswer):
		r.metrics.CaptchaResult("empty_answer")
	case errors.Is(err, ErrWrongAnswer):
		r.metrics.CaptchaResult("wrong_answer")
		r.log.Debug("captcha re-rolled after wrong answer", "session", id)
	default:
		r.metrics.CaptchaResult("ok")
	}
	return gen.Current(), err
}

// Remove discards a session once the login it guarded has succeeded.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	r.log.Info("captcha janitor started", "interval", interval, "ttl", r.ttl)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				r.log.Debug("expired captcha sessions removed", "count", n)
			}
		case <-ctx.Done():
			r.log.Info("captcha janitor stopped")
			return
		}
	}
}

func (r *Registry) sweep() int {
	threshold := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastUsed.Before(threshold) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
