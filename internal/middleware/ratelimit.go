package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"workshopflow/internal/apperr"
	"workshopflow/internal/logger"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	expiry  time.Duration
	clients map[string]*client
	log     *logger.Logger
}

func NewRateLimiter(limit float64, burst int, expiry time.Duration, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(limit),
		burst:   burst,
		expiry:  expiry,
		clients: make(map[string]*client),
		log:     log.WithComponent("ratelimit"),
	}
}

func (rl *RateLimiter) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.getLimiter(key).Allow() {
			rl.log.Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			apperr.WriteError(w, apperr.TooManyRequests("RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// Run forgets clients idle longer than the expiry until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for k, c := range rl.clients {
				if time.Since(c.lastSeen) > rl.expiry {
					delete(rl.clients, k)
				}
			}
			rl.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// clientKey is the TCP peer address. Forwarding headers are ignored here;
// the router only rewrites RemoteAddr from them when TRUST_PROXY is set.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
