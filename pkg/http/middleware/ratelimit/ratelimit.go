package ratelimit

import (
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/pkg/logger"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP. Buckets idle for longer
// than expiresIn are dropped on the next request.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	trusted   []netip.Prefix
	now       func() time.Time
}

// New creates a Limiter. Forwarding headers are honoured only on requests
// arriving from trustedProxies; otherwise clients are keyed by their remote address.
func New(limit rate.Limit, burst int, expiresIn time.Duration, trustedProxies ...netip.Prefix) *Limiter {
	return &Limiter{
		visitors:  map[string]*visitor{},
		limit:     limit,
		burst:     burst,
		expiresIn: expiresIn,
		trusted:   trustedProxies,
		now:       time.Now,
	}
}

// Allow reports whether the client may make a request now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiresIn {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Handler rejects requests over the limit with 429.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(logger.ClientIP(r, l.trusted...)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"kind":"rate_limited","message":"rate limit exceeded"}`))

			return
		}

		next.ServeHTTP(w, r)
	})
}
