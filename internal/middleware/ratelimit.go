package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/logging"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	limit      rate.Limit
	burst      int
	idle       time.Duration
	maxClients int
	now        func() time.Time
}

// NewRateLimiter allows perMinute requests per IP, all of which may arrive in
// a burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	perMinute = max(perMinute, 1)
	return &RateLimiter{
		clients:    make(map[string]*client),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
		idle:       time.Minute,
		maxClients: maxTrackedClients,
		now:        time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= rl.maxClients {
			rl.sweep(now)
		}
		if len(rl.clients) >= rl.maxClients {
			rl.evictOldest()
		}
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than a full refill. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idle {
			delete(rl.clients, k)
		}
	}
}

// evictOldest drops the least recently seen client so the map stays bounded
// when every tracked client is still active. Callers hold mu.
func (rl *RateLimiter) evictOldest() {
	var (
		oldest string
		seen   time.Time
	)
	for k, c := range rl.clients {
		if oldest == "" || c.lastSeen.Before(seen) {
			oldest, seen = k, c.lastSeen
		}
	}
	delete(rl.clients, oldest)
}

// Handler rejects requests over the limit with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.allow(key) {
			logging.FromContext(r.Context()).WithField("client", key).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			httpx.JSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
