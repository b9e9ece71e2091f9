package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qrshield/internal/config"
)

// RateLimiter enforces a per-client request rate on the analyze endpoint.
// Clients are keyed by remote IP; idle entries are dropped lazily.
type RateLimiter struct {
	qps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const clientExpiry = 10 * time.Minute

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	qps := cfg.ClientQPS
	if qps <= 0 {
		qps = 5
	}
	burst := cfg.ClientBurst
	if burst <= 0 {
		burst = qps
	}
	return &RateLimiter{
		qps:     rate.Limit(qps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.qps, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(rl.clients) > 1024 {
		for k, v := range rl.clients {
			if now.Sub(v.lastSeen) > clientExpiry {
				delete(rl.clients, k)
			}
		}
	}
	return cl.limiter.Allow()
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.allow(host) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
