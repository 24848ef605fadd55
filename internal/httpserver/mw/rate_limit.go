package mw

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds inbound requests per client IP.
type RateLimitConfig struct {
	PerMinute int           // sustained requests per minute per IP
	Burst     int           // burst allowance per IP
	IdleTTL   time.Duration // drop per-IP state after this much inactivity
}

type ipLimiter struct {
	cfg    RateLimitConfig
	mu     sync.Mutex
	perIP  map[string]*ipEntry
	lastGC time.Time
	limit  rate.Limit
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	if cfg.PerMinute < 1 {
		cfg.PerMinute = 60
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &ipLimiter{
		cfg:    cfg,
		perIP:  make(map[string]*ipEntry),
		lastGC: time.Now(),
		limit:  rate.Limit(float64(cfg.PerMinute) / 60.0),
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.cfg.IdleTTL {
		for k, e := range l.perIP {
			if now.Sub(e.lastSeen) > l.cfg.IdleTTL {
				delete(l.perIP, k)
			}
		}
		l.lastGC = now
	}

	e := l.perIP[ip]
	if e == nil {
		e = &ipEntry{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.perIP[ip] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// RateLimit returns a middleware enforcing a per-IP token bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !l.allow(ip, time.Now()) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
