package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/pantry/internal/auth"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// ClientIP returns the address of the caller. Forwarding headers are only
// honored when trustProxy is set, since any client can send them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ActorOrIP counts authenticated requests per actor and anonymous ones per
// client address.
func ActorOrIP(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if actor := auth.UserID(r.Context()); actor != "" {
			return "actor:" + actor
		}
		return "ip:" + ClientIP(r, trustProxy)
	}
}

// bucket is one fixed window for one key.
type bucket struct {
	used  int
	reset time.Time
}

// RateLimiter counts requests per key in fixed windows, in memory.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow spends one request from key's window. When the window is used up it
// returns false and how long until the window resets.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.reset) {
		rl.buckets[key] = &bucket{used: 1, reset: now.Add(window)}
		return true, 0
	}
	if b.used >= limit {
		return false, b.reset.Sub(now)
	}
	b.used++
	return true, 0
}

// Cleanup drops buckets whose window has passed and reports how many went.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	dropped := 0
	for key, b := range rl.buckets {
		if !now.Before(b.reset) {
			delete(rl.buckets, key)
			dropped++
		}
	}
	return dropped
}

// RateLimit rejects requests beyond limit per window for each key with 429
// and a Retry-After of the seconds left in the window.
func RateLimit(limiter *RateLimiter, key KeyFunc, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(key(r), limit, window)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "too many requests", "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
