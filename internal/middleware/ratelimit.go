package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address, preferring Cloudflare's CF-Connecting-IP,
// then the first X-Forwarded-For hop, then RemoteAddr. The location detect
// endpoint and the login limiter both key on it.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts attempts per key in fixed windows. It guards the login
// forms and the location lookup API.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
	}
}

// Allow records an attempt for key and reports whether it is within limit.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Add(period)}
		return true
	}
	w.count++
	return w.count <= limit
}

// Cleanup drops expired windows and returns how many were removed.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// RateLimit rejects requests over limit per key with 429 and a Retry-After.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, period time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(period.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r), limit, period) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too many attempts. Please wait a minute and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
