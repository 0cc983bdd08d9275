package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-client sliding window limiter keyed by IP.
type RateLimiter struct {
	requests int
	window   time.Duration

	mu      sync.Mutex
	clients map[string][]time.Time
}

func NewRateLimiter(requests, windowSeconds int) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	rl := &RateLimiter{
		requests: requests,
		window:   time.Duration(windowSeconds) * time.Second,
		clients:  make(map[string][]time.Time),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	for range time.Tick(time.Minute) {
		rl.mu.Lock()
		cutoff := time.Now().Add(-2 * rl.window)
		for ip, stamps := range rl.clients {
			if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow records a request for ip and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := time.Now().Add(-rl.window)
	stamps := rl.clients[ip]
	valid := stamps[:0]
	for _, ts := range stamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.requests {
		rl.clients[ip] = valid
		return false, 0
	}

	valid = append(valid, time.Now())
	rl.clients[ip] = valid
	return true, rl.requests - len(valid)
}

func RateLimit(requests, windowSeconds int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, windowSeconds)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining := limiter.Allow(clientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if i := strings.LastIndexByte(r.RemoteAddr, ':'); i >= 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}
