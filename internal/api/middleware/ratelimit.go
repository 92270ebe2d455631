package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time)
	Limit() int
}

// RateLimiter provides rate limiting functionality using a sliding window algorithm
type RateLimiter struct {
	requests      int           // Maximum requests per window
	window        time.Duration // Window duration
	clients       map[string]*clientWindow
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	done          chan struct{}
}

type clientWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requests int, windowSeconds int) *RateLimiter {
	if requests <= 0 {
		requests = 100 // Default
	}
	if windowSeconds <= 0 {
		windowSeconds = 60 // Default
	}

	rl := &RateLimiter{
		requests: requests,
		window:   time.Duration(windowSeconds) * time.Second,
		clients:  make(map[string]*clientWindow),
		done:     make(chan struct{}),
	}

	// Start cleanup goroutine to remove old entries
	rl.cleanupTicker = time.NewTicker(time.Minute)
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Limit() int { return rl.requests }

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
	close(rl.done)
}

// cleanup removes expired entries periodically
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTicker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		for key, client := range rl.clients {
			client.mu.Lock()
			if len(client.timestamps) == 0 {
				delete(rl.clients, key)
			} else if now.Sub(client.timestamps[len(client.timestamps)-1]) > rl.window*2 {
				// No recent activity, remove client
				delete(rl.clients, key)
			}
			client.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

// Allow checks if a request for the given key should be allowed
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, time.Time) {
	rl.mu.RLock()
	client, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double-check after acquiring write lock
		if client, exists = rl.clients[key]; !exists {
			client = &clientWindow{
				timestamps: make([]time.Time, 0, rl.requests),
			}
			rl.clients[key] = client
		}
		rl.mu.Unlock()
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// Drop timestamps that left the window
	kept := client.timestamps[:0]
	for _, ts := range client.timestamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	client.timestamps = kept

	if len(client.timestamps) >= rl.requests {
		// The oldest request in the window frees the next slot
		return false, 0, client.timestamps[0].Add(rl.window)
	}

	client.timestamps = append(client.timestamps, now)
	return true, rl.requests - len(client.timestamps), now.Add(rl.window)
}

// RedisLimiter counts requests in fixed windows shared by every API
// instance. When redis cannot be reached it degrades to the in-process
// fallback.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	fallback *RateLimiter
	logger   *slog.Logger
	degraded atomic.Bool // set while redis is failing
}

func NewRedisLimiter(client *redis.Client, requests, windowSeconds int, logger *slog.Logger) *RedisLimiter {
	fallback := NewRateLimiter(requests, windowSeconds)
	return &RedisLimiter{
		client:   client,
		requests: fallback.requests,
		window:   fallback.window,
		fallback: fallback,
		logger:   logger,
	}
}

func (rl *RedisLimiter) Limit() int { return rl.requests }

func (rl *RedisLimiter) Stop() { rl.fallback.Stop() }

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Truncate(rl.window)
	reset := windowStart.Add(rl.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		if rl.degraded.CompareAndSwap(false, true) {
			rl.logger.Warn("rate limit store unavailable, using local window", "error", err)
		}
		return rl.fallback.Allow(ctx, key)
	}
	if rl.degraded.CompareAndSwap(true, false) {
		rl.logger.Info("rate limit store recovered")
	}

	count := int(incr.Val())
	if count > rl.requests {
		return false, 0, reset
	}
	return true, rl.requests - count, reset
}

// RateLimit returns a middleware that applies rate limiting per client IP
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		return getClientIP(r)
	})
}

// RateLimitByUser keys on the authenticated caller, falling back to the IP.
// It must run after Auth.
func RateLimitByUser(limiter Limiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		if caller, ok := GetCaller(r.Context()); ok {
			return "user:" + caller.ID.String()
		}
		return getClientIP(r)
	})
}

func rateLimit(limiter Limiter, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetTime := limiter.Allow(r.Context(), keyFn(r))

			// Set rate limit headers
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds())+1, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (set by proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list (original client)
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP header (set by some proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
