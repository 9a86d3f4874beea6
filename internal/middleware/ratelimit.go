package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/httputil"
	"github.com/novachain/admin-backend/pkg/logger"
)

// RateLimiter throttles clients per key: the operator email when
// authenticated, the client IP otherwise.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewRateLimiter creates a per-key token-bucket limiter.
func NewRateLimiter(requestsPerSecond float64, burst int, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log.Named("ratelimit"),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			key = claims.Email
		}
		if key == "" {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			} else {
				key = r.RemoteAddr
			}
		}

		if !rl.getLimiter(key).Allow() {
			rl.log.WithField("key", key).WithField("path", r.URL.Path).Warn("rate limit exceeded")
			httputil.WriteError(w, errors.RateLimitExceeded(int(rl.rate), "1s"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup drops accumulated limiters once the map grows past a bound.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// StartCleanup runs Cleanup on the given interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
