package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/docsight-ai/docsight/internal/api/response"
	"github.com/docsight-ai/docsight/internal/cache"
)

// RateLimit enforces a fixed-window per-client request limit backed by Redis.
type RateLimit struct {
	cache  cache.Cache
	limit  int64
	window time.Duration
}

// NewRateLimit creates a rate limiter allowing perMinute requests per client.
func NewRateLimit(c cache.Cache, perMinute int) *RateLimit {
	return &RateLimit{
		cache:  c,
		limit:  int64(perMinute),
		window: time.Minute,
	}
}

func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(host), rl.window)
		if err != nil {
			// Fail open: a cache outage should not take the API down.
			slog.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			response.Error(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, slow down", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
