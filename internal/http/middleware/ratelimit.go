package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/asset-service/internal/ratelimit"
	"github.com/princekumarofficial/asset-service/internal/utils/response"
)

// Rate-limited actions
const (
	ActionUpload     = "upload"
	ActionBulkUpload = "bulk-upload"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig limits single uploads to uploadsPerMinute per client
// and bulk uploads to a tenth of that, at least one.
func NewRateLimitConfig(redisClient *redis.Client, uploadsPerMinute int64) *RateLimitConfig {
	bulk := uploadsPerMinute / 10
	if bulk < 1 {
		bulk = 1
	}

	return &RateLimitConfig{
		limiters: map[string]*ratelimit.TokenBucket{
			ActionUpload:     ratelimit.NewTokenBucket(redisClient, uploadsPerMinute, uploadsPerMinute),
			ActionBulkUpload: ratelimit.NewTokenBucket(redisClient, bulk, bulk),
		},
	}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limiter, exists := rlc.limiters[action]
		if !exists {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientIP(r)

			allowed, remaining, err := limiter.Allow(r.Context(), clientID, action)
			if err != nil {
				// Redis trouble must not take uploads down with it
				slog.Warn("Rate limit check failed, allowing request",
					slog.String("action", action),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(limiter.Window().Seconds())))

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}

// ClientIP prefers the first X-Forwarded-For hop and falls back to the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
