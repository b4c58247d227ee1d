package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

// APIRateLimiter takes a token from an authenticated caller's bucket.
type APIRateLimiter interface {
	CheckAPIRateLimit(ctx context.Context, callerKey string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig configures RateLimitAPI.
type RateLimitConfig struct {
	Logger     *slog.Logger
	Limiter    APIRateLimiter
	APIEnabled bool
}

// RateLimitAPI enforces the caller's tier limits. It runs after Auth: keys
// are limited per key, password callers per user. Limiter failures let the
// request through.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.APIEnabled || cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.AuthFromContext(r.Context())
			if caller == nil {
				next.ServeHTTP(w, r)
				return
			}
			limits := model.LimitsForTier(caller.RateLimitTier)
			if limits.RequestsPerMinute == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := caller.RateLimitKey()
			result, err := cfg.Limiter.CheckAPIRateLimit(r.Context(), key, limits.RequestsPerMinute, limits.Burst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("caller", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limits.RequestsPerMinute))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				rejectRateLimited(cfg.Logger, w, r, "api", key, result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectRateLimited logs the refusal and answers 429 with Retry-After in
// whole seconds.
func rejectRateLimited(logger *slog.Logger, w http.ResponseWriter, r *http.Request, kind, subject string, retryAfter time.Duration) {
	secs := int(retryAfter.Seconds())
	logger.Warn("rate limit exceeded",
		slog.String("type", kind),
		slog.String("subject", subject),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", secs),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeAccessError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", secs))
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
