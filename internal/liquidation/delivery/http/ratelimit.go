package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tair/liquidation-ledger/pkg/logger"
	"github.com/tair/liquidation-ledger/pkg/ratelimit"
)

// RateLimiter decides whether a caller may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (ratelimit.Decision, error)
}

// RateLimitMiddleware limits callers by user id, or by client address when the
// request is anonymous. Limiter failures let the request through.
func RateLimitMiddleware(limiter RateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIP(r)
			if userID, ok := r.Context().Value(UserIDKey).(string); ok && userID != "" {
				identifier = "user:" + userID
			}

			decision, err := limiter.Allow(r.Context(), identifier)
			if err != nil {
				logger.Error(r.Context()).
					Err(err).
					Str("identifier", identifier).
					Msg("Rate limiter error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retryAfter := time.Until(decision.ResetAt).Round(time.Second)
				logger.Warn(r.Context()).
					Str("identifier", identifier).
					Int("limit", decision.Limit).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				respondJSON(w, http.StatusTooManyRequests, Response{
					Success: false,
					Error:   "Rate limit exceeded",
					Message: fmt.Sprintf("Too many requests. Try again in %v", retryAfter),
				})
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
