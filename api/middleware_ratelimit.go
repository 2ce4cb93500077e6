package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// submissionWindow is how long a credential's submission count lives before
// it resets
const submissionWindow = 24 * time.Hour

// SubmissionRateLimiter caps the number of complaint submissions per
// credential per day. Counts are kept in redis with a rolling daily TTL; the
// limiter fails open when redis is unreachable so an outage never blocks
// submissions.
func SubmissionRateLimiter(rdb *redis.Client, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "submissions:" + callerKey(r)

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				zap.S().Warnw("rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := rdb.Expire(r.Context(), key, submissionWindow).Err(); err != nil {
					zap.S().Warnw("failed to set rate limit TTL", "error", err)
				}
			}

			if count > int64(limit) {
				retryAfter, _ := rdb.TTL(r.Context(), key).Result()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(fmt.Sprintf(`{"error": "rate limit exceeded", "retry_after": %.0f}`, retryAfter.Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// callerKey identifies the submitting credential: the bearer token when
// present, the remote address otherwise
func callerKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authHeader, "Bearer "); found && token != "" {
		return token
	}
	return r.RemoteAddr
}
