package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/civicpulse/civic-report-api/api"
)

func TestSubmissionRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	// nothing listens here, every redis call errors
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})

	called := false
	handler := api.SubmissionRateLimiter(rdb, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/v1/complaint", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestTimeoutMiddlewareCutsOffSlowHandlers(t *testing.T) {
	handler := api.TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))

	req := httptest.NewRequest("GET", "/api/v1/complaints", nil)
	rr := httptest.NewRecorder()

	start := time.Now()
	handler.ServeHTTP(rr, req)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
}
