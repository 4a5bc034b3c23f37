package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Run("allows requests within the burst", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 3, time.Minute, zap.NewNop())
		handler := rl.Middleware(okHandler())

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
			req.RemoteAddr = "10.0.0.1:51000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("rejects requests over the burst", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1, time.Minute, zap.NewNop())
		handler := rl.Middleware(okHandler())

		first := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
		first.RemoteAddr = "10.0.0.2:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, first)
		assert.Equal(t, http.StatusOK, rec.Code)

		second := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
		second.RemoteAddr = "10.0.0.2:51001"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "temporarily_unavailable")
	})

	t.Run("buckets are per ip", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1, time.Minute, zap.NewNop())
		handler := rl.Middleware(okHandler())

		exhaust := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
		exhaust.RemoteAddr = "10.0.0.3:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, exhaust)
		assert.Equal(t, http.StatusOK, rec.Code)

		other := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
		other.RemoteAddr = "10.0.0.4:51000"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, other)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("falls back to the raw remote address", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1, time.Minute, zap.NewNop())
		handler := rl.Middleware(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/oauth2/token", nil)
		req.RemoteAddr = "no-port-here"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
