// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyByIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:54321"
	require.Equal(t, "ratelimit:ip:203.0.113.9", KeyByIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.1")
	require.Equal(t, "ratelimit:ip:198.51.100.1", KeyByIP(r))

	// The last hop in X-Forwarded-For wins; earlier entries are
	// client-controlled.
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.50")
	require.Equal(t, "ratelimit:ip:192.0.2.50", KeyByIP(r))
}

func TestKeyByIPAndEndpoint(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/verify-otp", nil)
	r.RemoteAddr = "203.0.113.9:54321"

	require.Equal(
		t,
		"ratelimit:ip:203.0.113.9:endpoint:/auth/verify-otp",
		KeyByIPAndEndpoint(r),
	)
}

func TestRateLimiterEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	rl := NewRateLimiter(client, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 2, Burst: 2, Period: time.Minute},
	})

	handler := rl.Handler(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))

	newReq := func() *http.Request {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:54321"
		return r
	}

	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newReq())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "RATE_LIMITED", errorCode(t, rec.Body.Bytes()))

	// A different caller has its own budget.
	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLocalLimiterFallback(t *testing.T) {
	l := newLocalLimiter()
	limit := redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute}

	res, err := l.allow("key", limit)
	require.NoError(t, err)
	require.Equal(t, 1, res.Allowed)

	res, err = l.allow("key", limit)
	require.NoError(t, err)
	require.Zero(t, res.Allowed)
	require.Positive(t, res.RetryAfter)
}

func TestRateLimiterBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	rl := NewRateLimiter(client, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute},
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})

	handler := rl.Handler(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))

	for range 5 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = "203.0.113.9:54321"
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
