package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 5, Window: time.Minute}).Middleware()(okHandler())

	for i := range 5 {
		w := hit(h, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 2, Window: time.Minute}).Middleware()(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999", nil).Code)
	}

	w := hit(h, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_Keys(t *testing.T) {
	tests := []struct {
		name   string
		cfg    RateLimitConfig
		first  func(h http.Handler) int
		second func(h http.Handler) int
		third  func(h http.Handler) int
	}{
		{
			name:   "remote address",
			cfg:    RateLimitConfig{Max: 1, Window: time.Minute},
			first:  func(h http.Handler) int { return hit(h, "10.0.0.1:1234", nil).Code },
			second: func(h http.Handler) int { return hit(h, "10.0.0.2:1234", nil).Code },
			third:  func(h http.Handler) int { return hit(h, "10.0.0.1:5678", nil).Code },
		},
		{
			name: "forwarded for",
			cfg:  RateLimitConfig{Max: 1, Window: time.Minute},
			first: func(h http.Handler) int {
				return hit(h, "192.168.1.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}).Code
			},
			second: func(h http.Handler) int {
				return hit(h, "192.168.1.1:1", map[string]string{"X-Forwarded-For": "203.0.113.51"}).Code
			},
			third: func(h http.Handler) int {
				return hit(h, "192.168.1.2:2", map[string]string{"X-Forwarded-For": "203.0.113.50"}).Code
			},
		},
		{
			name: "custom key",
			cfg: RateLimitConfig{Max: 1, Window: time.Minute, Key: func(r *http.Request) string {
				return r.Header.Get("api_key")
			}},
			first:  func(h http.Handler) int { return hit(h, "1.1.1.1:1", map[string]string{"api_key": "a"}).Code },
			second: func(h http.Handler) int { return hit(h, "1.1.1.1:1", map[string]string{"api_key": "b"}).Code },
			third:  func(h http.Handler) int { return hit(h, "2.2.2.2:2", map[string]string{"api_key": "a"}).Code },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLimiter(tt.cfg).Middleware()(okHandler())
			assert.Equal(t, http.StatusOK, tt.first(h))
			assert.Equal(t, http.StatusOK, tt.second(h))
			assert.Equal(t, http.StatusTooManyRequests, tt.third(h))
		})
	}
}

func TestLimiter_WindowRotation(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok := l.take("k", start)
	require.True(t, ok)
	_, _, ok = l.take("k", start.Add(time.Second))
	require.True(t, ok)
	_, _, ok = l.take("k", start.Add(2*time.Second))
	require.False(t, ok)

	// Far past both windows the previous count no longer applies.
	remaining, _, ok := l.take("k", start.Add(5*time.Minute))
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	l.evict(start.Add(10 * time.Minute))
	assert.Empty(t, l.windows)
}
