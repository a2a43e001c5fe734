package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) *RateLimiter {
	t.Helper()
	logger := zerolog.Nop()
	rl := NewRateLimiter(limit, &logger)
	t.Cleanup(rl.Close)
	return rl
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		ok, _ := rl.allow("10.0.0.1")
		assert.True(t, ok, "request %d", i+1)
	}
	ok, retry := rl.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _ = rl.allow("10.0.0.2")
	assert.True(t, ok, "other clients keep their own budget")
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newTestLimiter(t, 1)
	rl.interval = 20 * time.Millisecond

	ok, _ := rl.allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = rl.allow("10.0.0.1")
	require.False(t, ok)

	time.Sleep(30 * time.Millisecond)
	ok, _ = rl.allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	const limit = 50
	rl := newTestLimiter(t, limit)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.allow("10.0.0.1"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), allowed.Load())
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := newTestLimiter(t, 5)
	rl.allow("10.0.0.1")
	rl.visitors["10.0.0.1"].lastReset = time.Now().Add(-time.Hour)
	rl.allow("10.0.0.2")

	rl.prune(10 * time.Minute)

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := newTestLimiter(t, 1)
	assert.NotPanics(t, func() {
		rl.Close()
		rl.Close()
	})
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := newTestLimiter(t, 2)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	var last *httptest.ResponseRecorder
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suggest-tags", nil)
		req.RemoteAddr = "192.168.1.7:5555"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes[i] = last.Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{name: "remote addr", remote: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "forwarded single", remote: "10.0.0.1:1", forwarded: "203.0.113.9", want: "203.0.113.9"},
		{name: "forwarded chain", remote: "10.0.0.1:1", forwarded: "203.0.113.9, 10.0.0.2", want: "203.0.113.9"},
		{name: "no port", remote: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
