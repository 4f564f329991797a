package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenReject(t *testing.T) {
	l := New(Config{RequestsPerWindow: 1, Window: time.Hour, Burst: 2}, nil)

	ok, _ := l.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, delay := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, delay, time.Duration(0))

	ok, _ = l.Allow("5.6.7.8")
	assert.True(t, ok, "keys are independent")
}

func TestMiddleware(t *testing.T) {
	rejected := 0
	l := New(Config{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}, func() { rejected++ })
	h := l.Middleware(IPKeyExtractor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/register-app/example.social", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do().Code)

	rr := do()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, rejected)
}

func TestMiddleware_EmptyKeyPassesThrough(t *testing.T) {
	l := New(Config{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}, nil)
	h := l.Middleware(func(*http.Request) string { return "" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestIPKeyExtractor_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	assert.Equal(t, "192.0.2.1", IPKeyExtractor(req))
}

func TestProxyIPKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ProxyIPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ProxyIPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ProxyIPKeyExtractor(req))
}

func TestMiddleware_RotatingForwardedForDoesNotBypass(t *testing.T) {
	l := New(Config{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}, nil)
	h := l.Middleware(KeyExtractorFor(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for _, xff := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodGet, "/register-app", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{}, nil)
	assert.Equal(t, DefaultConfig.RequestsPerWindow, l.cfg.RequestsPerWindow)
	assert.Equal(t, 1, l.cfg.Burst)
}
