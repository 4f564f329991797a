// Package ratelimit throttles registration attempts per client so the broker
// cannot be used to flood remote instances with app registrations.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Config defines a token bucket refilled at RequestsPerWindow per Window.
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

// DefaultConfig allows 10 registrations per minute with a burst of 5.
var DefaultConfig = Config{
	RequestsPerWindow: 10,
	Window:            time.Minute,
	Burst:             5,
	IdleTTL:           10 * time.Minute,
}

// KeyExtractor derives the rate-limit key for a request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the address of the connected peer. Forwarding headers
// are ignored because any client can set them.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ProxyIPKeyExtractor keys on X-Forwarded-For, then X-Real-IP, then the peer
// address. Use it only behind a reverse proxy that overwrites those headers.
func ProxyIPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return IPKeyExtractor(r)
}

// KeyExtractorFor picks the extractor for the deployment.
func KeyExtractorFor(trustProxyHeaders bool) KeyExtractor {
	if trustProxyHeaders {
		return ProxyIPKeyExtractor
	}
	return IPKeyExtractor
}

// Limiter keeps one token bucket per key in an expiring cache.
type Limiter struct {
	cfg      Config
	limit    rate.Limit
	buckets  *gocache.Cache
	mu       sync.Mutex
	onReject func()
}

// New creates a Limiter. onReject, when non-nil, is called for every rejected request.
func New(cfg Config, onReject func()) *Limiter {
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		cfg.RequestsPerWindow = DefaultConfig.RequestsPerWindow
		cfg.Window = DefaultConfig.Window
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig.IdleTTL
	}
	return &Limiter{
		cfg:      cfg,
		limit:    rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		buckets:  gocache.New(cfg.IdleTTL, cfg.IdleTTL),
		onReject: onReject,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		b := v.(*rate.Limiter)
		l.buckets.SetDefault(key, b)
		return b
	}
	b := rate.NewLimiter(l.limit, l.cfg.Burst)
	l.buckets.SetDefault(key, b)
	return b
}

// Allow reports whether a request for key may proceed, and if not, how long to wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	b := l.bucket(key)
	if b.Allow() {
		return true, 0
	}
	r := b.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, delay
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
// Requests with no extractable key pass through.
func (l *Limiter) Middleware(keyFn KeyExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ok, delay := l.Allow(key)
			if !ok {
				if l.onReject != nil {
					l.onReject()
				}
				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "too many registration attempts, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
