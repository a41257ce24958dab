package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/logging"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/ratelimit"
)

// TooManySubmissions is the error body returned with 429.
const TooManySubmissions = "Too many submissions, please try again later."

// defaultStatsTimeout bounds how long one stats write may hold up a request.
const defaultStatsTimeout = 100 * time.Millisecond

// SecurityHeaders adds security response headers (CSP, X-Frame-Options, etc.)
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "0")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type clientAddrKey struct{}

// withClientAddr stores the resolved submitter address in the context.
func withClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey{}, addr)
}

// clientAddr returns the address resolved by RateLimiter, falling back to
// the host part of RemoteAddr.
func clientAddr(r *http.Request) string {
	if addr, ok := r.Context().Value(clientAddrKey{}).(string); ok {
		return addr
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter enforces a fixed-window submission limit per client address.
type RateLimiter struct {
	limiter           *ratelimit.FixedWindow
	stats             ratelimit.StatsRecorder
	statsTimeout      time.Duration
	trustedProxyCount int
	rejectLog         *rate.Sometimes
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTrustedProxyCount sets how many reverse proxies append to
// X-Forwarded-For in front of the service. Zero ignores the header.
func WithTrustedProxyCount(n int) RateLimiterOption {
	return func(rl *RateLimiter) { rl.trustedProxyCount = n }
}

// WithStats records every admission decision to rec.
func WithStats(rec ratelimit.StatsRecorder) RateLimiterOption {
	return func(rl *RateLimiter) { rl.stats = rec }
}

// WithStatsTimeout overrides how long a single stats write may take before
// it is abandoned.
func WithStatsTimeout(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.statsTimeout = d }
}

// NewRateLimiter wraps limiter as HTTP middleware.
func NewRateLimiter(limiter *ratelimit.FixedWindow, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:      limiter,
		statsTimeout: defaultStatsTimeout,
		rejectLog:    &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Middleware returns an http.Handler that enforces the limit. Rejected
// requests never reach next.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		dec := rl.limiter.Allow(ip)

		rl.recordStats(r, ratelimit.Event{
			Key:     ip,
			Allowed: dec.Allowed,
			Method:  r.Method,
			Path:    r.URL.Path,
			At:      time.Now(),
		})

		if !dec.Allowed {
			rl.rejectLog.Do(func() {
				logging.Ctx(r.Context()).Warn().
					Str(logging.FieldClientIP, ip).
					Int("count", dec.Count).
					Msg("submission rate limit exceeded")
			})
			w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
			writeError(w, http.StatusTooManyRequests, TooManySubmissions)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClientAddr(r.Context(), ip)))
	})
}

// recordStats writes ev within statsTimeout. Errors are logged and dropped.
func (rl *RateLimiter) recordStats(r *http.Request, ev ratelimit.Event) {
	if rl.stats == nil {
		return
	}
	ctx := r.Context()
	if rl.statsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rl.statsTimeout)
		defer cancel()
	}
	if err := rl.stats.Record(ctx, ev); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to record rate limit stats")
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the real client IP, reading from the rightmost trusted
// proxy position in X-Forwarded-For to prevent spoofing.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		// The rightmost entry added by our infrastructure is at
		// index len(parts) - trustedProxyCount.
		idx := len(parts) - rl.trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			if ip := strings.TrimSpace(parts[idx]); ip != "" {
				return ip
			}
		}
	}
	return remoteHost(r)
}
