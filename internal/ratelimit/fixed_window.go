package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config holds the recognized limiter options.
type Config struct {
	// Window is the length of one counting window.
	Window time.Duration
	// Max is the number of requests admitted per address per window.
	Max int
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Count is the number of admitted requests in the current window.
	Count int
	// RetryAfter is the time until the current window ends. Zero when allowed.
	RetryAfter time.Duration
}

// FixedWindow counts requests per key in fixed windows that start at the
// first request after the previous window elapsed. A burst straddling a
// window boundary can be admitted up to 2*Max times within one Window span.
type FixedWindow struct {
	window time.Duration
	max    int
	now    func() time.Time

	// windows maps key to *rateWindow. Each window has its own lock so
	// different addresses never contend.
	windows sync.Map
}

type rateWindow struct {
	mu    sync.Mutex
	start time.Time
	count int
	// dead is set under mu when the janitor removes the window from the map.
	dead bool
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) { l.now = now }
}

// NewFixedWindow creates a limiter from cfg.
func NewFixedWindow(cfg Config, opts ...Option) *FixedWindow {
	l := &FixedWindow{
		window: cfg.Window,
		max:    cfg.Max,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key and reports whether it is admitted.
// A rejected request does not change the window.
func (l *FixedWindow) Allow(key string) Decision {
	now := l.now()
	for {
		w := l.lookup(key)
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}

		if w.count == 0 || l.elapsed(w, now) {
			w.start = now
			w.count = 1
			w.mu.Unlock()
			return Decision{Allowed: true, Count: 1}
		}

		if w.count < l.max {
			w.count++
			d := Decision{Allowed: true, Count: w.count}
			w.mu.Unlock()
			return d
		}

		d := Decision{
			Allowed:    false,
			Count:      w.count,
			RetryAfter: w.start.Add(l.window).Sub(now),
		}
		w.mu.Unlock()
		return d
	}
}

func (l *FixedWindow) lookup(key string) *rateWindow {
	if v, ok := l.windows.Load(key); ok {
		return v.(*rateWindow)
	}
	v, _ := l.windows.LoadOrStore(key, &rateWindow{})
	return v.(*rateWindow)
}

func (l *FixedWindow) elapsed(w *rateWindow, now time.Time) bool {
	return !now.Before(w.start.Add(l.window))
}

// Prune removes windows that have elapsed. A request for a pruned key starts
// a fresh window, which is what it would have done anyway.
func (l *FixedWindow) Prune() int {
	now := l.now()
	removed := 0
	l.windows.Range(func(k, v any) bool {
		w := v.(*rateWindow)
		w.mu.Lock()
		if w.count > 0 && l.elapsed(w, now) {
			w.dead = true
			if l.windows.CompareAndDelete(k, w) {
				removed++
			}
		}
		w.mu.Unlock()
		return true
	})
	return removed
}

// Len returns the number of tracked keys.
func (l *FixedWindow) Len() int {
	n := 0
	l.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// RunJanitor prunes elapsed windows every interval until ctx is done.
func (l *FixedWindow) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Prune()
		}
	}
}
