// Package ratelimit implements admission control for the public write path:
// a fixed-window counter keyed by submitter address, plus optional recording
// of admit/reject statistics.
//
// The limiter has no net/http dependency; the HTTP middleware lives in
// internal/handler.
package ratelimit
