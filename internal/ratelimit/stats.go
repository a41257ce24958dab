package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event describes one admission decision.
type Event struct {
	Key     string
	Allowed bool
	Method  string
	Path    string
	At      time.Time
}

// StatsRecorder persists admission decisions. Recording is best effort:
// callers log errors and carry on.
type StatsRecorder interface {
	Record(ctx context.Context, ev Event) error
}

// RedisStats counts allowed and denied decisions in Redis hashes:
//
//	<prefix>:total            allowed|denied
//	<prefix>:minute:<yyyymmddhhmm>  allowed|denied (expires after ttl)
//	<prefix>:route            "<method> <path>:allowed|denied"
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisStatsOption configures a RedisStats.
type RedisStatsOption func(*RedisStats)

// WithStatsPrefix overrides the key prefix.
func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) { s.prefix = strings.Trim(prefix, ":") }
}

// WithStatsTTL sets how long per-minute buckets are kept.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

// NewRedisStats creates a recorder writing through rdb.
func NewRedisStats(rdb *redis.Client, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "contact:ratelimit",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ StatsRecorder = (*RedisStats)(nil)

func (s *RedisStats) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := outcomeField(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	bucket := s.minuteKey(at)
	pipe.HIncrBy(ctx, bucket, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucket, s.ttl)
	}

	if route := routeField(ev.Method, ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ratelimit: record stats: %w", err)
	}
	return nil
}

func (s *RedisStats) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStats) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func outcomeField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func routeField(method, path string) string {
	return strings.TrimSpace(strings.TrimSpace(method) + " " + strings.TrimSpace(path))
}
