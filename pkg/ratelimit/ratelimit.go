// Package ratelimit implements fixed-window request limiting with pluggable
// storage. All requests inside one window share a single reset boundary, so a
// client can burst up to twice the nominal rate across a window seam; that is
// accepted behavior for this service (a sliding log or token bucket would be
// needed to close it).
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy describes one rate-limit rule. KeyFunc optionally rewrites the raw
// identity (e.g. to bucket by account instead of IP); when nil the identity is
// used as-is.
type Policy struct {
	Name        string
	MaxRequests int
	Window      time.Duration
	KeyFunc     func(identity string) string
}

// Named presets; configuration values, not behavior.
var (
	Strict   = Policy{Name: "strict", MaxRequests: 10, Window: time.Hour}
	Standard = Policy{Name: "standard", MaxRequests: 100, Window: 15 * time.Minute}
	Generous = Policy{Name: "generous", MaxRequests: 300, Window: 15 * time.Minute}
	Webhook  = Policy{Name: "webhook", MaxRequests: 1000, Window: time.Hour}
	Auth     = Policy{Name: "auth", MaxRequests: 5, Window: 15 * time.Minute}
)

// Result reports the outcome of one Check call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts hits per key within a fixed window. Incr creates or resets the
// bucket when absent or expired, increments it, and returns the new count and
// the window's reset time.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter enforces policies against an injected store. It never fails a
// request on its own error: store failures degrade to allow (fail-open),
// trading strictness for availability.
type Limiter struct {
	store Store
	log   *zap.Logger
}

func New(store Store) *Limiter {
	return &Limiter{store: store, log: zap.NewNop()}
}

// WithLogger sets the logger used for fail-open store errors.
func (l *Limiter) WithLogger(log *zap.Logger) *Limiter {
	l.log = log
	return l
}

// Check records one request for identity under policy and reports whether it
// may proceed. A lookup miss is the first request of a window, not an error.
func (l *Limiter) Check(ctx context.Context, identity string, policy Policy) Result {
	key := identity
	if policy.KeyFunc != nil {
		key = policy.KeyFunc(identity)
	}
	key = policy.Name + ":" + key

	count, resetAt, err := l.store.Incr(ctx, key, policy.Window)
	if err != nil {
		l.log.Warn("rate limit store error, allowing request",
			zap.String("policy", policy.Name), zap.Error(err))
		return Result{
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests,
			ResetAt:   time.Now().Add(policy.Window),
		}
	}

	remaining := policy.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   int(count) <= policy.MaxRequests,
		Limit:     policy.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
