package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store counts requests per key in a sliding window.
type Store interface {
	// Record adds a request now and returns how many fall inside window,
	// the new one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// LimitExceeded contains information about which limit was exceeded.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// Message is the client-facing description of the exceeded limit.
func (e *LimitExceeded) Message() string {
	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// RetryAfter is an upper bound on how long the client should wait.
func (e *LimitExceeded) RetryAfter() time.Duration {
	return e.Config.Window
}

// PolicyLimiter enforces rate limits based on a policy and resolved scopes.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of every scope and stops at
// the first one exceeded. The LimitExceeded return is nil when allowed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			if exceeded, err := l.record(ctx, key, scope, limit); exceeded != nil || err != nil {
				return false, exceeded, err
			}
		}
	}

	return true, nil, nil
}

// AllowEndpoint applies an endpoint's own limits instead of the policy.
// Counters are keyed by route template, so every path matching the route
// shares them per client.
func (l *PolicyLimiter) AllowEndpoint(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:endpoint:%s:%d", clientKey, route, limit.Window.Milliseconds())

		if exceeded, err := l.record(ctx, key, ScopeEndpoint, limit); exceeded != nil || err != nil {
			return false, exceeded, err
		}
	}

	return true, nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, key string, scope Scope, limit LimitConfig) (*LimitExceeded, error) {
	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, err
	}

	if count > limit.Max {
		return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
	}

	return nil, nil
}
