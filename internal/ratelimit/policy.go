package ratelimit

import "time"

// LimitConfig allows Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps each scope to the limits that apply to it. A scope without
// limits is not restricted.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: make(map[Scope][]LimitConfig)}}
}

// AddLimit adds a limit to scope. Several limits per scope are checked in order.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy is applied to every operation without its own limits.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 1000, time.Minute).
		AddLimit(ScopeRead, 600, time.Minute).
		AddLimit(ScopeWrite, 60, time.Minute).
		AddLimit(ScopeWrite, 1000, time.Hour).
		Build()
}

// CreationLimits apply to endpoints that allocate codes or store content.
func CreationLimits() EndpointConfig {
	return EndpointConfig{Limits: []LimitConfig{
		{Window: time.Minute, Max: 10},
		{Window: time.Hour, Max: 100},
	}}
}

// RedirectLimits apply to the public redirect and share surfaces.
func RedirectLimits() EndpointConfig {
	return EndpointConfig{Limits: []LimitConfig{
		{Window: time.Minute, Max: 1000},
	}}
}
