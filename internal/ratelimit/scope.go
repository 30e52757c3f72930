package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope names a family of counters. Each scope has its own limits in a Policy.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeRead     Scope = "read"
	ScopeWrite    Scope = "write"
	ScopeEndpoint Scope = "endpoint"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes limiting for one operation. Limits, when present,
// replace the policy and Scope is ignored.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

func (c EndpointConfig) Metadata() map[string]any {
	return map[string]any{MetadataKey: c}
}

// EndpointConfigOf reads the config registered on op.
func EndpointConfigOf(op *huma.Operation) (EndpointConfig, bool) {
	if op == nil {
		return EndpointConfig{}, false
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)

	return cfg, ok
}

type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// ScopeForMethod treats safe methods as reads and everything else as writes.
func ScopeForMethod(method string) Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// OperationScopeResolver returns the global scope plus the operation's
// declared scope, or the method's scope when none is declared.
type OperationScopeResolver struct{}

func NewOperationScopeResolver() OperationScopeResolver {
	return OperationScopeResolver{}
}

func (OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg, ok := EndpointConfigOf(ctx.Operation()); ok && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return []Scope{ScopeGlobal, ScopeForMethod(ctx.Method())}
}
