package shared

import (
	"context"

	"github.com/google/uuid"
)

// RequestScope carries the authenticated tenant and actor for a request.
// Authentication happens upstream; the ledger only scopes queries by it.
type RequestScope struct {
	TenantID uuid.UUID
	ActorID  int64
}

type scopeContextKey struct{}

// ContextWithScope stores the request scope in context.
func ContextWithScope(ctx context.Context, scope RequestScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the request scope from context.
func ScopeFromContext(ctx context.Context) (RequestScope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(RequestScope)
	return scope, ok
}
