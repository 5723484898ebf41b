package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithActor adds the acting user's ID and role to the context.
func WithActor(ctx context.Context, actorID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	ctx = context.WithValue(ctx, actorRoleKey, role)
	return ctx
}

// ActorFromContext retrieves the acting user's ID and role from context.
// Returns empty strings if not present.
func ActorFromContext(ctx context.Context) (actorID, role string) {
	if v := ctx.Value(actorIDKey); v != nil {
		if id, ok := v.(string); ok {
			actorID = id
		}
	}
	if v := ctx.Value(actorRoleKey); v != nil {
		if r, ok := v.(string); ok {
			role = r
		}
	}
	return actorID, role
}

// RequestContext contains the identity fields carried with each request.
type RequestContext struct {
	RequestID string
	ActorID   string
	Role      string
}

// WithRequestContext adds all request identity fields to the context.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	if rc.RequestID != "" {
		ctx = WithRequestID(ctx, rc.RequestID)
	}
	if rc.ActorID != "" || rc.Role != "" {
		ctx = WithActor(ctx, rc.ActorID, rc.Role)
	}
	return ctx
}

// RequestContextFromContext extracts all request identity fields from the context.
func RequestContextFromContext(ctx context.Context) RequestContext {
	actorID, role := ActorFromContext(ctx)

	return RequestContext{
		RequestID: RequestIDFromContext(ctx),
		ActorID:   actorID,
		Role:      role,
	}
}
