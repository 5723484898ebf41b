package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/observability"
)

// Actor identity headers. Authentication happens upstream; the gateway hands
// this service an already-authenticated identity.
const (
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
	headerRequestID = "X-Request-ID"
)

type contextKey string

const ctxKeyActor contextKey = "actor"

// actorMiddleware extracts the caller identity from the request headers and
// stores it in the request context. Requests without a valid identity are
// rejected before reaching a handler.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(headerUserID)
		if rawID == "" {
			writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
			return
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "X-User-ID header is not a valid UUID")
			return
		}

		role := domain.Role(r.Header.Get(headerUserRole))
		switch role {
		case "":
			role = domain.RoleAuthor
		case domain.RoleAdmin, domain.RoleStaff, domain.RoleReviewer, domain.RoleAuthor:
		default:
			writeError(w, http.StatusBadRequest, "unknown role in X-User-Role header")
			return
		}

		actor := domain.Actor{ID: userID, Role: role}
		ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
		ctx = observability.WithActor(ctx, userID.String(), string(role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFromContext extracts the actor stored by actorMiddleware.
func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(domain.Actor)
	return actor, ok
}

// requestIDMiddleware ensures every request carries a request ID, echoing it
// back in the response headers for client-side correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}

		w.Header().Set(headerRequestID, requestID)
		ctx := observability.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// jsonContentTypeMiddleware sets Content-Type: application/json for all responses.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latencies per route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}
