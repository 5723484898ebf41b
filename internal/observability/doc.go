// Package observability provides logging and metrics support for the
// abstract review service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for abstracts, reviews, and the notification outbox
//   - Context helpers for propagating request identity
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("abstract_id", id.String()).Msg("review submitted")
//
// Add abstract context to a logger:
//
//	logger = observability.WithAbstractContext(logger, abstractID, eventID)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("abstract_review")
//
// Record metrics:
//
//	metrics.RecordAbstractSubmitted()
//	metrics.RecordStatusTransition("submitted", "under_review")
//	metrics.RecordNotificationPublished("reviewer.assigned")
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithActor(ctx, actorID, role)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	actorID, role := observability.ActorFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - abstract_id: Abstract identifier
//   - event_id: Conference event identifier
//   - reviewer_id: Reviewer identifier
//   - actor_id: Identifier of the user performing an operation
//   - role: Role of the acting user
//   - notification_kind: Outbox notification kind
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
