package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the abstract review service.
// Metrics are organized by subsystem: abstracts, assignments, reviews,
// decisions, notifications, and HTTP. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// AbstractsCreated counts the total number of abstracts created.
	AbstractsCreated prometheus.Counter

	// AbstractsResubmitted counts the total number of revision resubmissions.
	AbstractsResubmitted prometheus.Counter

	// StatusTransitions counts lifecycle transitions, labeled by from and to status.
	StatusTransitions *prometheus.CounterVec

	// ReviewersAssigned counts reviewers newly assigned to abstracts.
	ReviewersAssigned prometheus.Counter

	// AssignmentsSkipped counts assignment requests for already-assigned reviewers.
	AssignmentsSkipped prometheus.Counter

	// AssignmentsRejected counts assignment requests rejected for invalid reviewers.
	AssignmentsRejected prometheus.Counter

	// ReviewsSubmitted counts submitted reviews, labeled by decision.
	ReviewsSubmitted *prometheus.CounterVec

	// ReviewScores observes the distribution of submitted review scores.
	ReviewScores prometheus.Histogram

	// DecisionsRecorded counts final decisions, labeled by decision and whether
	// it was an admin override.
	DecisionsRecorded *prometheus.CounterVec

	// RevisionsRequested counts revision requests issued.
	RevisionsRequested prometheus.Counter

	// ConflictRetries counts optimistic concurrency conflicts surfaced to callers.
	ConflictRetries prometheus.Counter

	// NotificationsEnqueued counts notifications written to the outbox, labeled by kind.
	NotificationsEnqueued *prometheus.CounterVec

	// NotificationsPublished counts notifications delivered by the relay, labeled by kind.
	NotificationsPublished *prometheus.CounterVec

	// NotificationsFailed counts notifications that exhausted their delivery
	// attempts, labeled by kind.
	NotificationsFailed *prometheus.CounterVec

	// NotificationPublishDuration observes relay publish duration in seconds.
	NotificationPublishDuration prometheus.Histogram

	// OutboxPendingDepth tracks the number of pending rows seen at the last poll.
	OutboxPendingDepth prometheus.Gauge

	// HTTPRequestsTotal counts HTTP requests, labeled by method, route, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by
	// method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Abstracts
		AbstractsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_created_total",
			Help:      "Total number of abstracts created",
		}),
		AbstractsResubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_resubmitted_total",
			Help:      "Total number of revised abstracts resubmitted",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Total number of abstract lifecycle transitions",
		}, []string{"from", "to"}),

		// Assignments
		ReviewersAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviewers_assigned_total",
			Help:      "Total number of reviewers assigned to abstracts",
		}),
		AssignmentsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_skipped_total",
			Help:      "Total number of assignment requests for already-assigned reviewers",
		}),
		AssignmentsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_rejected_total",
			Help:      "Total number of assignment requests rejected for invalid reviewers",
		}),

		// Reviews
		ReviewsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Total number of reviews submitted by decision",
		}, []string{"decision"}),
		ReviewScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_scores",
			Help:      "Distribution of submitted review scores",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),

		// Decisions
		DecisionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_recorded_total",
			Help:      "Total number of final decisions recorded",
		}, []string{"decision", "override"}),
		RevisionsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_requested_total",
			Help:      "Total number of revision requests issued",
		}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Total number of optimistic concurrency conflicts",
		}),

		// Notifications
		NotificationsEnqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_enqueued_total",
			Help:      "Total number of notifications written to the outbox",
		}, []string{"kind"}),
		NotificationsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Total number of notifications published by the relay",
		}, []string{"kind"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notifications that exhausted delivery attempts",
		}, []string{"kind"}),
		NotificationPublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_publish_duration_seconds",
			Help:      "Duration of relay publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		OutboxPendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending_depth",
			Help:      "Number of pending outbox rows seen at the last poll",
		}),

		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}
}

// RecordAbstractCreated records that an abstract was created.
func (m *Metrics) RecordAbstractCreated() {
	m.AbstractsCreated.Inc()
}

// RecordAbstractResubmitted records that a revised abstract was resubmitted.
func (m *Metrics) RecordAbstractResubmitted() {
	m.AbstractsResubmitted.Inc()
}

// RecordStatusTransition records a lifecycle transition.
func (m *Metrics) RecordStatusTransition(from, to string) {
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// RecordAssignment records the outcome counts of an assignment request.
func (m *Metrics) RecordAssignment(newlyAssigned, alreadyAssigned, invalid int) {
	m.ReviewersAssigned.Add(float64(newlyAssigned))
	m.AssignmentsSkipped.Add(float64(alreadyAssigned))
	m.AssignmentsRejected.Add(float64(invalid))
}

// RecordReviewSubmitted records a submitted review.
func (m *Metrics) RecordReviewSubmitted(decision string, score *float64) {
	m.ReviewsSubmitted.WithLabelValues(decision).Inc()
	if score != nil {
		m.ReviewScores.Observe(*score)
	}
}

// RecordDecision records a final decision.
func (m *Metrics) RecordDecision(decision string, override bool) {
	label := "false"
	if override {
		label = "true"
	}
	m.DecisionsRecorded.WithLabelValues(decision, label).Inc()
}

// RecordRevisionRequested records a revision request.
func (m *Metrics) RecordRevisionRequested() {
	m.RevisionsRequested.Inc()
}

// RecordConflict records an optimistic concurrency conflict.
func (m *Metrics) RecordConflict() {
	m.ConflictRetries.Inc()
}

// RecordNotificationEnqueued records a notification written to the outbox.
func (m *Metrics) RecordNotificationEnqueued(kind string) {
	m.NotificationsEnqueued.WithLabelValues(kind).Inc()
}

// RecordNotificationPublished records a delivered notification.
func (m *Metrics) RecordNotificationPublished(kind string, durationSeconds float64) {
	m.NotificationsPublished.WithLabelValues(kind).Inc()
	m.NotificationPublishDuration.Observe(durationSeconds)
}

// RecordNotificationFailed records a notification that exhausted its attempts.
func (m *Metrics) RecordNotificationFailed(kind string) {
	m.NotificationsFailed.WithLabelValues(kind).Inc()
}

// RecordOutboxDepth records the pending outbox depth seen at a poll.
func (m *Metrics) RecordOutboxDepth(pending int) {
	m.OutboxPendingDepth.Set(float64(pending))
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
