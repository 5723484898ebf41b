package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification kind constants for outbox events.
const (
	NotifyReviewerAssigned    = "reviewer.assigned"
	NotifyAbstractApproved    = "abstract.approved"
	NotifyAbstractRejected    = "abstract.rejected"
	NotifyRevisionRequested   = "revision.requested"
	NotifyRevisionResubmitted = "revision.resubmitted"
)

// NotificationStatus represents the delivery state of an outbox row.
// These values must match the database enum notification_status.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationPublished NotificationStatus = "published"
	NotificationFailed    NotificationStatus = "failed"
)

// NotificationEvent is an outbound notification intent. The workflow enqueues
// intents in the same transaction as the state change; a separate relay
// worker publishes them, so delivery latency or failure never affects
// workflow correctness.
type NotificationEvent struct {
	ID           uuid.UUID          `json:"id"`
	Kind         string             `json:"kind"`
	AbstractID   uuid.UUID          `json:"abstract_id"`
	EventID      uuid.UUID          `json:"event_id"`
	RecipientIDs []uuid.UUID        `json:"recipient_ids"`
	Payload      json.RawMessage    `json:"payload,omitempty"`
	Status       NotificationStatus `json:"status"`
	Attempts     int                `json:"attempts"`
	MaxAttempts  int                `json:"max_attempts"`
	LastError    string             `json:"last_error,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
}

// ReviewerAssignedPayload is the payload for reviewer.assigned notifications.
type ReviewerAssignedPayload struct {
	AbstractID    uuid.UUID `json:"abstract_id"`
	AbstractTitle string    `json:"abstract_title"`
	ReviewerID    uuid.UUID `json:"reviewer_id"`
}

// StatusChangedPayload is the payload for abstract.approved and
// abstract.rejected notifications.
type StatusChangedPayload struct {
	AbstractID    uuid.UUID      `json:"abstract_id"`
	AbstractTitle string         `json:"abstract_title"`
	Status        AbstractStatus `json:"status"`
	AverageScore  *float64       `json:"average_score,omitempty"`
	DecidedBy     *uuid.UUID     `json:"decided_by,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// RevisionRequestedPayload is the payload for revision.requested notifications.
type RevisionRequestedPayload struct {
	AbstractID    uuid.UUID  `json:"abstract_id"`
	AbstractTitle string     `json:"abstract_title"`
	Reason        string     `json:"reason"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

// RevisionResubmittedPayload is the payload for revision.resubmitted
// notifications sent to assigned reviewers.
type RevisionResubmittedPayload struct {
	AbstractID    uuid.UUID `json:"abstract_id"`
	AbstractTitle string    `json:"abstract_title"`
}
