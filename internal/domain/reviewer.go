package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reviewer is a user authorized to evaluate assigned abstracts.
type Reviewer struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`

	// AssignedAbstractsCount is the reviewer workload counter, incremented
	// exactly once per successful new assignment. It is never decremented
	// automatically; unassignment is not part of the workflow.
	AssignedAbstractsCount int `json:"assigned_abstracts_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assignable reports whether a reviewer can receive new assignments.
// A reviewer must be active and have a contactable email identity.
func (r *Reviewer) Assignable() bool {
	return r.Active && r.Email != ""
}

// EventConfig is the read-only per-event configuration consulted by the
// workflow before dispatching notifications.
type EventConfig struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// NotifyEnabled is the master switch for outbound notifications.
	NotifyEnabled bool `json:"notify_enabled"`

	// NotifyAdminsOnApproval controls whether admin/staff recipients are
	// notified when an abstract reaches approved.
	NotifyAdminsOnApproval bool `json:"notify_admins_on_approval"`

	// AdminRecipients lists the admin/staff user IDs to notify.
	AdminRecipients []uuid.UUID `json:"admin_recipients,omitempty"`

	// Submission window; abstract intake outside this window is rejected.
	SubmissionOpenAt  *time.Time `json:"submission_open_at,omitempty"`
	SubmissionCloseAt *time.Time `json:"submission_close_at,omitempty"`
}

// SubmissionOpen reports whether the event accepts new abstracts at the
// given instant. A nil bound is unbounded on that side.
func (c *EventConfig) SubmissionOpen(at time.Time) bool {
	if c.SubmissionOpenAt != nil && at.Before(*c.SubmissionOpenAt) {
		return false
	}
	if c.SubmissionCloseAt != nil && at.After(*c.SubmissionCloseAt) {
		return false
	}
	return true
}
