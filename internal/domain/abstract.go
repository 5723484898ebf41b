// Package domain provides domain models and business logic for the Abstract Review Service.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AbstractStatus represents the lifecycle states of a conference abstract.
// These values must match the database enum abstract_status.
type AbstractStatus string

const (
	StatusDraft                AbstractStatus = "draft"
	StatusSubmitted            AbstractStatus = "submitted"
	StatusUnderReview          AbstractStatus = "under-review"
	StatusRevisionRequested    AbstractStatus = "revision-requested"
	StatusRevisedPendingReview AbstractStatus = "revised-pending-review"
	StatusApproved             AbstractStatus = "approved"
	StatusRejected             AbstractStatus = "rejected"
)

// IsValidStatus reports whether s is a known abstract status.
func IsValidStatus(s AbstractStatus) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusRevisionRequested,
		StatusRevisedPendingReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsDecided returns true if the status is an explicit accept/reject outcome.
// Decided statuses are not terminal: an admin override can still move the
// abstract back into the review cycle.
func (s AbstractStatus) IsDecided() bool {
	return s == StatusApproved || s == StatusRejected
}

// AwaitingReviewers returns true if assigning the first reviewer should
// auto-advance the abstract to under-review.
func (s AbstractStatus) AwaitingReviewers() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusRevisedPendingReview:
		return true
	default:
		return false
	}
}

// ReviewDecision represents an individual reviewer's verdict on an abstract.
// These values are stored inside the reviews jsonb column.
type ReviewDecision string

const (
	DecisionAccept    ReviewDecision = "accept"
	DecisionReject    ReviewDecision = "reject"
	DecisionRevise    ReviewDecision = "revise"
	DecisionUndecided ReviewDecision = "undecided"
)

// IsValidDecision reports whether d is a known review decision.
func IsValidDecision(d ReviewDecision) bool {
	switch d {
	case DecisionAccept, DecisionReject, DecisionRevise, DecisionUndecided:
		return true
	default:
		return false
	}
}

// ReviewEntry is one reviewer's review of an abstract. An abstract holds at
// most one active entry per reviewer; resubmitting a review updates the
// existing entry in place.
type ReviewEntry struct {
	ReviewerID uuid.UUID      `json:"reviewer_id"`
	Score      *float64       `json:"score,omitempty"`
	Comments   string         `json:"comments,omitempty"`
	Decision   ReviewDecision `json:"decision"`
	IsComplete bool           `json:"is_complete"`
	ReviewedAt time.Time      `json:"reviewed_at"`
}

// AbstractRecord is the persisted state of one conference abstract submission.
// Status is the single source of truth for downstream consumers; it moves
// through the review lifecycle driven by assignment, review submission and
// revision operations.
type AbstractRecord struct {
	ID uuid.UUID `json:"id"`

	// Foreign references, immutable after creation except by admin correction.
	EventID        uuid.UUID  `json:"event_id"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`

	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`

	Status AbstractStatus `json:"status"`

	// AssignedReviewers is a set: a reviewer appears at most once.
	AssignedReviewers []uuid.UUID `json:"assigned_reviewers"`

	// Reviews holds at most one active entry per reviewer.
	Reviews []ReviewEntry `json:"reviews"`

	// AverageScore is derived from Reviews; nil when no scored review exists.
	AverageScore *float64 `json:"average_score,omitempty"`

	// Final decision fields are set only by explicit admin actions,
	// independent of individual reviewer decisions.
	FinalDecision  AbstractStatus `json:"final_decision,omitempty"`
	DecisionBy     *uuid.UUID     `json:"decision_by,omitempty"`
	DecisionDate   *time.Time     `json:"decision_date,omitempty"`
	DecisionReason string         `json:"decision_reason,omitempty"`

	// RevisionDeadline gates author resubmission when set.
	RevisionDeadline *time.Time `json:"revision_deadline,omitempty"`

	// Version supports optimistic concurrency; incremented on every save.
	Version int `json:"version"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasReviewer reports whether the reviewer is in the assigned set.
func (a *AbstractRecord) HasReviewer(reviewerID uuid.UUID) bool {
	for _, id := range a.AssignedReviewers {
		if id == reviewerID {
			return true
		}
	}
	return false
}

// ReviewBy returns the review entry for the given reviewer, or nil.
func (a *AbstractRecord) ReviewBy(reviewerID uuid.UUID) *ReviewEntry {
	for i := range a.Reviews {
		if a.Reviews[i].ReviewerID == reviewerID {
			return &a.Reviews[i]
		}
	}
	return nil
}

// UpsertReview updates the reviewer's existing entry in place, or appends a
// new one. The entry's reviewer ID must be set by the caller.
func (a *AbstractRecord) UpsertReview(entry ReviewEntry) {
	for i := range a.Reviews {
		if a.Reviews[i].ReviewerID == entry.ReviewerID {
			a.Reviews[i] = entry
			return
		}
	}
	a.Reviews = append(a.Reviews, entry)
}

// IsOwnedBy reports whether the abstract belongs to the given registration.
func (a *AbstractRecord) IsOwnedBy(registrationID uuid.UUID) bool {
	return a.RegistrationID == registrationID
}

// CountWords derives the word count of abstract content by whitespace
// splitting.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// Role is the role an actor holds when calling a workflow operation.
// Authentication itself is an external collaborator; the transport layer
// hands the workflow an already-authenticated actor.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleReviewer Role = "reviewer"
	RoleAuthor   Role = "author"
)

// Actor identifies the authenticated caller of a workflow operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsElevated reports whether the actor holds admin or staff privilege.
func (a Actor) IsElevated() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}
