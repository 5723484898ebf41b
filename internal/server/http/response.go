package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/review"
)

// Response types for JSON serialization.

type reviewEntryResponse struct {
	ReviewerID string    `json:"reviewer_id"`
	Score      *float64  `json:"score,omitempty"`
	Comments   string    `json:"comments,omitempty"`
	Decision   string    `json:"decision"`
	IsComplete bool      `json:"is_complete"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

type abstractResponse struct {
	ID                string                `json:"id"`
	EventID           string                `json:"event_id"`
	RegistrationID    string                `json:"registration_id"`
	CategoryID        string                `json:"category_id,omitempty"`
	Title             string                `json:"title"`
	Content           string                `json:"content"`
	WordCount         int                   `json:"word_count"`
	Status            string                `json:"status"`
	AssignedReviewers []string              `json:"assigned_reviewers"`
	Reviews           []reviewEntryResponse `json:"reviews"`
	AverageScore      *float64              `json:"average_score,omitempty"`
	FinalDecision     string                `json:"final_decision,omitempty"`
	DecisionBy        string                `json:"decision_by,omitempty"`
	DecisionDate      *time.Time            `json:"decision_date,omitempty"`
	DecisionReason    string                `json:"decision_reason,omitempty"`
	RevisionDeadline  *time.Time            `json:"revision_deadline,omitempty"`
	Version           int                   `json:"version"`
	SubmittedAt       *time.Time            `json:"submitted_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

type listAbstractsResponse struct {
	Abstracts  []abstractResponse `json:"abstracts"`
	TotalCount int64              `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

type assignmentResponse struct {
	NewlyAssigned   []string `json:"newly_assigned"`
	AlreadyAssigned []string `json:"already_assigned"`
	Invalid         []string `json:"invalid"`
	Status          string   `json:"status"`
}

type reviewerResponse struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Active                 bool      `json:"active"`
	AssignedAbstractsCount int       `json:"assigned_abstracts_count"`
	CreatedAt              time.Time `json:"created_at"`
}

type eventResponse struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	NotifyEnabled          bool       `json:"notify_enabled"`
	NotifyAdminsOnApproval bool       `json:"notify_admins_on_approval"`
	AdminRecipients        []string   `json:"admin_recipients"`
	SubmissionOpenAt       *time.Time `json:"submission_open_at,omitempty"`
	SubmissionCloseAt      *time.Time `json:"submission_close_at,omitempty"`
}

// Converter functions

func domainAbstractToResponse(a *domain.AbstractRecord) abstractResponse {
	resp := abstractResponse{
		ID:                a.ID.String(),
		EventID:           a.EventID.String(),
		RegistrationID:    a.RegistrationID.String(),
		Title:             a.Title,
		Content:           a.Content,
		WordCount:         a.WordCount,
		Status:            string(a.Status),
		AssignedReviewers: uuidsToStrings(a.AssignedReviewers),
		Reviews:           make([]reviewEntryResponse, 0, len(a.Reviews)),
		AverageScore:      a.AverageScore,
		FinalDecision:     string(a.FinalDecision),
		DecisionDate:      a.DecisionDate,
		DecisionReason:    a.DecisionReason,
		RevisionDeadline:  a.RevisionDeadline,
		Version:           a.Version,
		SubmittedAt:       a.SubmittedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.CategoryID != nil {
		resp.CategoryID = a.CategoryID.String()
	}
	if a.DecisionBy != nil {
		resp.DecisionBy = a.DecisionBy.String()
	}
	for _, entry := range a.Reviews {
		resp.Reviews = append(resp.Reviews, reviewEntryResponse{
			ReviewerID: entry.ReviewerID.String(),
			Score:      entry.Score,
			Comments:   entry.Comments,
			Decision:   string(entry.Decision),
			IsComplete: entry.IsComplete,
			ReviewedAt: entry.ReviewedAt,
		})
	}
	return resp
}

func domainAssignmentToResponse(r *review.AssignmentResult) assignmentResponse {
	return assignmentResponse{
		NewlyAssigned:   uuidsToStrings(r.NewlyAssigned),
		AlreadyAssigned: uuidsToStrings(r.AlreadyAssigned),
		Invalid:         uuidsToStrings(r.Invalid),
		Status:          string(r.Status),
	}
}

func domainReviewerToResponse(r *domain.Reviewer) reviewerResponse {
	return reviewerResponse{
		ID:                     r.ID.String(),
		Name:                   r.Name,
		Email:                  r.Email,
		Active:                 r.Active,
		AssignedAbstractsCount: r.AssignedAbstractsCount,
		CreatedAt:              r.CreatedAt,
	}
}

func domainEventToResponse(e *domain.EventConfig) eventResponse {
	return eventResponse{
		ID:                     e.ID.String(),
		Name:                   e.Name,
		NotifyEnabled:          e.NotifyEnabled,
		NotifyAdminsOnApproval: e.NotifyAdminsOnApproval,
		AdminRecipients:        uuidsToStrings(e.AdminRecipients),
		SubmissionOpenAt:       e.SubmissionOpenAt,
		SubmissionCloseAt:      e.SubmissionCloseAt,
	}
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// writeDomainError maps domain errors to HTTP status codes and writes the
// JSON error body. It preserves the original error message.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrDependency):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
