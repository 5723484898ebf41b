package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
)

// createReviewerRequest is the JSON request body for registering a reviewer.
type createReviewerRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Active *bool  `json:"active,omitempty"`
}

// createReviewer handles POST /reviewers.
func (s *Server) createReviewer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	if !actor.IsElevated() {
		writeError(w, http.StatusForbidden, "admin or staff role required")
		return
	}

	var req createReviewerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	reviewer := &domain.Reviewer{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Active != nil {
		reviewer.Active = *req.Active
	}

	if err := s.reviewerRepo.Create(r.Context(), reviewer); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainReviewerToResponse(reviewer))
}

// listReviewers handles GET /reviewers, ordered by ascending workload so the
// least-loaded reviewers come first.
func (s *Server) listReviewers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	if !actor.IsElevated() {
		writeError(w, http.StatusForbidden, "admin or staff role required")
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"

	reviewers, err := s.reviewerRepo.List(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]reviewerResponse, 0, len(reviewers))
	for _, reviewer := range reviewers {
		resp = append(resp, domainReviewerToResponse(reviewer))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reviewers":   resp,
		"total_count": len(resp),
	})
}

// createEventRequest is the JSON request body for registering an event.
type createEventRequest struct {
	Name                   string   `json:"name" validate:"required"`
	NotifyEnabled          *bool    `json:"notify_enabled,omitempty"`
	NotifyAdminsOnApproval bool     `json:"notify_admins_on_approval,omitempty"`
	AdminRecipients        []string `json:"admin_recipients,omitempty" validate:"omitempty,dive,uuid"`
	SubmissionOpenAt       *string  `json:"submission_open_at,omitempty"`
	SubmissionCloseAt      *string  `json:"submission_close_at,omitempty"`
}

// createEvent handles POST /events.
func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	if !actor.IsElevated() {
		writeError(w, http.StatusForbidden, "admin or staff role required")
		return
	}

	var req createEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event := &domain.EventConfig{
		ID:                     uuid.New(),
		Name:                   strings.TrimSpace(req.Name),
		NotifyEnabled:          true,
		NotifyAdminsOnApproval: req.NotifyAdminsOnApproval,
	}
	if req.NotifyEnabled != nil {
		event.NotifyEnabled = *req.NotifyEnabled
	}
	for _, raw := range req.AdminRecipients {
		event.AdminRecipients = append(event.AdminRecipients, uuid.MustParse(raw))
	}
	if req.SubmissionOpenAt != nil {
		t, err := time.Parse(time.RFC3339, *req.SubmissionOpenAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid submission_open_at: expected RFC3339")
			return
		}
		event.SubmissionOpenAt = &t
	}
	if req.SubmissionCloseAt != nil {
		t, err := time.Parse(time.RFC3339, *req.SubmissionCloseAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid submission_close_at: expected RFC3339")
			return
		}
		event.SubmissionCloseAt = &t
	}

	if err := s.eventRepo.Create(r.Context(), event); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainEventToResponse(event))
}

// getEvent handles GET /events/{eventID}.
func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	event, err := s.eventRepo.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEventToResponse(event))
}
