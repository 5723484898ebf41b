package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/repository"
	"github.com/scicomm/abstract-review-service/internal/review"
)

// maxRequestBodySize bounds request bodies to 1 MB.
const maxRequestBodySize = 1 << 20

var validate = validator.New()

// decodeBody reads and unmarshals a bounded JSON request body into dst and
// runs struct validation on it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// abstractIDParam parses the {abstractID} URL parameter.
func abstractIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "abstractID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid abstract ID")
		return uuid.Nil, false
	}
	return id, true
}

// requestActor extracts the actor placed by actorMiddleware.
func requestActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity")
		return domain.Actor{}, false
	}
	return actor, true
}

// createAbstractRequest is the JSON request body for submitting an abstract.
type createAbstractRequest struct {
	EventID        string  `json:"event_id" validate:"required,uuid"`
	RegistrationID string  `json:"registration_id" validate:"required,uuid"`
	CategoryID     *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Title          string  `json:"title" validate:"required"`
	Content        string  `json:"content" validate:"required"`
}

// createAbstract handles POST /abstracts.
func (s *Server) createAbstract(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req createAbstractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := review.CreateAbstractInput{
		EventID:        uuid.MustParse(req.EventID),
		RegistrationID: uuid.MustParse(req.RegistrationID),
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		input.CategoryID = &categoryID
	}

	abstract, err := s.workflow.CreateAbstract(r.Context(), actor, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainAbstractToResponse(abstract))
}

// getAbstract handles GET /abstracts/{abstractID}.
func (s *Server) getAbstract(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	abstract, err := s.abstractRepo.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Authors see only their own abstracts; reviewers only assigned ones.
	// Authorization failures present as not-found so callers cannot probe
	// for existence.
	if !canViewAbstract(actor, abstract) {
		writeError(w, http.StatusNotFound, "abstract "+id.String()+": not found")
		return
	}

	writeJSON(w, http.StatusOK, domainAbstractToResponse(abstract))
}

// canViewAbstract applies the read-access policy for a single abstract.
func canViewAbstract(actor domain.Actor, abstract *domain.AbstractRecord) bool {
	if actor.IsElevated() {
		return true
	}
	if abstract.IsOwnedBy(actor.ID) {
		return true
	}
	return actor.Role == domain.RoleReviewer && abstract.HasReviewer(actor.ID)
}

// listAbstracts handles GET /abstracts with query-parameter filters.
func (s *Server) listAbstracts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	filter, ok := parseAbstractFilter(w, r)
	if !ok {
		return
	}

	// Non-elevated callers are scoped to their own slice of the data.
	switch {
	case actor.IsElevated():
	case actor.Role == domain.RoleReviewer:
		filter.ReviewerID = &actor.ID
	default:
		filter.RegistrationID = &actor.ID
	}

	abstracts, total, err := s.abstractRepo.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := listAbstractsResponse{
		Abstracts:  make([]abstractResponse, 0, len(abstracts)),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	for _, abstract := range abstracts {
		resp.Abstracts = append(resp.Abstracts, domainAbstractToResponse(abstract))
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseAbstractFilter builds a repository filter from query parameters.
func parseAbstractFilter(w http.ResponseWriter, r *http.Request) (repository.AbstractFilter, bool) {
	var filter repository.AbstractFilter
	q := r.URL.Query()

	if v := q.Get("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid event_id filter")
			return filter, false
		}
		filter.EventID = &id
	}
	if v := q.Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, domain.AbstractStatus(strings.TrimSpace(s)))
		}
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_after: expected RFC3339")
			return filter, false
		}
		filter.CreatedAfter = &t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_before: expected RFC3339")
			return filter, false
		}
		filter.CreatedBefore = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return filter, false
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return filter, false
		}
		filter.Offset = n
	}

	return filter, true
}

// assignReviewersRequest is the JSON request body for assigning reviewers.
type assignReviewersRequest struct {
	ReviewerIDs []string `json:"reviewer_ids" validate:"required,min=1,dive,uuid"`
}

// assignReviewers handles POST /abstracts/{abstractID}/reviewers.
func (s *Server) assignReviewers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	var req assignReviewersRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reviewerIDs := make([]uuid.UUID, 0, len(req.ReviewerIDs))
	for _, raw := range req.ReviewerIDs {
		reviewerIDs = append(reviewerIDs, uuid.MustParse(raw))
	}

	result, err := s.workflow.AssignReviewers(r.Context(), actor, id, reviewerIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAssignmentToResponse(result))
}

// submitReviewRequest is the JSON request body for submitting a review.
type submitReviewRequest struct {
	Score    *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=10"`
	Comments string   `json:"comments,omitempty"`
	Decision string   `json:"decision,omitempty"`
}

// submitReview handles POST /abstracts/{abstractID}/reviews.
func (s *Server) submitReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	var req submitReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	abstract, err := s.workflow.SubmitReview(r.Context(), actor, review.SubmitReviewInput{
		AbstractID: id,
		Score:      req.Score,
		Comments:   req.Comments,
		Decision:   domain.ReviewDecision(req.Decision),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAbstractToResponse(abstract))
}

// decideRequest is the JSON request body for approve/reject decisions.
type decideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// approveAbstract handles POST /abstracts/{abstractID}/approve.
func (s *Server) approveAbstract(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, s.workflow.ApproveAbstract)
}

// rejectAbstract handles POST /abstracts/{abstractID}/reject.
func (s *Server) rejectAbstract(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, s.workflow.RejectAbstract)
}

func (s *Server) decide(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor domain.Actor, input review.DecideInput) (*domain.AbstractRecord, error),
) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	var req decideRequest
	if !decodeBody(w, r, &req) {
		return
	}

	abstract, err := op(r.Context(), actor, review.DecideInput{
		AbstractID: id,
		Reason:     strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAbstractToResponse(abstract))
}

// requestRevisionRequest is the JSON request body for requesting a revision.
type requestRevisionRequest struct {
	Reason   string  `json:"reason" validate:"required"`
	Deadline *string `json:"deadline,omitempty"`
}

// requestRevision handles POST /abstracts/{abstractID}/request-revision.
func (s *Server) requestRevision(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	var req requestRevisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := review.RequestRevisionInput{
		AbstractID: id,
		Reason:     strings.TrimSpace(req.Reason),
	}
	if req.Deadline != nil {
		t, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline: expected RFC3339")
			return
		}
		input.Deadline = &t
	}

	abstract, err := s.workflow.RequestRevision(r.Context(), actor, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAbstractToResponse(abstract))
}

// resubmitRequest is the JSON request body for resubmitting a revised abstract.
type resubmitRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// resubmitRevision handles POST /abstracts/{abstractID}/resubmit.
func (s *Server) resubmitRevision(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := abstractIDParam(w, r)
	if !ok {
		return
	}

	var req resubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	abstract, err := s.workflow.ResubmitRevision(r.Context(), actor, review.ResubmitRevisionInput{
		AbstractID: id,
		Title:      strings.TrimSpace(req.Title),
		Content:    strings.TrimSpace(req.Content),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAbstractToResponse(abstract))
}
