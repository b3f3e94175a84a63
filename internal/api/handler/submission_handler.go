package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/sealdesk/sealdesk/internal/api/middleware"
	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/service"
)

// SubmissionHandler handles the authenticated submission endpoints.
type SubmissionHandler struct {
	svc    *service.SubmissionService
	logger *zap.Logger
}

func NewSubmissionHandler(svc *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, logger: logger}
}

type submissionResponse struct {
	Submission *domain.Submission  `json:"submission"`
	Submitters []*domain.Submitter `json:"submitters"`
}

// Create handles POST /api/v1/submissions
//
// @Summary  Start a signing workflow from a template
// @Tags     submissions
// @Accept   json
// @Produce  json
// @Param    body  body      domain.CreateSubmissionRequest  true  "Submission payload"
// @Success  201   {object}  submissionResponse
// @Failure  404   {object}  map[string]string
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/submissions [post]
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sub, submitters, err := h.svc.Create(r.Context(), apimw.GetAccountID(r.Context()), req)
	if err != nil {
		h.logger.Warn("create submission failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, submissionResponse{Submission: sub, Submitters: submitters})
}

// Get handles GET /api/v1/submissions/{id}
//
// @Summary  Get a submission and its submitters
// @Tags     submissions
// @Produce  json
// @Success  200  {object}  submissionResponse
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/submissions/{id} [get]
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, submitters, err := h.svc.Get(r.Context(), apimw.GetAccountID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, submissionResponse{Submission: sub, Submitters: submitters})
}

// List handles GET /api/v1/submissions
//
// @Summary  List submissions with filtering and pagination
// @Tags     submissions
// @Produce  json
// @Param    status  query     string  false  "Filter by status"
// @Param    page    query     int     false  "Page number (default 1)"
// @Param    limit   query     int     false  "Items per page (default 20, max 100)"
// @Success  200     {object}  map[string]any
// @Router   /api/v1/submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	f := domain.SubmissionFilter{Page: 1, Limit: 20}
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		f.Limit = l
	}
	if s := q.Get("status"); s != "" {
		st := domain.SubmissionStatus(s)
		f.Status = &st
	}

	submissions, total, err := h.svc.List(r.Context(), apimw.GetAccountID(r.Context()), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  submissions,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// Archive handles DELETE /api/v1/submissions/{id}
//
// @Summary  Archive a submission
// @Tags     submissions
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/submissions/{id} [delete]
func (h *SubmissionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Archive(r.Context(), apimw.GetAccountID(r.Context()), chi.URLParam(r, "id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
