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

// maxDocumentBytes caps uploaded source documents at 20 MB.
const maxDocumentBytes = 20 << 20

// TemplateHandler handles template CRUD and document upload endpoints.
// All routes sit behind the auth middleware; the account ID comes from
// the request context.
type TemplateHandler struct {
	svc    *service.TemplateService
	logger *zap.Logger
}

func NewTemplateHandler(svc *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/templates
//
// @Summary  Create a template
// @Tags     templates
// @Accept   json
// @Produce  json
// @Param    body  body      domain.SaveTemplateRequest  true  "Template payload"
// @Success  201   {object}  domain.Template
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := h.svc.Create(r.Context(), apimw.GetAccountID(r.Context()), req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/templates/{id}
//
// @Summary  Get a template by ID
// @Tags     templates
// @Produce  json
// @Success  200  {object}  domain.Template
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/templates/{id} [get]
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), apimw.GetAccountID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// List handles GET /api/v1/templates
//
// @Summary  List templates with pagination
// @Tags     templates
// @Produce  json
// @Param    page   query     int  false  "Page number (default 1)"
// @Param    limit  query     int  false  "Items per page (default 20, max 100)"
// @Success  200    {object}  map[string]any
// @Router   /api/v1/templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	f := domain.TemplateFilter{Page: 1, Limit: 20}
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		f.Limit = l
	}

	templates, total, err := h.svc.List(r.Context(), apimw.GetAccountID(r.Context()), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  templates,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// Update handles PUT /api/v1/templates/{id}
//
// @Summary  Update a template
// @Tags     templates
// @Accept   json
// @Produce  json
// @Success  200  {object}  domain.Template
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := h.svc.Update(r.Context(), apimw.GetAccountID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/templates/{id}
//
// @Summary  Delete a template and its stored document
// @Tags     templates
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/templates/{id} [delete]
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), apimw.GetAccountID(r.Context()), chi.URLParam(r, "id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadDocument handles POST /api/v1/templates/documents
//
// @Summary  Upload a source document
// @Tags     templates
// @Accept   multipart/form-data
// @Produce  json
// @Param    document  formData  file  true  "PDF document"
// @Success  201       {object}  map[string]string
// @Router   /api/v1/templates/documents [post]
func (h *TemplateHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		respondError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	key, err := h.svc.UploadDocument(
		r.Context(),
		apimw.GetAccountID(r.Context()),
		header.Filename,
		file,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		h.logger.Warn("document upload failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"document_key": key})
}
