package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/service"
)

// SigningHandler serves the public, unauthenticated signer endpoints.
// The slug in the URL is the signer's only credential.
type SigningHandler struct {
	svc    *service.SubmissionService
	logger *zap.Logger
}

func NewSigningHandler(svc *service.SubmissionService, logger *zap.Logger) *SigningHandler {
	return &SigningHandler{svc: svc, logger: logger}
}

// Open handles GET /sign/{slug}
//
// @Summary  Open a signing request
// @Tags     signing
// @Produce  json
// @Success  200  {object}  domain.Submitter
// @Failure  404  {object}  map[string]string
// @Router   /sign/{slug} [get]
func (h *SigningHandler) Open(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.OpenBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Complete handles POST /sign/{slug}/complete
//
// @Summary  Complete a signing request
// @Tags     signing
// @Produce  json
// @Success  200  {object}  domain.Submitter
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /sign/{slug}/complete [post]
func (h *SigningHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.Complete(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		mapError(w, err)
		return
	}
	h.logger.Info("public signing completed", zap.String("submitter_id", sub.ID))
	respondJSON(w, http.StatusOK, sub)
}

// Decline handles POST /sign/{slug}/decline
//
// @Summary  Decline a signing request
// @Tags     signing
// @Produce  json
// @Success  200  {object}  domain.Submitter
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /sign/{slug}/decline [post]
func (h *SigningHandler) Decline(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.Decline(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
