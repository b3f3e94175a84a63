package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/sealdesk/sealdesk/internal/api/middleware"
	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/service"
)

// AuthHandler handles registration, login, and password reset endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/v1/auth/register
//
// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      domain.RegisterRequest  true  "Registration payload"
// @Success  201   {object}  authResponse
// @Failure  409   {object}  map[string]string
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, tok, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.logger.Warn("registration failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{User: u, Token: tok})
}

// Login handles POST /api/v1/auth/login
//
// @Summary  Exchange credentials for a session token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      domain.LoginRequest  true  "Login payload"
// @Success  200   {object}  authResponse
// @Failure  401   {object}  map[string]string
// @Router   /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, tok, err := h.svc.Login(r.Context(), req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: u, Token: tok})
}

// ForgotPassword handles POST /api/v1/auth/password/forgot
//
// @Summary  Email a password reset code
// @Tags     auth
// @Accept   json
// @Success  202
// @Router   /api/v1/auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Warn("forgot password failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "could not send reset email")
		return
	}
	// Always 202: the response must not reveal whether the email exists.
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword handles POST /api/v1/auth/password/reset
//
// @Summary  Redeem a reset code for a new password
// @Tags     auth
// @Accept   json
// @Success  204
// @Failure  401  {object}  map[string]string
// @Router   /api/v1/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
