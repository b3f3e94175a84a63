package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/sealdesk/sealdesk/internal/api/middleware"
	"github.com/sealdesk/sealdesk/internal/billing"
)

// BillingHandler receives billing provider webhooks. The raw body is read
// before any decoding because the signature covers the exact bytes sent.
type BillingHandler struct {
	processor *billing.WebhookProcessor
	logger    *zap.Logger
}

func NewBillingHandler(processor *billing.WebhookProcessor, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{processor: processor, logger: logger}
}

// Webhook handles POST /api/v1/webhooks/billing
//
// @Summary  Receive a billing provider webhook
// @Tags     billing
// @Accept   json
// @Param    Billing-Signature  header  string  true  "t=<unix>,v1=<hmac-sha256>"
// @Success  200
// @Failure  400  {object}  map[string]string
// @Router   /api/v1/webhooks/billing [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.processor.Process(r.Context(), payload, r.Header.Get("Billing-Signature")); err != nil {
		h.logger.Warn("billing webhook rejected",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
