package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/repository"
)

// Signature verification follows the Stripe scheme: the header carries a unix
// timestamp and an HMAC-SHA256 over "timestamp.payload", hex encoded.
//
//	Billing-Signature: t=1712345678,v1=5257a869e7...
const signatureMaxAge = 5 * time.Minute

// Event is the provider's webhook envelope. Data holds the event-specific
// object as raw JSON.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubscriptionEvent is the Data payload of subscription lifecycle events.
type SubscriptionEvent struct {
	AccountID        string `json:"account_id"`
	CustomerID       string `json:"customer_id"`
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// WebhookProcessor verifies and applies billing provider webhooks.
type WebhookProcessor struct {
	subscriptions repository.SubscriptionRepository
	secret        string
	logger        *zap.Logger
	now           func() time.Time
}

func NewWebhookProcessor(subscriptions repository.SubscriptionRepository, secret string, logger *zap.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		subscriptions: subscriptions,
		secret:        secret,
		logger:        logger,
		now:           time.Now,
	}
}

// Process verifies the signature header against the raw payload and applies
// the event. Unknown event types are acknowledged and skipped so the provider
// does not retry them forever.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, sigHeader string) error {
	if err := p.verify(payload, sigHeader); err != nil {
		return err
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	switch ev.Type {
	case "subscription.created", "subscription.updated", "subscription.canceled":
		return p.applySubscription(ctx, ev)
	default:
		p.logger.Debug("ignoring webhook event", zap.String("type", ev.Type), zap.String("id", ev.ID))
		return nil
	}
}

func (p *WebhookProcessor) applySubscription(ctx context.Context, ev Event) error {
	var se SubscriptionEvent
	if err := json.Unmarshal(ev.Data, &se); err != nil {
		return fmt.Errorf("decode %s event: %w", ev.Type, err)
	}
	if se.AccountID == "" {
		return fmt.Errorf("%s event without account_id", ev.Type)
	}

	status := domain.SubscriptionStatus(se.Status)
	if ev.Type == "subscription.canceled" {
		status = domain.SubscriptionCanceled
	}

	sub := &domain.Subscription{
		AccountID:        se.AccountID,
		CustomerID:       se.CustomerID,
		Plan:             se.Plan,
		Status:           status,
		CurrentPeriodEnd: time.Unix(se.CurrentPeriodEnd, 0).UTC(),
		UpdatedAt:        p.now().UTC(),
	}
	if err := p.subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	p.logger.Info("subscription updated from webhook",
		zap.String("account_id", se.AccountID),
		zap.String("status", string(status)))
	return nil
}

// verify checks the timestamp window and recomputes the HMAC with a
// constant-time comparison. All failures map to ErrInvalidSignature.
func (p *WebhookProcessor) verify(payload []byte, sigHeader string) error {
	ts, sig, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}

	age := p.now().Sub(time.Unix(ts, 0))
	if age > signatureMaxAge || age < -time.Minute {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	if !hmac.Equal([]byte(computeSignature(p.secret, ts, payload)), []byte(sig)) {
		return fmt.Errorf("%w: digest mismatch", domain.ErrInvalidSignature)
	}
	return nil
}

func computeSignature(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", ts, payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignPayload produces a header value Process will accept. Used by tests and
// by the local development event simulator.
func SignPayload(secret string, ts int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(secret, ts, payload))
}

func parseSignatureHeader(header string) (ts int64, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: bad timestamp", domain.ErrInvalidSignature)
			}
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", fmt.Errorf("%w: missing header fields", domain.ErrInvalidSignature)
	}
	return ts, sig, nil
}
