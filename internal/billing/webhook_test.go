package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/repository"
)

const webhookSecret = "whsec_test"

func newProcessor(repo *repository.MockSubscriptionRepository, now time.Time) *WebhookProcessor {
	p := NewWebhookProcessor(repo, webhookSecret, zap.NewNop())
	p.now = func() time.Time { return now }
	return p
}

func subscriptionPayload(t *testing.T, typ string, se SubscriptionEvent) []byte {
	t.Helper()
	data, err := json.Marshal(se)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(Event{ID: "evt_1", Type: typ, Data: data})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func TestWebhookProcessor_SubscriptionUpsert(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := repository.NewMockSubscriptionRepository()
	p := newProcessor(repo, now)

	periodEnd := now.Add(30 * 24 * time.Hour)
	payload := subscriptionPayload(t, "subscription.created", SubscriptionEvent{
		AccountID:        "acc-1",
		CustomerID:       "cus_9",
		Plan:             "pro",
		Status:           "active",
		CurrentPeriodEnd: periodEnd.Unix(),
	})

	sig := SignPayload(webhookSecret, now.Unix(), payload)
	if err := p.Process(context.Background(), payload, sig); err != nil {
		t.Fatalf("Process: %v", err)
	}

	sub, err := repo.GetByAccountID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("GetByAccountID: %v", err)
	}
	if sub.Status != domain.SubscriptionActive || sub.Plan != "pro" {
		t.Fatalf("subscription = %+v", sub)
	}
	if !sub.CurrentPeriodEnd.Equal(periodEnd.UTC().Truncate(time.Second)) {
		t.Fatalf("period end = %v, want %v", sub.CurrentPeriodEnd, periodEnd)
	}
}

func TestWebhookProcessor_CancellationOverridesStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := repository.NewMockSubscriptionRepository()
	p := newProcessor(repo, now)

	payload := subscriptionPayload(t, "subscription.canceled", SubscriptionEvent{
		AccountID: "acc-1",
		Status:    "active", // stale status in the event body
	})
	sig := SignPayload(webhookSecret, now.Unix(), payload)
	if err := p.Process(context.Background(), payload, sig); err != nil {
		t.Fatalf("Process: %v", err)
	}

	sub, err := repo.GetByAccountID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("GetByAccountID: %v", err)
	}
	if sub.Status != domain.SubscriptionCanceled {
		t.Fatalf("status = %s, want canceled", sub.Status)
	}
}

func TestWebhookProcessor_RejectsBadSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := repository.NewMockSubscriptionRepository()
	p := newProcessor(repo, now)

	payload := subscriptionPayload(t, "subscription.created", SubscriptionEvent{AccountID: "acc-1"})

	cases := map[string]string{
		"wrong secret":   SignPayload("whsec_other", now.Unix(), payload),
		"stale":          SignPayload(webhookSecret, now.Add(-10*time.Minute).Unix(), payload),
		"future":         SignPayload(webhookSecret, now.Add(5*time.Minute).Unix(), payload),
		"malformed":      "t=abc,v1=def",
		"missing fields": "v1=deadbeef",
		"empty":          "",
	}
	for name, sig := range cases {
		if err := p.Process(context.Background(), payload, sig); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%s: err = %v, want ErrInvalidSignature", name, err)
		}
	}

	if _, err := repo.GetByAccountID(context.Background(), "acc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected webhook must not write: err = %v", err)
	}
}

func TestWebhookProcessor_RejectsTamperedPayload(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := newProcessor(repository.NewMockSubscriptionRepository(), now)

	payload := subscriptionPayload(t, "subscription.created", SubscriptionEvent{AccountID: "acc-1"})
	sig := SignPayload(webhookSecret, now.Unix(), payload)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] ^= 0x01

	if err := p.Process(context.Background(), tampered, sig); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestWebhookProcessor_UnknownEventAcknowledged(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := newProcessor(repository.NewMockSubscriptionRepository(), now)

	payload, _ := json.Marshal(Event{ID: "evt_2", Type: "invoice.paid", Data: []byte(`{}`)})
	sig := SignPayload(webhookSecret, now.Unix(), payload)

	if err := p.Process(context.Background(), payload, sig); err != nil {
		t.Fatalf("unknown event type should be acknowledged: %v", err)
	}
}
