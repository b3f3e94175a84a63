package domain

import "time"

// PaymentKind labels what a payment record charges for.
type PaymentKind string

const (
	PaymentSignatureCompleted PaymentKind = "signature_completed"
	PaymentSubmissionCreated  PaymentKind = "submission_created"
	PaymentSubscriptionCycle  PaymentKind = "subscription_cycle"
)

// Payment is a usage charge waiting to be persisted. It has no identity until
// the batch processor writes it; ownership passes from the queue to exactly
// one processing goroutine per attempt.
type Payment struct {
	AccountID    string      `json:"account_id"`
	SubmissionID string      `json:"submission_id,omitempty"`
	Kind         PaymentKind `json:"kind"`
	AmountCents  int64       `json:"amount_cents"`
	Currency     string      `json:"currency"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// SubscriptionStatus mirrors the billing provider's subscription state.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription is the locally tracked copy of a billing provider subscription,
// upserted from webhook events. The provider remains the source of truth.
type Subscription struct {
	AccountID        string             `json:"account_id"`
	CustomerID       string             `json:"customer_id"`
	Plan             string             `json:"plan"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd time.Time          `json:"current_period_end"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
