package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// MockPaymentRepository records inserted payments in memory. FailFor lets
// tests fail persistence for selected items to exercise isolation paths.
type MockPaymentRepository struct {
	mu       sync.Mutex
	inserted []domain.Payment

	// FailFor, when set, is consulted per item; a non-nil return fails
	// that insert only.
	FailFor func(p domain.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) Insert(_ context.Context, p domain.Payment) (string, error) {
	if m.FailFor != nil {
		if err := m.FailFor(p); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, p)
	return uuid.New().String(), nil
}

// Inserted returns a copy of all successfully persisted payments.
func (m *MockPaymentRepository) Inserted() []domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Payment, len(m.inserted))
	copy(out, m.inserted)
	return out
}
