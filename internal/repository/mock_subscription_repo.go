package repository

import (
	"context"
	"sync"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// MockSubscriptionRepository is a hand-written, in-memory implementation of
// SubscriptionRepository used in unit tests.
type MockSubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]*domain.Subscription

	UpsertErr error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{subs: make(map[string]*domain.Subscription)}
}

func (m *MockSubscriptionRepository) Upsert(_ context.Context, s *domain.Subscription) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.subs[s.AccountID] = &clone
	return nil
}

func (m *MockSubscriptionRepository) GetByAccountID(_ context.Context, accountID string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

var _ SubscriptionRepository = (*MockSubscriptionRepository)(nil)
