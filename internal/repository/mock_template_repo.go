package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// MockTemplateRepository is a hand-written, in-memory implementation of
// TemplateRepository used in unit tests.
type MockTemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*domain.Template

	CreateErr error
	UpdateErr error
}

func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{templates: make(map[string]*domain.Template)}
}

func (m *MockTemplateRepository) Create(_ context.Context, t *domain.Template) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *t
	m.templates[t.ID] = &clone
	return nil
}

func (m *MockTemplateRepository) GetByID(_ context.Context, accountID, id string) (*domain.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok || t.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *MockTemplateRepository) List(_ context.Context, accountID string, f domain.TemplateFilter) ([]*domain.Template, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*domain.Template
	for _, t := range m.templates {
		if t.AccountID == accountID {
			clone := *t
			all = append(all, &clone)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (f.Page - 1) * f.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MockTemplateRepository) Update(_ context.Context, t *domain.Template) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.templates[t.ID]
	if !ok || existing.AccountID != t.AccountID {
		return domain.ErrNotFound
	}
	clone := *t
	m.templates[t.ID] = &clone
	return nil
}

func (m *MockTemplateRepository) Delete(_ context.Context, accountID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

var _ TemplateRepository = (*MockTemplateRepository)(nil)
