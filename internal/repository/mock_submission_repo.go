package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// MockSubmissionRepository is a hand-written, in-memory implementation of
// SubmissionRepository used in unit tests.
type MockSubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]*domain.Submission
	submitters  map[string]*domain.Submitter

	// Optional error overrides — set in tests to simulate failure paths.
	FindCandidatesErr     error
	RecordReminderSentErr error
}

func NewMockSubmissionRepository() *MockSubmissionRepository {
	return &MockSubmissionRepository{
		submissions: make(map[string]*domain.Submission),
		submitters:  make(map[string]*domain.Submitter),
	}
}

func (m *MockSubmissionRepository) CreateWithSubmitters(_ context.Context, s *domain.Submission, submitters []*domain.Submitter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sClone := *s
	m.submissions[s.ID] = &sClone
	for _, sub := range submitters {
		clone := *sub
		m.submitters[sub.ID] = &clone
	}
	return nil
}

func (m *MockSubmissionRepository) GetByID(_ context.Context, accountID, id string) (*domain.Submission, []*domain.Submitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok || s.AccountID != accountID {
		return nil, nil, domain.ErrNotFound
	}
	sClone := *s
	var subs []*domain.Submitter
	for _, sub := range m.submitters {
		if sub.SubmissionID == id {
			clone := *sub
			subs = append(subs, &clone)
		}
	}
	return &sClone, subs, nil
}

func (m *MockSubmissionRepository) List(_ context.Context, accountID string, f domain.SubmissionFilter) ([]*domain.Submission, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Submission
	for _, s := range m.submissions {
		if s.AccountID != accountID {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		clone := *s
		result = append(result, &clone)
	}
	return result, len(result), nil
}

func (m *MockSubmissionRepository) Archive(_ context.Context, accountID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.AccountID != accountID {
		return domain.ErrNotFound
	}
	s.Status = domain.SubmissionArchived
	return nil
}

func (m *MockSubmissionRepository) GetSubmitterBySlug(_ context.Context, slug string) (*domain.Submitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.submitters {
		if sub.Slug == slug {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubmissionRepository) MarkSubmitterOpened(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.submitters[id]; ok && sub.Status == domain.SubmitterPending {
		sub.Status = domain.SubmitterOpened
	}
	return nil
}

func (m *MockSubmissionRepository) CompleteSubmitter(_ context.Context, id string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submitters[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := terminalTransitionErr(sub.Status); err != nil {
		return err
	}
	sub.Status = domain.SubmitterCompleted
	sub.CompletedAt = &completedAt

	allDone := true
	for _, other := range m.submitters {
		if other.SubmissionID == sub.SubmissionID && !other.Status.Terminal() {
			allDone = false
			break
		}
	}
	if allDone {
		if s, ok := m.submissions[sub.SubmissionID]; ok {
			s.Status = domain.SubmissionCompleted
		}
	}
	return nil
}

func (m *MockSubmissionRepository) DeclineSubmitter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submitters[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := terminalTransitionErr(sub.Status); err != nil {
		return err
	}
	sub.Status = domain.SubmitterDeclined
	return nil
}

// terminalTransitionErr mirrors the status guard on the SQL transitions:
// a submitter already in a terminal state rejects further transitions.
func terminalTransitionErr(status domain.SubmitterStatus) error {
	switch status {
	case domain.SubmitterCompleted:
		return domain.ErrAlreadyCompleted
	case domain.SubmitterDeclined:
		return domain.ErrAlreadyDeclined
	}
	return nil
}

func (m *MockSubmissionRepository) FindReminderCandidates(_ context.Context) ([]*domain.Submitter, error) {
	if m.FindCandidatesErr != nil {
		return nil, m.FindCandidatesErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Submitter
	for _, sub := range m.submitters {
		if sub.Status.Terminal() || sub.RemindersSent >= domain.MaxReminders || sub.Reminders == nil {
			continue
		}
		clone := *sub
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockSubmissionRepository) RecordReminderSent(_ context.Context, submitterID string, sentAt time.Time) error {
	if m.RecordReminderSentErr != nil {
		return m.RecordReminderSentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submitters[submitterID]
	if !ok || sub.RemindersSent >= domain.MaxReminders {
		return domain.ErrNotFound
	}
	sub.RemindersSent++
	ts := sentAt
	sub.LastReminderSentAt = &ts
	return nil
}

// Submitter returns a copy of the stored submitter for test assertions.
func (m *MockSubmissionRepository) Submitter(id string) (*domain.Submitter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submitters[id]
	if !ok {
		return nil, false
	}
	clone := *sub
	return &clone, true
}
