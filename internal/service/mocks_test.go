package service_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/storage"
)

// mockMailer records every email the services try to send.
type mockMailer struct {
	mu          sync.Mutex
	invitations []string // submitter IDs
	reminders   []string
	resetCodes  map[string]string // email -> last OTP code
	sendErr     error
}

func newMockMailer() *mockMailer {
	return &mockMailer{resetCodes: make(map[string]string)}
}

func (m *mockMailer) SendInvitation(_ context.Context, sub *domain.Submitter, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.invitations = append(m.invitations, sub.ID)
	return nil
}

func (m *mockMailer) SendReminder(_ context.Context, sub *domain.Submitter, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.reminders = append(m.reminders, sub.ID)
	return nil
}

func (m *mockMailer) SendPasswordReset(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.resetCodes[email] = code
	return nil
}

func (m *mockMailer) invitationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invitations)
}

func (m *mockMailer) resetCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCodes[email]
}

// mockStorage keeps blobs in a map.
type mockStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{blobs: make(map[string][]byte)}
}

func (m *mockStorage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *mockStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}
