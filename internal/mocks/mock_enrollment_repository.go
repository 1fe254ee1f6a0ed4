package mocks

import (
	"context"
	"sync"

	"github.com/you/bankauth/domain"
)

// MockEnrollmentRepository implements domain.EnrollmentRepository for testing.
// Without overrides it behaves as an in-memory store.
type MockEnrollmentRepository struct {
	AddFunc           func(ctx context.Context, enrollment *domain.MFAEnrollment) error
	RemoveFunc        func(ctx context.Context, accountID uint, method domain.MFAMethod) error
	ListByAccountFunc func(ctx context.Context, accountID uint) ([]*domain.MFAEnrollment, error)
	IsEnrolledFunc    func(ctx context.Context, accountID uint, method domain.MFAMethod) (bool, error)

	mu      sync.Mutex
	entries []*domain.MFAEnrollment
}

// NewMockEnrollmentRepository creates a new MockEnrollmentRepository with default behaviors
func NewMockEnrollmentRepository() *MockEnrollmentRepository {
	return &MockEnrollmentRepository{}
}

func (m *MockEnrollmentRepository) Add(ctx context.Context, enrollment *domain.MFAEnrollment) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, enrollment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.AccountID == enrollment.AccountID && e.Method == enrollment.Method {
			return domain.ErrMethodEnrolled
		}
	}
	m.entries = append(m.entries, enrollment)
	return nil
}

func (m *MockEnrollmentRepository) Remove(ctx context.Context, accountID uint, method domain.MFAMethod) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, accountID, method)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.AccountID == accountID && e.Method == method {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrMethodNotEnrolled
}

func (m *MockEnrollmentRepository) ListByAccount(ctx context.Context, accountID uint) ([]*domain.MFAEnrollment, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.MFAEnrollment
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEnrollmentRepository) IsEnrolled(ctx context.Context, accountID uint, method domain.MFAMethod) (bool, error) {
	if m.IsEnrolledFunc != nil {
		return m.IsEnrolledFunc(ctx, accountID, method)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.AccountID == accountID && e.Method == method {
			return true, nil
		}
	}
	return false, nil
}
