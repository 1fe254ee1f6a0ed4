package mocks

import (
	"context"

	"github.com/you/bankauth/domain"
)

// MockSessionRegistry implements domain.SessionRegistry for testing
type MockSessionRegistry struct {
	CreateFunc          func(ctx context.Context, accountID uint, device, origin string) (*domain.Session, error)
	FindByIDFunc        func(ctx context.Context, sessionID string) (*domain.Session, error)
	ListFunc            func(ctx context.Context, accountID uint, currentSessionID string) ([]*domain.Session, error)
	TouchFunc           func(ctx context.Context, sessionID string) error
	RevokeFunc          func(ctx context.Context, sessionID, currentSessionID string) error
	RevokeAllExceptFunc func(ctx context.Context, accountID uint, currentSessionID string) (int, error)
	DeleteFunc          func(ctx context.Context, sessionID string) error
}

// NewMockSessionRegistry creates a new MockSessionRegistry with default behaviors
func NewMockSessionRegistry() *MockSessionRegistry {
	return &MockSessionRegistry{}
}

func (m *MockSessionRegistry) Create(ctx context.Context, accountID uint, device, origin string) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, accountID, device, origin)
	}
	return &domain.Session{ID: "mock_session", AccountID: accountID, Device: device, Origin: origin}, nil
}

func (m *MockSessionRegistry) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRegistry) List(ctx context.Context, accountID uint, currentSessionID string) ([]*domain.Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, accountID, currentSessionID)
	}
	return nil, nil
}

func (m *MockSessionRegistry) Touch(ctx context.Context, sessionID string) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockSessionRegistry) Revoke(ctx context.Context, sessionID, currentSessionID string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, sessionID, currentSessionID)
	}
	return nil
}

func (m *MockSessionRegistry) RevokeAllExcept(ctx context.Context, accountID uint, currentSessionID string) (int, error) {
	if m.RevokeAllExceptFunc != nil {
		return m.RevokeAllExceptFunc(ctx, accountID, currentSessionID)
	}
	return 0, nil
}

func (m *MockSessionRegistry) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}
