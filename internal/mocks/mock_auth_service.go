package mocks

import (
	"context"

	"github.com/you/bankauth/domain"
)

// MockAuthService implements domain.AuthService for testing
type MockAuthService struct {
	LoginFunc        func(ctx context.Context, email string, cred domain.Credential, device, origin string) (*domain.AuthResult, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	LogoutFunc       func(ctx context.Context, sessionID string) error
	GetProfileFunc   func(ctx context.Context, accountID uint) (*domain.Account, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Login(ctx context.Context, email string, cred domain.Credential, device, origin string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, cred, device, origin)
	}
	return &domain.AuthResult{
		Account:      &domain.Account{ID: 1, Email: email, Role: "customer", IsActive: true},
		AccessToken:  "mock_access_token",
		RefreshToken: "mock_refresh_token",
		SessionID:    "mock_session",
		ExpiresIn:    900,
	}, nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return &domain.AuthResult{AccessToken: "mock_access_token", ExpiresIn: 900}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockAuthService) GetProfile(ctx context.Context, accountID uint) (*domain.Account, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, accountID)
	}
	return &domain.Account{ID: accountID, Email: "user@example.com", Role: "customer", IsActive: true}, nil
}
