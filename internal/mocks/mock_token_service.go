package mocks

import (
	"fmt"

	"github.com/you/bankauth/domain"
)

// MockTokenService implements domain.TokenService for testing
type MockTokenService struct {
	GenerateAccessTokenFunc  func(accountID uint, role string, sessionID string) (string, error)
	GenerateRefreshTokenFunc func(accountID uint, role string, sessionID string) (string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) GenerateAccessToken(accountID uint, role string, sessionID string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(accountID, role, sessionID)
	}
	return fmt.Sprintf("access_token_%d_%s_%s", accountID, role, sessionID), nil
}

func (m *MockTokenService) GenerateRefreshToken(accountID uint, role string, sessionID string) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(accountID, role, sessionID)
	}
	return fmt.Sprintf("refresh_token_%d_%s_%s", accountID, role, sessionID), nil
}

func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{AccountID: 1, Role: "customer", SessionID: "mock_session"}, nil
}

func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{AccountID: 1, Role: "customer", SessionID: "mock_session"}, nil
}
