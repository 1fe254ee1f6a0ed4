package mocks

import (
	"context"
	"time"

	"github.com/you/bankauth/domain"
)

// MockOTPService implements domain.OTPService for testing
type MockOTPService struct {
	IssueFunc             func(ctx context.Context, recipient string) (*domain.OTPChallenge, error)
	ConsumeFunc           func(ctx context.Context, recipient, code string) error
	InvalidateFunc        func(ctx context.Context, recipient string) error
	ResendAvailableInFunc func(ctx context.Context, recipient string) (time.Duration, error)
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

func (m *MockOTPService) Issue(ctx context.Context, recipient string) (*domain.OTPChallenge, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, recipient)
	}
	return &domain.OTPChallenge{
		Recipient: recipient,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil
}

func (m *MockOTPService) Consume(ctx context.Context, recipient, code string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, recipient, code)
	}
	// Default behavior: the canonical test code verifies
	if code == "123456" {
		return nil
	}
	return domain.ErrOTPInvalid
}

func (m *MockOTPService) Invalidate(ctx context.Context, recipient string) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, recipient)
	}
	return nil
}

func (m *MockOTPService) ResendAvailableIn(ctx context.Context, recipient string) (time.Duration, error) {
	if m.ResendAvailableInFunc != nil {
		return m.ResendAvailableInFunc(ctx, recipient)
	}
	return 0, nil
}
