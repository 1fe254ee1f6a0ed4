package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/config"
	"github.com/you/bankauth/internal/mocks"
)

func newStepUpFixture(t *testing.T, timeout time.Duration) (domain.StepUpService, *mocks.MockOTPService, *mocks.MockEventPublisher) {
	t.Helper()

	accounts := mocks.NewMockAccountRepository()
	accounts.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
		return &domain.Account{ID: id, Email: "user@example.com", PasswordHash: "hashed_pw", IsActive: true}, nil
	}

	otpSvc := mocks.NewMockOTPService()
	publisher := mocks.NewMockEventPublisher()
	verifiers := NewVerifierRegistry(
		NewPasswordVerifier(mocks.NewMockPasswordService()),
		NewOTPVerifier(otpSvc),
	)

	rules := []config.StepUpRule{
		{Action: "transfer.external", Methods: []string{"otp", "password"}},
		{Action: "payee.add", Methods: []string{"otp"}},
	}
	svc := NewStepUpService(rules, accounts, verifiers, otpSvc, publisher, timeout)
	return svc, otpSvc, publisher
}

func TestStepUpService_Begin(t *testing.T) {
	ctx := context.Background()
	svc, _, publisher := newStepUpFixture(t, 5*time.Minute)

	t.Run("unprotected action", func(t *testing.T) {
		_, err := svc.Begin(ctx, 1, "balance.view", domain.MethodOTP)
		if !errors.Is(err, domain.ErrActionNotProtected) {
			t.Errorf("expected ErrActionNotProtected, got %v", err)
		}
	})

	t.Run("method not on the action's allow list", func(t *testing.T) {
		_, err := svc.Begin(ctx, 1, "payee.add", domain.MethodPassword)
		if !errors.Is(err, domain.ErrMethodNotPermitted) {
			t.Errorf("expected ErrMethodNotPermitted, got %v", err)
		}
	})

	t.Run("valid begin is pending and announced", func(t *testing.T) {
		challenge, err := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		if challenge.State != domain.StepUpPending {
			t.Errorf("expected pending, got %s", challenge.State)
		}
		types := publisher.EventTypes()
		if len(types) == 0 || types[len(types)-1] != domain.StepUpRequestedEvent {
			t.Errorf("expected STEPUP_REQUESTED event, got %v", types)
		}
	})
}

func TestStepUpService_VerifyAndConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("verify then consume exactly once", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, 5*time.Minute)
		challenge, err := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		verified, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if verified.State != domain.StepUpVerified {
			t.Errorf("expected verified, got %s", verified.State)
		}

		if err := svc.Consume(ctx, 1, challenge.ID); err != nil {
			t.Fatalf("first Consume failed: %v", err)
		}
		if err := svc.Consume(ctx, 1, challenge.ID); !errors.Is(err, domain.ErrChallengeConsumed) {
			t.Errorf("second Consume must fail with ErrChallengeConsumed, got %v", err)
		}
	})

	t.Run("consume before verify is refused", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, 5*time.Minute)
		challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)

		if err := svc.Consume(ctx, 1, challenge.ID); !errors.Is(err, domain.ErrChallengeNotVerified) {
			t.Errorf("expected ErrChallengeNotVerified, got %v", err)
		}
	})

	t.Run("wrong code fails the challenge terminally", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, 5*time.Minute)
		challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)

		_, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "999999"})
		if !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}

		// No retry on the same challenge: the right code no longer helps.
		_, err = svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if !errors.Is(err, domain.ErrInvalidCredential) {
			t.Errorf("failed challenge must stay failed, got %v", err)
		}
		if err := svc.Consume(ctx, 1, challenge.ID); !errors.Is(err, domain.ErrChallengeNotVerified) {
			t.Errorf("failed challenge must not consume, got %v", err)
		}
	})

	t.Run("credential method must match the challenge method", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, 5*time.Minute)
		challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)

		_, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodPassword, Password: "pw"})
		if !errors.Is(err, domain.ErrInvalidCredential) {
			t.Errorf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("network outage leaves the challenge pending", func(t *testing.T) {
		svc, otpSvc, _ := newStepUpFixture(t, 5*time.Minute)
		challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)

		otpSvc.ConsumeFunc = func(ctx context.Context, recipient, code string) error {
			return domain.ErrNetworkUnavailable
		}
		_, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if !errors.Is(err, domain.ErrNetworkUnavailable) {
			t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
		}

		otpSvc.ConsumeFunc = nil
		verified, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if err != nil {
			t.Fatalf("retry after outage should succeed: %v", err)
		}
		if verified.State != domain.StepUpVerified {
			t.Errorf("expected verified, got %s", verified.State)
		}
	})

	t.Run("expired challenge is terminal", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, time.Millisecond)
		challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)

		time.Sleep(5 * time.Millisecond)
		_, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if !errors.Is(err, domain.ErrStepUpExpired) {
			t.Fatalf("expected ErrStepUpExpired, got %v", err)
		}
		_, err = svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if !errors.Is(err, domain.ErrStepUpExpired) {
			t.Errorf("expired challenge must stay expired, got %v", err)
		}
	})

	t.Run("unknown challenge id", func(t *testing.T) {
		svc, _, _ := newStepUpFixture(t, 5*time.Minute)
		_, err := svc.Verify(ctx, 1, "no-such-id", domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
		if !errors.Is(err, domain.ErrChallengeNotFound) {
			t.Errorf("expected ErrChallengeNotFound, got %v", err)
		}
	})
}

func TestStepUpService_Cancel(t *testing.T) {
	ctx := context.Background()
	svc, otpSvc, _ := newStepUpFixture(t, 5*time.Minute)

	invalidated := 0
	otpSvc.InvalidateFunc = func(ctx context.Context, recipient string) error {
		invalidated++
		return nil
	}

	challenge, _ := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)
	if err := svc.Cancel(ctx, 1, challenge.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if invalidated != 1 {
		t.Errorf("cancel must invalidate the outstanding code once, got %d", invalidated)
	}

	// The cancelled challenge is gone entirely.
	_, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("expected ErrChallengeNotFound after cancel, got %v", err)
	}

	// Cancelling twice is harmless.
	if err := svc.Cancel(ctx, 1, challenge.ID); err != nil {
		t.Errorf("repeat Cancel should be a no-op: %v", err)
	}
}

func TestStepUpService_AccountScoping(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newStepUpFixture(t, 5*time.Minute)

	challenge, err := svc.Begin(ctx, 1, "transfer.external", domain.MethodOTP)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// Another account holding the challenge id gets the not-found path
	// on every operation, and the challenge is left untouched.
	_, err = svc.Verify(ctx, 2, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("foreign Verify must report not found, got %v", err)
	}
	if err := svc.Consume(ctx, 2, challenge.ID); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("foreign Consume must report not found, got %v", err)
	}
	if err := svc.Cancel(ctx, 2, challenge.ID); err != nil {
		t.Fatalf("foreign Cancel should be a silent no-op: %v", err)
	}

	verified, err := svc.Verify(ctx, 1, challenge.ID, domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"})
	if err != nil {
		t.Fatalf("owner Verify failed after foreign attempts: %v", err)
	}
	if verified.State != domain.StepUpVerified {
		t.Errorf("expected verified, got %s", verified.State)
	}
	if err := svc.Consume(ctx, 1, challenge.ID); err != nil {
		t.Errorf("owner Consume failed: %v", err)
	}
}
