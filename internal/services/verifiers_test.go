package services

import (
	"context"
	"errors"
	"testing"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/mocks"
)

func TestVerifierRegistry_FailureCollapse(t *testing.T) {
	ctx := context.Background()
	account := &domain.Account{ID: 1, Email: "user@example.com", PasswordHash: "hashed_pw", FaceTemplateID: "tpl-1"}

	matcher := mocks.NewMockFaceMatcher()
	otpSvc := mocks.NewMockOTPService()
	registry := NewVerifierRegistry(
		NewPasswordVerifier(mocks.NewMockPasswordService()),
		NewFaceVerifier(matcher, 0.85),
		NewOTPVerifier(otpSvc),
	)

	tests := []struct {
		name string
		cred domain.Credential
		prep func()
	}{
		{
			name: "wrong password",
			cred: domain.Credential{Method: domain.MethodPassword, Password: "wrong"},
		},
		{
			name: "face below confidence threshold",
			cred: domain.Credential{Method: domain.MethodFace, FaceDescriptor: []byte{1}},
			prep: func() {
				matcher.MatchFunc = func(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error) {
					return true, 0.5, nil
				}
			},
		},
		{
			name: "face non-match",
			cred: domain.Credential{Method: domain.MethodFace, FaceDescriptor: []byte{1}},
			prep: func() {
				matcher.MatchFunc = func(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error) {
					return false, 0.99, nil
				}
			},
		},
		{
			name: "wrong otp code",
			cred: domain.Credential{Method: domain.MethodOTP, OTPCode: "000000"},
		},
		{
			name: "expired otp challenge",
			cred: domain.Credential{Method: domain.MethodOTP, OTPCode: "123456"},
			prep: func() {
				otpSvc.ConsumeFunc = func(ctx context.Context, recipient, code string) error {
					return domain.ErrOTPExpired
				}
			},
		},
		{
			name: "unregistered method",
			cred: domain.Credential{Method: domain.MethodVoice, VoiceSample: []byte{1}},
		},
	}

	// Every failure mode must be indistinguishable to the caller.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			otpSvc.ConsumeFunc = nil
			matcher.MatchFunc = nil
			if tt.prep != nil {
				tt.prep()
			}
			_, err := registry.Verify(ctx, account, tt.cred)
			if !errors.Is(err, domain.ErrInvalidCredential) {
				t.Errorf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestVerifierRegistry_NetworkErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	account := &domain.Account{ID: 1, FaceTemplateID: "tpl-1"}

	matcher := mocks.NewMockFaceMatcher()
	matcher.MatchFunc = func(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error) {
		return false, 0, domain.ErrNetworkUnavailable
	}
	registry := NewVerifierRegistry(NewFaceVerifier(matcher, 0.85))

	_, err := registry.Verify(ctx, account, domain.Credential{Method: domain.MethodFace, FaceDescriptor: []byte{1}})
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Errorf("expected ErrNetworkUnavailable, got %v", err)
	}
}

func TestFaceVerifier_NoTemplateEnrolled(t *testing.T) {
	registry := NewVerifierRegistry(NewFaceVerifier(mocks.NewMockFaceMatcher(), 0.85))

	// Matcher would accept, but the account has no template on file.
	_, err := registry.Verify(context.Background(), &domain.Account{ID: 1}, domain.Credential{
		Method:         domain.MethodFace,
		FaceDescriptor: []byte{1},
	})
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestVoiceVerifier_IntentGate(t *testing.T) {
	ctx := context.Background()
	account := &domain.Account{ID: 1}
	interp := mocks.NewMockVoiceInterpreter()
	registry := NewVerifierRegistry(NewVoiceVerifier(interp))

	cred := domain.Credential{Method: domain.MethodVoice, VoiceSample: []byte{1}}

	result, err := registry.Verify(ctx, account, cred)
	if err != nil || !result.Success {
		t.Fatalf("authenticate intent should pass: %v", err)
	}

	// Any other recognized intent is not an authentication.
	interp.InterpretFunc = func(ctx context.Context, sample []byte) (*domain.VoiceIntent, error) {
		return &domain.VoiceIntent{Intent: "check_balance", Confidence: 0.99}, nil
	}
	if _, err := registry.Verify(ctx, account, cred); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}
