package services

import (
	"context"
	"errors"
	"log"

	"github.com/you/bankauth/domain"
)

// VerifierRegistry dispatches a tagged Credential to the verifier for
// its method. Adding a login method means registering one more verifier.
type VerifierRegistry struct {
	verifiers map[domain.CredentialMethod]domain.CredentialVerifier
}

// NewVerifierRegistry creates a registry over the given verifiers
func NewVerifierRegistry(verifiers ...domain.CredentialVerifier) *VerifierRegistry {
	registry := &VerifierRegistry{
		verifiers: make(map[domain.CredentialMethod]domain.CredentialVerifier, len(verifiers)),
	}
	for _, v := range verifiers {
		registry.verifiers[v.Method()] = v
	}
	return registry
}

// Verify dispatches to the verifier for the credential's method. Any
// failure collapses into ErrInvalidCredential except a transport outage,
// which the caller surfaces as retryable.
func (r *VerifierRegistry) Verify(ctx context.Context, account *domain.Account, cred domain.Credential) (*domain.VerificationResult, error) {
	verifier, ok := r.verifiers[cred.Method]
	if !ok {
		return nil, domain.ErrInvalidCredential
	}

	result, err := verifier.Verify(ctx, account, cred)
	if err != nil {
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return nil, domain.ErrNetworkUnavailable
		}
		return nil, domain.ErrInvalidCredential
	}
	if !result.Success {
		return nil, domain.ErrInvalidCredential
	}
	return result, nil
}

// PasswordVerifier checks a password against the account's stored hash
type PasswordVerifier struct {
	passwordSvc domain.PasswordService
}

// NewPasswordVerifier creates a password verifier
func NewPasswordVerifier(passwordSvc domain.PasswordService) domain.CredentialVerifier {
	return &PasswordVerifier{passwordSvc: passwordSvc}
}

func (v *PasswordVerifier) Method() domain.CredentialMethod { return domain.MethodPassword }

// Verify implements domain.CredentialVerifier
func (v *PasswordVerifier) Verify(ctx context.Context, account *domain.Account, cred domain.Credential) (*domain.VerificationResult, error) {
	if !v.passwordSvc.Verify(account.PasswordHash, cred.Password) {
		return &domain.VerificationResult{Success: false}, nil
	}
	return &domain.VerificationResult{Success: true}, nil
}

// FaceVerifier delegates descriptor comparison to the external matcher
type FaceVerifier struct {
	matcher       domain.FaceMatcher
	minConfidence float64
}

// NewFaceVerifier creates a face verifier
func NewFaceVerifier(matcher domain.FaceMatcher, minConfidence float64) domain.CredentialVerifier {
	return &FaceVerifier{matcher: matcher, minConfidence: minConfidence}
}

func (v *FaceVerifier) Method() domain.CredentialMethod { return domain.MethodFace }

// Verify implements domain.CredentialVerifier
func (v *FaceVerifier) Verify(ctx context.Context, account *domain.Account, cred domain.Credential) (*domain.VerificationResult, error) {
	if account.FaceTemplateID == "" {
		return &domain.VerificationResult{Success: false}, nil
	}

	match, confidence, err := v.matcher.Match(ctx, account.FaceTemplateID, cred.FaceDescriptor)
	if err != nil {
		return nil, err
	}

	return &domain.VerificationResult{
		Success:    match && confidence >= v.minConfidence,
		Confidence: confidence,
	}, nil
}

// VoiceVerifier delegates utterance interpretation to the external
// service; for login the structured intent is treated as pass/fail.
type VoiceVerifier struct {
	interpreter domain.VoiceInterpreter
}

// NewVoiceVerifier creates a voice verifier
func NewVoiceVerifier(interpreter domain.VoiceInterpreter) domain.CredentialVerifier {
	return &VoiceVerifier{interpreter: interpreter}
}

func (v *VoiceVerifier) Method() domain.CredentialMethod { return domain.MethodVoice }

// Verify implements domain.CredentialVerifier
func (v *VoiceVerifier) Verify(ctx context.Context, account *domain.Account, cred domain.Credential) (*domain.VerificationResult, error) {
	intent, err := v.interpreter.Interpret(ctx, cred.VoiceSample)
	if err != nil {
		return nil, err
	}

	if intent.Intent != "authenticate" {
		log.Printf("VOICE_VERIFY_REJECTED: account_id=%d intent=%s", account.ID, intent.Intent)
		return &domain.VerificationResult{Success: false, Confidence: intent.Confidence}, nil
	}

	return &domain.VerificationResult{Success: true, Confidence: intent.Confidence}, nil
}

// OTPVerifier delegates to the OTP protocol engine's consume operation
type OTPVerifier struct {
	otpSvc domain.OTPService
}

// NewOTPVerifier creates an OTP verifier
func NewOTPVerifier(otpSvc domain.OTPService) domain.CredentialVerifier {
	return &OTPVerifier{otpSvc: otpSvc}
}

func (v *OTPVerifier) Method() domain.CredentialMethod { return domain.MethodOTP }

// Verify implements domain.CredentialVerifier
func (v *OTPVerifier) Verify(ctx context.Context, account *domain.Account, cred domain.Credential) (*domain.VerificationResult, error) {
	if err := v.otpSvc.Consume(ctx, account.Email, cred.OTPCode); err != nil {
		return nil, err
	}
	return &domain.VerificationResult{Success: true}, nil
}
