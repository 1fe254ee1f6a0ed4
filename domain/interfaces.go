package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	Update(ctx context.Context, account *Account) error
	Deactivate(ctx context.Context, accountID uint) error
}

// EnrollmentRepository defines MFA enrollment persistence
type EnrollmentRepository interface {
	Add(ctx context.Context, enrollment *MFAEnrollment) error
	Remove(ctx context.Context, accountID uint, method MFAMethod) error
	ListByAccount(ctx context.Context, accountID uint) ([]*MFAEnrollment, error)
	IsEnrolled(ctx context.Context, accountID uint, method MFAMethod) (bool, error)
}

// SessionRegistry is the single owner of session state per account.
// All mutation is atomic per session id; Revoke is idempotent.
type SessionRegistry interface {
	Create(ctx context.Context, accountID uint, device, origin string) (*Session, error)
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	List(ctx context.Context, accountID uint, currentSessionID string) ([]*Session, error)
	Touch(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID, currentSessionID string) error
	RevokeAllExcept(ctx context.Context, accountID uint, currentSessionID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
}

// CredentialVerifier is the single contract all login methods implement.
// A failed verification returns ErrInvalidCredential regardless of cause.
type CredentialVerifier interface {
	Method() CredentialMethod
	Verify(ctx context.Context, account *Account, cred Credential) (*VerificationResult, error)
}

// OTPService defines the one-time passcode protocol engine
type OTPService interface {
	Issue(ctx context.Context, recipient string) (*OTPChallenge, error)
	Consume(ctx context.Context, recipient, code string) error
	Invalidate(ctx context.Context, recipient string) error
	ResendAvailableIn(ctx context.Context, recipient string) (time.Duration, error)
}

// AuthService defines primary authentication business logic
type AuthService interface {
	Login(ctx context.Context, email string, cred Credential, device, origin string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetProfile(ctx context.Context, accountID uint) (*Account, error)
}

// EnrollmentService drives the MFA enrollment wizard
type EnrollmentService interface {
	AvailableMethods(ctx context.Context, accountID uint) ([]MFAMethod, error)
	EnrolledMethods(ctx context.Context, accountID uint) ([]MFAMethod, error)
	Start(ctx context.Context, accountID uint, method MFAMethod) (*EnrollmentChallenge, error)
	Confirm(ctx context.Context, accountID uint, method MFAMethod, proof string) error
	Remove(ctx context.Context, accountID uint, method MFAMethod) error
}

// StepUpService gates sensitive actions behind an extra verification,
// independent of the primary login session.
type StepUpService interface {
	Begin(ctx context.Context, accountID uint, action string, method CredentialMethod) (*StepUpChallenge, error)
	Verify(ctx context.Context, accountID uint, challengeID string, cred Credential) (*StepUpChallenge, error)
	Cancel(ctx context.Context, accountID uint, challengeID string) error
	Consume(ctx context.Context, accountID uint, challengeID string) error
}

// FraudService presents alerts and dispatches user decisions
type FraudService interface {
	Raise(ctx context.Context, alert *FraudAlert) error
	Current(ctx context.Context, accountID uint) (*FraudAlert, error)
	Decide(ctx context.Context, accountID uint, alertID, decisionID, currentSessionID string) error
}

// PasswordService defines password hashing operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines session token operations
type TokenService interface {
	GenerateAccessToken(accountID uint, role string, sessionID string) (string, error)
	GenerateRefreshToken(accountID uint, role string, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
}

// NotificationService delivers OTP codes out-of-band
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// FaceMatcher is the external biometric comparison collaborator.
// Transport failures surface as ErrNetworkUnavailable.
type FaceMatcher interface {
	Match(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error)
}

// VoiceIntent is the structured result of utterance interpretation
type VoiceIntent struct {
	Intent     string
	Transcript string
	Confidence float64
}

// VoiceInterpreter is the external speech interpretation collaborator
type VoiceInterpreter interface {
	Interpret(ctx context.Context, sample []byte) (*VoiceIntent, error)
}

// TOTPService wraps authenticator-app secret generation and validation
type TOTPService interface {
	GenerateSecret(accountEmail string) (secret, otpauthURL string, err error)
	Validate(secret, code string) bool
}

// EventPublisher pushes account-scoped events to the realtime channel
type EventPublisher interface {
	Publish(accountID uint, event *AccountEvent) error
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	AccountID uint   `json:"account_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
