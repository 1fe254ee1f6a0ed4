package domain

import "time"

// Account represents a banking customer account
type Account struct {
	ID             uint
	Email          string
	Phone          string
	PasswordHash   string `gorm:"column:password"`
	FaceTemplateID string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialMethod discriminates the login credential variants
type CredentialMethod string

const (
	MethodPassword CredentialMethod = "password"
	MethodFace     CredentialMethod = "face"
	MethodVoice    CredentialMethod = "voice"
	MethodOTP      CredentialMethod = "otp"
)

// Credential is the tagged union handed to a CredentialVerifier.
// Only the field matching Method is populated.
type Credential struct {
	Method         CredentialMethod
	Password       string
	FaceDescriptor []byte
	VoiceSample    []byte
	OTPCode        string
}

// VerificationResult represents a verifier outcome
type VerificationResult struct {
	Success    bool
	Confidence float64
}

// AuthResult represents authentication outcome
type AuthResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64
}

// OTPChallenge represents an issued one-time passcode
type OTPChallenge struct {
	Recipient         string
	Code              string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	AttemptsRemaining int
	Consumed          bool
}

// SessionStatus classifies a session by recent activity
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionIdle   SessionStatus = "idle"
)

// Session represents one successful login, enumerable and revocable
type Session struct {
	ID             string
	AccountID      uint
	Device         string
	Origin         string
	LoginAt        time.Time
	LastActivityAt time.Time
	Status         SessionStatus `json:"-"`
	IsCurrent      bool          `json:"-"`
}

// MFAMethod identifies a second-factor enrollment method
type MFAMethod string

const (
	MFAMethodSMS           MFAMethod = "sms"
	MFAMethodEmail         MFAMethod = "email"
	MFAMethodAuthenticator MFAMethod = "authenticator"
)

// AllMFAMethods is the fixed set of enrollable methods
var AllMFAMethods = []MFAMethod{MFAMethodSMS, MFAMethodEmail, MFAMethodAuthenticator}

// MFAEnrollment records one enrolled second factor for an account
type MFAEnrollment struct {
	AccountID  uint
	Method     MFAMethod
	EnrolledAt time.Time
}

// EnrollmentChallenge is handed back by Start so the client can complete
// the verification round-trip. Secret/URL are set only for authenticator.
type EnrollmentChallenge struct {
	Method     MFAMethod
	Recipient  string
	TOTPSecret string
	TOTPURL    string
}

// StepUpState is the lifecycle state of a step-up challenge
type StepUpState string

const (
	StepUpPending  StepUpState = "pending"
	StepUpVerified StepUpState = "verified"
	StepUpFailed   StepUpState = "failed"
	StepUpExpired  StepUpState = "expired"
)

// StepUpChallenge gates one execution of a protected action
type StepUpChallenge struct {
	ID        string
	AccountID uint
	Action    string
	Method    CredentialMethod
	State     StepUpState
	CreatedAt time.Time
	ExpiresAt time.Time
}

// FraudAlertKind enumerates anomaly categories
type FraudAlertKind string

const (
	FraudSuspiciousLocation     FraudAlertKind = "suspicious_location"
	FraudUnusualAmount          FraudAlertKind = "unusual_amount"
	FraudMultipleFailedAttempts FraudAlertKind = "multiple_failed_attempts"
	FraudNewDevice              FraudAlertKind = "new_device"
)

// FraudDecision is one user choice offered on an alert
type FraudDecision struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FraudAlert describes an anomalous event awaiting a user decision
type FraudAlert struct {
	ID        string          `json:"id"`
	AccountID uint            `json:"account_id"`
	Kind      FraudAlertKind  `json:"kind"`
	Context   string          `json:"context"`
	Decisions []FraudDecision `json:"decisions"`
	RaisedAt  time.Time       `json:"raised_at"`
}
