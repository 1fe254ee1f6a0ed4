package domain

import "errors"

// Authentication errors. ErrInvalidCredential is deliberately generic: the
// caller must not be able to distinguish an unknown account from a wrong
// password, face, voice sample, or code.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrAccountLocked     = errors.New("account temporarily locked")
)

// OTP errors
var (
	ErrOTPExpired   = errors.New("otp has expired")
	ErrOTPInvalid   = errors.New("invalid otp code")
	ErrOTPExhausted = errors.New("maximum otp attempts exceeded")
	ErrOTPCooldown  = errors.New("otp resend cooldown active")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Session errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrCannotRevokeSelf = errors.New("cannot revoke current session, use logout")
)

// Step-up errors
var (
	ErrChallengeNotFound    = errors.New("step-up challenge not found")
	ErrChallengeConsumed    = errors.New("step-up challenge already consumed")
	ErrChallengeNotVerified = errors.New("step-up challenge not verified")
	ErrStepUpExpired        = errors.New("step-up challenge expired")
	ErrActionNotProtected   = errors.New("action has no step-up rule")
	ErrMethodNotPermitted   = errors.New("verifier method not permitted for action")
)

// Enrollment errors
var (
	ErrMethodEnrolled    = errors.New("mfa method already enrolled")
	ErrMethodNotEnrolled = errors.New("mfa method not enrolled")
	ErrEnrollmentPending = errors.New("no pending enrollment for method")
)

// Fraud errors
var (
	ErrAlertNotFound   = errors.New("fraud alert not found")
	ErrUnknownDecision = errors.New("unknown fraud decision")
)

// Infrastructure errors
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
)
