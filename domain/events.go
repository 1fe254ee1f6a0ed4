package domain

import "time"

// AccountEventType defines the type of account event pushed to the realtime channel
type AccountEventType string

const (
	// Session lifecycle events
	SessionCreatedEvent  AccountEventType = "SESSION_CREATED"
	SessionRevokedEvent  AccountEventType = "SESSION_REVOKED"
	SessionsRevokedEvent AccountEventType = "SESSIONS_BULK_REVOKED"

	// Authentication events
	LoginEvent        AccountEventType = "LOGIN"
	LoginFailureEvent AccountEventType = "LOGIN_FAILED"
	LogoutEvent       AccountEventType = "LOGOUT"

	// Step-up events
	StepUpRequestedEvent AccountEventType = "STEPUP_REQUESTED"
	StepUpResolvedEvent  AccountEventType = "STEPUP_RESOLVED"

	// Fraud events
	FraudAlertRaisedEvent   AccountEventType = "FRAUD_ALERT_RAISED"
	FraudAlertResolvedEvent AccountEventType = "FRAUD_ALERT_RESOLVED"

	// Enrollment events
	MFAEnrolledEvent   AccountEventType = "MFA_ENROLLED"
	MFAUnenrolledEvent AccountEventType = "MFA_UNENROLLED"
)

// AccountEvent is one message on an account's realtime room
type AccountEvent struct {
	EventType AccountEventType       `json:"event_type"`
	AccountID uint                   `json:"account_id"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAccountEvent creates an event with common fields populated
func NewAccountEvent(eventType AccountEventType, accountID uint) *AccountEvent {
	return &AccountEvent{
		EventType: eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithSession sets the session id field
func (e *AccountEvent) WithSession(sessionID string) *AccountEvent {
	e.SessionID = sessionID
	return e
}

// WithMetadata adds metadata to the event
func (e *AccountEvent) WithMetadata(key string, value interface{}) *AccountEvent {
	e.Metadata[key] = value
	return e
}
