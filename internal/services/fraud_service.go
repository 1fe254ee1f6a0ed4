package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/you/bankauth/domain"
)

// Decision identifiers understood by the dispatcher. Handlers receive
// the decision verbatim; the dispatcher itself holds no state beyond
// which alert is currently visible per account.
const (
	DecisionConfirm       = "confirm"
	DecisionRevokeOthers  = "revoke_others"
	DecisionLockAccount   = "lock_account"
	DecisionRequireStepUp = "require_stepup"
)

// DefaultDecisions returns the decision list for an alert kind.
func DefaultDecisions(kind domain.FraudAlertKind) []domain.FraudDecision {
	switch kind {
	case domain.FraudNewDevice:
		return []domain.FraudDecision{
			{ID: DecisionConfirm, Label: "Yes, this was me"},
			{ID: DecisionRevokeOthers, Label: "Log out all other sessions"},
			{ID: DecisionLockAccount, Label: "Lock my account"},
		}
	case domain.FraudMultipleFailedAttempts:
		return []domain.FraudDecision{
			{ID: DecisionConfirm, Label: "Yes, this was me"},
			{ID: DecisionRequireStepUp, Label: "Secure my account"},
			{ID: DecisionLockAccount, Label: "Lock my account"},
		}
	default:
		return []domain.FraudDecision{
			{ID: DecisionConfirm, Label: "Yes, this was me"},
			{ID: DecisionRevokeOthers, Label: "Log out all other sessions"},
		}
	}
}

// accountAlerts is the visible alert plus the FIFO of queued ones.
type accountAlerts struct {
	visible *domain.FraudAlert
	queue   []*domain.FraudAlert
}

// FraudServiceImpl implements domain.FraudService. At most one alert is
// visible per account; later alerts queue behind it rather than overlay.
type FraudServiceImpl struct {
	mu          sync.Mutex
	alerts      map[uint]*accountAlerts
	sessions    domain.SessionRegistry
	accountRepo domain.AccountRepository
	publisher   domain.EventPublisher
	stepUpArmed map[uint]bool
}

// NewFraudService creates a new fraud dispatcher
func NewFraudService(sessions domain.SessionRegistry, accountRepo domain.AccountRepository, publisher domain.EventPublisher) *FraudServiceImpl {
	return &FraudServiceImpl{
		alerts:      make(map[uint]*accountAlerts),
		sessions:    sessions,
		accountRepo: accountRepo,
		publisher:   publisher,
		stepUpArmed: make(map[uint]bool),
	}
}

// Raise implements domain.FraudService
func (s *FraudServiceImpl) Raise(ctx context.Context, alert *domain.FraudAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now().UTC()
	}
	if len(alert.Decisions) == 0 {
		alert.Decisions = DefaultDecisions(alert.Kind)
	}

	s.mu.Lock()
	state, ok := s.alerts[alert.AccountID]
	if !ok {
		state = &accountAlerts{}
		s.alerts[alert.AccountID] = state
	}
	if state.visible == nil {
		state.visible = alert
	} else {
		state.queue = append(state.queue, alert)
	}
	s.mu.Unlock()

	log.Printf("FRAUD_ALERT_RAISED: account_id=%d kind=%s alert_id=%s", alert.AccountID, alert.Kind, alert.ID)
	s.publish(domain.NewAccountEvent(domain.FraudAlertRaisedEvent, alert.AccountID).
		WithMetadata("kind", string(alert.Kind)).
		WithMetadata("alert_id", alert.ID))

	return nil
}

// Current implements domain.FraudService
func (s *FraudServiceImpl) Current(ctx context.Context, accountID uint) (*domain.FraudAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.alerts[accountID]
	if !ok || state.visible == nil {
		return nil, nil
	}
	out := *state.visible
	return &out, nil
}

// Decide implements domain.FraudService. The chosen decision resolves
// the visible alert and the next queued one (if any) becomes visible.
func (s *FraudServiceImpl) Decide(ctx context.Context, accountID uint, alertID, decisionID, currentSessionID string) error {
	s.mu.Lock()
	state, ok := s.alerts[accountID]
	if !ok || state.visible == nil || state.visible.ID != alertID {
		s.mu.Unlock()
		return domain.ErrAlertNotFound
	}

	alert := state.visible
	valid := false
	for _, d := range alert.Decisions {
		if d.ID == decisionID {
			valid = true
			break
		}
	}
	if !valid {
		s.mu.Unlock()
		return domain.ErrUnknownDecision
	}
	s.mu.Unlock()

	if err := s.dispatch(ctx, accountID, decisionID, currentSessionID); err != nil {
		return err
	}

	s.mu.Lock()
	state.visible = nil
	if len(state.queue) > 0 {
		state.visible = state.queue[0]
		state.queue = state.queue[1:]
	}
	s.mu.Unlock()

	log.Printf("FRAUD_ALERT_RESOLVED: account_id=%d alert_id=%s decision=%s", accountID, alertID, decisionID)
	s.publish(domain.NewAccountEvent(domain.FraudAlertResolvedEvent, accountID).
		WithMetadata("alert_id", alertID).
		WithMetadata("decision", decisionID))

	return nil
}

// StepUpRequired reports and clears the forced step-up flag armed by a
// require_stepup decision. The caller re-arms its gate when true.
func (s *FraudServiceImpl) StepUpRequired(accountID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	required := s.stepUpArmed[accountID]
	delete(s.stepUpArmed, accountID)
	return required
}

func (s *FraudServiceImpl) dispatch(ctx context.Context, accountID uint, decisionID, currentSessionID string) error {
	switch decisionID {
	case DecisionConfirm:
		return nil

	case DecisionRevokeOthers:
		revoked, err := s.sessions.RevokeAllExcept(ctx, accountID, currentSessionID)
		if err != nil {
			return fmt.Errorf("failed to revoke other sessions: %w", err)
		}
		s.publish(domain.NewAccountEvent(domain.SessionsRevokedEvent, accountID).
			WithMetadata("revoked", revoked))
		return nil

	case DecisionLockAccount:
		if err := s.accountRepo.Deactivate(ctx, accountID); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if _, err := s.sessions.RevokeAllExcept(ctx, accountID, ""); err != nil {
			return fmt.Errorf("failed to revoke sessions on lock: %w", err)
		}
		return nil

	case DecisionRequireStepUp:
		s.mu.Lock()
		s.stepUpArmed[accountID] = true
		s.mu.Unlock()
		return nil

	default:
		return domain.ErrUnknownDecision
	}
}

func (s *FraudServiceImpl) publish(event *domain.AccountEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event.AccountID, event); err != nil {
		log.Printf("EVENT_PUBLISH_FAILED: type=%s account_id=%d error=%v", event.EventType, event.AccountID, err)
	}
}
