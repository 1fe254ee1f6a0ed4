package services

import (
	"context"
	"errors"
	"testing"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/mocks"
)

func newFraudFixture(t *testing.T) (*FraudServiceImpl, *mocks.MockSessionRegistry, *mocks.MockAccountRepository, *mocks.MockEventPublisher) {
	t.Helper()
	sessions := mocks.NewMockSessionRegistry()
	accounts := mocks.NewMockAccountRepository()
	publisher := mocks.NewMockEventPublisher()
	return NewFraudService(sessions, accounts, publisher), sessions, accounts, publisher
}

func suspiciousAlert(accountID uint) *domain.FraudAlert {
	return &domain.FraudAlert{
		AccountID: accountID,
		Kind:      domain.FraudSuspiciousLocation,
		Context:   "login from new country",
	}
}

func TestFraudService_RaiseAndCurrent(t *testing.T) {
	svc, _, _, publisher := newFraudFixture(t)
	ctx := context.Background()

	if alert, err := svc.Current(ctx, 1); err != nil || alert != nil {
		t.Fatalf("fresh account should have no alert, got %v / %v", alert, err)
	}

	raised := suspiciousAlert(1)
	if err := svc.Raise(ctx, raised); err != nil {
		t.Fatalf("Raise failed: %v", err)
	}
	if raised.ID == "" || len(raised.Decisions) == 0 {
		t.Error("Raise must assign an id and default decisions")
	}

	current, err := svc.Current(ctx, 1)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current.ID != raised.ID {
		t.Errorf("expected visible alert %s, got %s", raised.ID, current.ID)
	}

	// Accounts are isolated.
	if other, _ := svc.Current(ctx, 2); other != nil {
		t.Error("alert leaked across accounts")
	}

	types := publisher.EventTypes()
	if len(types) != 1 || types[0] != domain.FraudAlertRaisedEvent {
		t.Errorf("expected FRAUD_ALERT_RAISED event, got %v", types)
	}
}

func TestFraudService_QueueOneVisibleAtATime(t *testing.T) {
	svc, _, _, _ := newFraudFixture(t)
	ctx := context.Background()

	first := suspiciousAlert(1)
	second := suspiciousAlert(1)
	second.Kind = domain.FraudNewDevice
	svc.Raise(ctx, first)
	svc.Raise(ctx, second)

	current, _ := svc.Current(ctx, 1)
	if current.ID != first.ID {
		t.Fatalf("first alert should stay visible, got %s", current.ID)
	}

	if err := svc.Decide(ctx, 1, first.ID, DecisionConfirm, "sess-1"); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	current, _ = svc.Current(ctx, 1)
	if current == nil || current.ID != second.ID {
		t.Errorf("queued alert should surface after the first resolves")
	}
}

func TestFraudService_DecideValidation(t *testing.T) {
	svc, _, _, _ := newFraudFixture(t)
	ctx := context.Background()

	alert := suspiciousAlert(1)
	svc.Raise(ctx, alert)

	if err := svc.Decide(ctx, 1, "wrong-id", DecisionConfirm, ""); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound, got %v", err)
	}
	// suspicious_location does not offer require_stepup.
	if err := svc.Decide(ctx, 1, alert.ID, DecisionRequireStepUp, ""); !errors.Is(err, domain.ErrUnknownDecision) {
		t.Errorf("expected ErrUnknownDecision, got %v", err)
	}
	// A rejected decision leaves the alert in place.
	if current, _ := svc.Current(ctx, 1); current == nil {
		t.Error("alert should survive an invalid decision")
	}
}

func TestFraudService_RevokeOthersDecision(t *testing.T) {
	svc, sessions, _, _ := newFraudFixture(t)
	ctx := context.Background()

	var gotAccount uint
	var gotCurrent string
	sessions.RevokeAllExceptFunc = func(ctx context.Context, accountID uint, currentSessionID string) (int, error) {
		gotAccount = accountID
		gotCurrent = currentSessionID
		return 2, nil
	}

	alert := suspiciousAlert(7)
	svc.Raise(ctx, alert)
	if err := svc.Decide(ctx, 7, alert.ID, DecisionRevokeOthers, "keep-me"); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if gotAccount != 7 || gotCurrent != "keep-me" {
		t.Errorf("revoke_others must spare the deciding session: account=%d current=%q", gotAccount, gotCurrent)
	}
}

func TestFraudService_LockAccountDecision(t *testing.T) {
	svc, sessions, accounts, _ := newFraudFixture(t)
	ctx := context.Background()

	deactivated := uint(0)
	accounts.DeactivateFunc = func(ctx context.Context, accountID uint) error {
		deactivated = accountID
		return nil
	}
	revokedAll := false
	sessions.RevokeAllExceptFunc = func(ctx context.Context, accountID uint, currentSessionID string) (int, error) {
		revokedAll = currentSessionID == ""
		return 1, nil
	}

	alert := suspiciousAlert(3)
	alert.Kind = domain.FraudNewDevice
	svc.Raise(ctx, alert)
	if err := svc.Decide(ctx, 3, alert.ID, DecisionLockAccount, "sess-3"); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if deactivated != 3 {
		t.Error("lock_account must deactivate the account")
	}
	if !revokedAll {
		t.Error("lock_account must revoke every session, the decider's included")
	}
}

func TestFraudService_RequireStepUpDecision(t *testing.T) {
	svc, _, _, _ := newFraudFixture(t)
	ctx := context.Background()

	alert := suspiciousAlert(5)
	alert.Kind = domain.FraudMultipleFailedAttempts
	svc.Raise(ctx, alert)

	if err := svc.Decide(ctx, 5, alert.ID, DecisionRequireStepUp, ""); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if !svc.StepUpRequired(5) {
		t.Error("require_stepup must arm the flag")
	}
	// Reading the flag clears it.
	if svc.StepUpRequired(5) {
		t.Error("flag must reset after being read")
	}
}
