package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/config"
)

// stepUpEntry pairs a challenge with the resources its verifier holds.
// release runs exactly once on whichever exit path ends the challenge.
type stepUpEntry struct {
	challenge *domain.StepUpChallenge
	consumed  bool
	release   func()
	once      sync.Once
}

func (e *stepUpEntry) free() {
	if e.release != nil {
		e.once.Do(e.release)
	}
}

// StepUpServiceImpl implements domain.StepUpService with an in-memory
// mutex-guarded store. Challenges are single-use and never outlive their
// deadline; the protected action executes at most once per challenge.
type StepUpServiceImpl struct {
	mu          sync.Mutex
	entries     map[string]*stepUpEntry
	rules       map[string]map[domain.CredentialMethod]bool
	accountRepo domain.AccountRepository
	verifiers   *VerifierRegistry
	otpSvc      domain.OTPService
	publisher   domain.EventPublisher
	timeout     time.Duration
}

// NewStepUpService creates a new step-up service from the configured
// action rules.
func NewStepUpService(
	rules []config.StepUpRule,
	accountRepo domain.AccountRepository,
	verifiers *VerifierRegistry,
	otpSvc domain.OTPService,
	publisher domain.EventPublisher,
	timeout time.Duration,
) domain.StepUpService {
	ruleSet := make(map[string]map[domain.CredentialMethod]bool, len(rules))
	for _, rule := range rules {
		methods := make(map[domain.CredentialMethod]bool, len(rule.Methods))
		for _, m := range rule.Methods {
			methods[domain.CredentialMethod(m)] = true
		}
		ruleSet[rule.Action] = methods
	}

	return &StepUpServiceImpl{
		entries:     make(map[string]*stepUpEntry),
		rules:       ruleSet,
		accountRepo: accountRepo,
		verifiers:   verifiers,
		otpSvc:      otpSvc,
		publisher:   publisher,
		timeout:     timeout,
	}
}

// Begin implements domain.StepUpService
func (s *StepUpServiceImpl) Begin(ctx context.Context, accountID uint, action string, method domain.CredentialMethod) (*domain.StepUpChallenge, error) {
	methods, ok := s.rules[action]
	if !ok {
		return nil, domain.ErrActionNotProtected
	}
	if !methods[method] {
		return nil, domain.ErrMethodNotPermitted
	}

	// release frees whatever the chosen verifier holds open: for OTP the
	// outstanding code is invalidated so an abandoned challenge cannot be
	// completed later.
	var release func()
	if method == domain.MethodOTP {
		account, err := s.accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if _, err := s.otpSvc.Issue(ctx, account.Email); err != nil {
			return nil, err
		}
		recipient := account.Email
		release = func() {
			if err := s.otpSvc.Invalidate(context.Background(), recipient); err != nil {
				log.Printf("STEPUP_OTP_INVALIDATE_FAILED: recipient=%s error=%v", recipient, err)
			}
		}
	}

	now := time.Now().UTC()
	challenge := &domain.StepUpChallenge{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    action,
		Method:    method,
		State:     domain.StepUpPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.timeout),
	}

	s.mu.Lock()
	s.prune()
	s.entries[challenge.ID] = &stepUpEntry{challenge: challenge, release: release}
	s.mu.Unlock()

	s.publish(domain.NewAccountEvent(domain.StepUpRequestedEvent, accountID).
		WithMetadata("action", action).
		WithMetadata("method", string(method)))

	out := *challenge
	return &out, nil
}

// Verify implements domain.StepUpService. A failed or expired challenge
// is terminal; the caller must begin a new one to retry. A challenge
// belonging to another account is indistinguishable from a missing one.
func (s *StepUpServiceImpl) Verify(ctx context.Context, accountID uint, challengeID string, cred domain.Credential) (*domain.StepUpChallenge, error) {
	s.mu.Lock()
	entry, ok := s.entries[challengeID]
	if !ok || entry.challenge.AccountID != accountID {
		s.mu.Unlock()
		return nil, domain.ErrChallengeNotFound
	}

	challenge := entry.challenge
	if challenge.State != domain.StepUpPending {
		state := challenge.State
		s.mu.Unlock()
		if state == domain.StepUpExpired {
			return nil, domain.ErrStepUpExpired
		}
		return nil, domain.ErrInvalidCredential
	}

	if time.Now().After(challenge.ExpiresAt) {
		challenge.State = domain.StepUpExpired
		entry.free()
		s.mu.Unlock()
		return nil, domain.ErrStepUpExpired
	}

	if cred.Method != challenge.Method {
		s.mu.Unlock()
		return nil, domain.ErrInvalidCredential
	}
	s.mu.Unlock()

	account, err := s.accountRepo.FindByID(ctx, challenge.AccountID)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}

	_, verifyErr := s.verifiers.Verify(ctx, account, cred)

	s.mu.Lock()
	defer s.mu.Unlock()

	if verifyErr != nil {
		if errors.Is(verifyErr, domain.ErrNetworkUnavailable) {
			// Transient outage leaves the challenge pending for a retry.
			return nil, domain.ErrNetworkUnavailable
		}
		challenge.State = domain.StepUpFailed
		entry.free()
		s.publishResolved(challenge)
		return nil, domain.ErrInvalidCredential
	}

	challenge.State = domain.StepUpVerified
	entry.free()
	s.publishResolved(challenge)

	out := *challenge
	return &out, nil
}

// Cancel implements domain.StepUpService. Abandoning a pending challenge
// has no side effects beyond releasing verifier resources.
func (s *StepUpServiceImpl) Cancel(ctx context.Context, accountID uint, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[challengeID]
	if !ok || entry.challenge.AccountID != accountID {
		return nil
	}
	if entry.challenge.State == domain.StepUpPending {
		entry.free()
		delete(s.entries, challengeID)
	}
	return nil
}

// Consume implements domain.StepUpService. Exactly one consume succeeds
// per verified challenge; a second attempt is caller misuse.
func (s *StepUpServiceImpl) Consume(ctx context.Context, accountID uint, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[challengeID]
	if !ok || entry.challenge.AccountID != accountID {
		return domain.ErrChallengeNotFound
	}

	challenge := entry.challenge
	if entry.consumed {
		log.Printf("STEPUP_DOUBLE_CONSUME: challenge_id=%s action=%s account_id=%d",
			challengeID, challenge.Action, challenge.AccountID)
		return domain.ErrChallengeConsumed
	}
	if challenge.State != domain.StepUpVerified {
		return domain.ErrChallengeNotVerified
	}

	entry.consumed = true
	return nil
}

// prune drops entries well past their deadline. Callers hold s.mu.
func (s *StepUpServiceImpl) prune() {
	cutoff := time.Now().Add(-s.timeout)
	for id, entry := range s.entries {
		if entry.challenge.ExpiresAt.Before(cutoff) {
			entry.free()
			delete(s.entries, id)
		}
	}
}

func (s *StepUpServiceImpl) publishResolved(challenge *domain.StepUpChallenge) {
	s.publish(domain.NewAccountEvent(domain.StepUpResolvedEvent, challenge.AccountID).
		WithMetadata("action", challenge.Action).
		WithMetadata("state", string(challenge.State)))
}

func (s *StepUpServiceImpl) publish(event *domain.AccountEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event.AccountID, event); err != nil {
		log.Printf("EVENT_PUBLISH_FAILED: type=%s account_id=%d error=%v", event.EventType, event.AccountID, err)
	}
}
