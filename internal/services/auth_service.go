package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/bankauth/domain"
)

// AuthServiceImpl implements domain.AuthService. All login methods run
// through the verifier registry; every failure path collapses into the
// same generic invalid-credential signal so callers cannot probe which
// part of a credential was wrong.
type AuthServiceImpl struct {
	accountRepo domain.AccountRepository
	sessions    domain.SessionRegistry
	verifiers   *VerifierRegistry
	tokenSvc    domain.TokenService
	publisher   domain.EventPublisher
	redisClient *redis.Client
	config      LoginConfig
}

type LoginConfig struct {
	MaxFailures   int
	LockoutWindow time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo domain.AccountRepository,
	sessions domain.SessionRegistry,
	verifiers *VerifierRegistry,
	tokenSvc domain.TokenService,
	publisher domain.EventPublisher,
	redisClient *redis.Client,
	config LoginConfig,
) domain.AuthService {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		sessions:    sessions,
		verifiers:   verifiers,
		tokenSvc:    tokenSvc,
		publisher:   publisher,
		redisClient: redisClient,
		config:      config,
	}
}

func lockKey(email string) string { return "login:lock:" + email }
func failKey(email string) string { return "login:fail:" + email }

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email string, cred domain.Credential, device, origin string) (*domain.AuthResult, error) {
	locked, err := s.redisClient.Exists(ctx, lockKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check lockout: %w", err)
	}
	if locked > 0 {
		// Locked accounts get the same generic rejection; the threshold
		// that triggered it is never revealed.
		return nil, domain.ErrInvalidCredential
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredential
	}

	if !account.IsActive {
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredential
	}

	if _, err := s.verifiers.Verify(ctx, account, cred); err != nil {
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return nil, domain.ErrNetworkUnavailable
		}
		s.recordFailure(ctx, email)
		return nil, domain.ErrInvalidCredential
	}

	s.redisClient.Del(ctx, failKey(email))

	session, err := s.sessions.Create(ctx, account.ID, device, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(account.ID, account.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenSvc.GenerateRefreshToken(account.ID, account.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	log.Printf("LOGIN: account_id=%d method=%s session_id=%s timestamp=%s",
		account.ID, cred.Method, session.ID, time.Now().UTC().Format(time.RFC3339))
	s.publish(domain.NewAccountEvent(domain.SessionCreatedEvent, account.ID).
		WithSession(session.ID).
		WithMetadata("device", device))

	return &domain.AuthResult{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    15 * 60,
	}, nil
}

// RefreshToken implements domain.AuthService
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	account, err := s.accountRepo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := s.sessions.Touch(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to refresh session activity: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(account.ID, account.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    15 * 60,
	}, nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.publish(domain.NewAccountEvent(domain.LogoutEvent, session.AccountID).WithSession(sessionID))
	return nil
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, accountID uint) (*domain.Account, error) {
	return s.accountRepo.FindByID(ctx, accountID)
}

// recordFailure counts a failed attempt and arms the lockout once the
// threshold is crossed inside the window.
func (s *AuthServiceImpl) recordFailure(ctx context.Context, email string) {
	failures, err := s.redisClient.Incr(ctx, failKey(email)).Result()
	if err != nil {
		log.Printf("LOGIN_FAILURE_COUNT_ERROR: email=%s error=%v", email, err)
		return
	}
	if failures == 1 {
		s.redisClient.Expire(ctx, failKey(email), s.config.LockoutWindow)
	}
	if failures >= int64(s.config.MaxFailures) {
		s.redisClient.Set(ctx, lockKey(email), 1, s.config.LockoutWindow)
		log.Printf("LOGIN_LOCKOUT: email=%s failures=%d timestamp=%s",
			email, failures, time.Now().UTC().Format(time.RFC3339))
	}
}

func (s *AuthServiceImpl) publish(event *domain.AccountEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event.AccountID, event); err != nil {
		log.Printf("EVENT_PUBLISH_FAILED: type=%s account_id=%d error=%v", event.EventType, event.AccountID, err)
	}
}
