package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/bankauth/domain"
)

// EnrollmentServiceImpl implements domain.EnrollmentService. A method
// joins the enrolled set only after a successful verification round-trip
// with that method; a failed confirm leaves state untouched and is
// retryable without limit.
type EnrollmentServiceImpl struct {
	accountRepo domain.AccountRepository
	enrollments domain.EnrollmentRepository
	otpSvc      domain.OTPService
	totpSvc     domain.TOTPService
	publisher   domain.EventPublisher
	redisClient *redis.Client
	pendingTTL  time.Duration
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	accountRepo domain.AccountRepository,
	enrollments domain.EnrollmentRepository,
	otpSvc domain.OTPService,
	totpSvc domain.TOTPService,
	publisher domain.EventPublisher,
	redisClient *redis.Client,
) domain.EnrollmentService {
	return &EnrollmentServiceImpl{
		accountRepo: accountRepo,
		enrollments: enrollments,
		otpSvc:      otpSvc,
		totpSvc:     totpSvc,
		publisher:   publisher,
		redisClient: redisClient,
		pendingTTL:  15 * time.Minute,
	}
}

func pendingTOTPKey(accountID uint) string {
	return fmt.Sprintf("enroll:totp:%d", accountID)
}

// AvailableMethods implements domain.EnrollmentService
func (s *EnrollmentServiceImpl) AvailableMethods(ctx context.Context, accountID uint) ([]domain.MFAMethod, error) {
	enrolled, err := s.EnrolledMethods(ctx, accountID)
	if err != nil {
		return nil, err
	}

	enrolledSet := make(map[domain.MFAMethod]bool, len(enrolled))
	for _, method := range enrolled {
		enrolledSet[method] = true
	}

	available := make([]domain.MFAMethod, 0, len(domain.AllMFAMethods))
	for _, method := range domain.AllMFAMethods {
		if !enrolledSet[method] {
			available = append(available, method)
		}
	}
	return available, nil
}

// EnrolledMethods implements domain.EnrollmentService
func (s *EnrollmentServiceImpl) EnrolledMethods(ctx context.Context, accountID uint) ([]domain.MFAMethod, error) {
	enrollments, err := s.enrollments.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	methods := make([]domain.MFAMethod, 0, len(enrollments))
	for _, enrollment := range enrollments {
		methods = append(methods, enrollment.Method)
	}
	return methods, nil
}

// Start implements domain.EnrollmentService
func (s *EnrollmentServiceImpl) Start(ctx context.Context, accountID uint, method domain.MFAMethod) (*domain.EnrollmentChallenge, error) {
	enrolled, err := s.enrollments.IsEnrolled(ctx, accountID, method)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, domain.ErrMethodEnrolled
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	switch method {
	case domain.MFAMethodSMS:
		if _, err := s.otpSvc.Issue(ctx, account.Phone); err != nil {
			return nil, err
		}
		return &domain.EnrollmentChallenge{Method: method, Recipient: account.Phone}, nil

	case domain.MFAMethodEmail:
		if _, err := s.otpSvc.Issue(ctx, account.Email); err != nil {
			return nil, err
		}
		return &domain.EnrollmentChallenge{Method: method, Recipient: account.Email}, nil

	case domain.MFAMethodAuthenticator:
		secret, url, err := s.totpSvc.GenerateSecret(account.Email)
		if err != nil {
			return nil, err
		}
		// Staged until a valid code confirms the authenticator holds it.
		if err := s.redisClient.Set(ctx, pendingTOTPKey(accountID), secret, s.pendingTTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to stage TOTP secret: %w", err)
		}
		return &domain.EnrollmentChallenge{
			Method:     method,
			TOTPSecret: secret,
			TOTPURL:    url,
		}, nil

	default:
		return nil, domain.ErrMethodNotPermitted
	}
}

// Confirm implements domain.EnrollmentService
func (s *EnrollmentServiceImpl) Confirm(ctx context.Context, accountID uint, method domain.MFAMethod, proof string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	switch method {
	case domain.MFAMethodSMS:
		if err := s.otpSvc.Consume(ctx, account.Phone, proof); err != nil {
			return domain.ErrInvalidCredential
		}

	case domain.MFAMethodEmail:
		if err := s.otpSvc.Consume(ctx, account.Email, proof); err != nil {
			return domain.ErrInvalidCredential
		}

	case domain.MFAMethodAuthenticator:
		secret, err := s.redisClient.Get(ctx, pendingTOTPKey(accountID)).Result()
		if err == redis.Nil {
			return domain.ErrEnrollmentPending
		}
		if err != nil {
			return fmt.Errorf("failed to load staged TOTP secret: %w", err)
		}
		if !s.totpSvc.Validate(secret, proof) {
			return domain.ErrInvalidCredential
		}
		s.redisClient.Del(ctx, pendingTOTPKey(accountID))

	default:
		return domain.ErrMethodNotPermitted
	}

	if err := s.enrollments.Add(ctx, &domain.MFAEnrollment{
		AccountID:  accountID,
		Method:     method,
		EnrolledAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	log.Printf("MFA_ENROLLED: account_id=%d method=%s timestamp=%s",
		accountID, method, time.Now().UTC().Format(time.RFC3339))
	s.publish(domain.NewAccountEvent(domain.MFAEnrolledEvent, accountID).WithMetadata("method", string(method)))

	return nil
}

// Remove implements domain.EnrollmentService
func (s *EnrollmentServiceImpl) Remove(ctx context.Context, accountID uint, method domain.MFAMethod) error {
	if err := s.enrollments.Remove(ctx, accountID, method); err != nil {
		return err
	}

	s.publish(domain.NewAccountEvent(domain.MFAUnenrolledEvent, accountID).WithMetadata("method", string(method)))
	return nil
}

func (s *EnrollmentServiceImpl) publish(event *domain.AccountEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event.AccountID, event); err != nil {
		log.Printf("EVENT_PUBLISH_FAILED: type=%s account_id=%d error=%v", event.EventType, event.AccountID, err)
	}
}
