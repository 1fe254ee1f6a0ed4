package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/bankauth/domain"
)

// OTPServiceImpl implements domain.OTPService using Redis persistence.
// At most one active challenge exists per recipient: issuing overwrites
// the stored code, so the prior code can never verify again.
type OTPServiceImpl struct {
	notificationSvc domain.NotificationService
	redisClient     *redis.Client
	config          OTPConfig
}

type OTPConfig struct {
	Length       int
	TTL          time.Duration
	MaxAttempts  int
	ResendWindow time.Duration
}

// NewOTPService creates a new Redis-based OTP service
func NewOTPService(notificationSvc domain.NotificationService, redisClient *redis.Client, config OTPConfig) domain.OTPService {
	return &OTPServiceImpl{
		notificationSvc: notificationSvc,
		redisClient:     redisClient,
		config:          config,
	}
}

func otpKey(recipient string) string      { return "otp:" + recipient }
func attemptsKey(recipient string) string { return "otp:att:" + recipient }
func resendKey(recipient string) string   { return "otp:res:" + recipient }

// Issue implements domain.OTPService. A new challenge supersedes any
// prior active one for the recipient (last-issue-wins).
func (s *OTPServiceImpl) Issue(ctx context.Context, recipient string) (*domain.OTPChallenge, error) {
	if wait, err := s.ResendAvailableIn(ctx, recipient); err != nil {
		return nil, err
	} else if wait > 0 {
		return nil, domain.ErrOTPCooldown
	}

	code, err := s.generateSecureCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	if err := s.redisClient.Set(ctx, otpKey(recipient), code, s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store OTP in Redis: %w", err)
	}
	if err := s.redisClient.Set(ctx, attemptsKey(recipient), 0, s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to initialize attempts counter: %w", err)
	}
	if err := s.redisClient.Set(ctx, resendKey(recipient), 1, s.config.ResendWindow).Err(); err != nil {
		return nil, fmt.Errorf("failed to set resend throttle: %w", err)
	}

	now := time.Now()
	challenge := &domain.OTPChallenge{
		Recipient:         recipient,
		Code:              code,
		IssuedAt:          now,
		ExpiresAt:         now.Add(s.config.TTL),
		AttemptsRemaining: s.config.MaxAttempts,
	}

	message := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.deliver(recipient, message); err != nil {
		// Roll back so a retried issue starts clean (at-least-once dispatch
		// is the caller retrying the whole operation).
		s.redisClient.Del(ctx, otpKey(recipient), attemptsKey(recipient), resendKey(recipient))
		return nil, fmt.Errorf("failed to deliver OTP: %w", err)
	}

	return challenge, nil
}

// consumeScript compares and spends the stored code in one atomic step,
// so exactly one concurrent caller can succeed with a given code. A
// mismatch leaves the challenge in place for another attempt.
var consumeScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if stored == false then
	return -1
end
if stored ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1], KEYS[2])
return 1
`)

// Consume implements domain.OTPService. The attempt counter moves on
// every call; once spent, even the correct code is rejected. A consumed
// challenge is destroyed and can never succeed again.
func (s *OTPServiceImpl) Consume(ctx context.Context, recipient, code string) error {
	attempts, err := s.redisClient.Incr(ctx, attemptsKey(recipient)).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	if attempts == 1 {
		// Incr may have created the counter (no challenge was ever
		// issued); bound it so junk recipients leave no permanent keys.
		s.redisClient.Expire(ctx, attemptsKey(recipient), s.config.TTL)
	}

	if attempts > int64(s.config.MaxAttempts) {
		s.redisClient.Del(ctx, otpKey(recipient), attemptsKey(recipient))
		return domain.ErrOTPExhausted
	}

	res, err := consumeScript.Run(ctx, s.redisClient, []string{otpKey(recipient), attemptsKey(recipient)}, code).Int()
	if err != nil {
		return fmt.Errorf("failed to consume OTP: %w", err)
	}
	switch res {
	case -1:
		return domain.ErrOTPExpired
	case 0:
		return domain.ErrOTPInvalid
	}
	return nil
}

// Invalidate implements domain.OTPService. The resend throttle stays in
// place so invalidation cannot be used to dodge the cooldown.
func (s *OTPServiceImpl) Invalidate(ctx context.Context, recipient string) error {
	return s.redisClient.Del(ctx, otpKey(recipient), attemptsKey(recipient)).Err()
}

// ResendAvailableIn implements domain.OTPService with Redis-based throttling
func (s *OTPServiceImpl) ResendAvailableIn(ctx context.Context, recipient string) (time.Duration, error) {
	ttl, err := s.redisClient.TTL(ctx, resendKey(recipient)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check resend TTL: %w", err)
	}

	// TTL <= 0 means the key does not exist or has expired
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *OTPServiceImpl) deliver(recipient, message string) error {
	if strings.Contains(recipient, "@") {
		return s.notificationSvc.SendEmail(recipient, "Your verification code", message)
	}
	return s.notificationSvc.SendSMS(recipient, message)
}

// generateSecureCode generates a cryptographically secure OTP code
func (s *OTPServiceImpl) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)

	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}
