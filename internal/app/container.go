package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/config"
	"github.com/you/bankauth/internal/infrastructure/auth"
	"github.com/you/bankauth/internal/infrastructure/biometrics"
	"github.com/you/bankauth/internal/infrastructure/database"
	"github.com/you/bankauth/internal/infrastructure/notifications"
	"github.com/you/bankauth/internal/infrastructure/repositories"
	"github.com/you/bankauth/internal/realtime"
	"github.com/you/bankauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config

	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService
	Hub         *realtime.Hub

	AccountRepo domain.AccountRepository
	EnrollRepo  domain.EnrollmentRepository
	Sessions    domain.SessionRegistry

	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	TOTPSvc         domain.TOTPService
	OTPSvc          domain.OTPService
	AuthSvc         domain.AuthService
	EnrollSvc       domain.EnrollmentService
	StepUpSvc       domain.StepUpService
	FraudSvc        *services.FraudServiceImpl
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return nil, err
	}
	c.DB = gdb

	c.Casbin, err = auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return nil, err
	}

	c.RedisClient = database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB).Client
	if err := c.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	c.Hub = realtime.NewHub(ctx)

	c.AccountRepo = repositories.NewAccountRepository(gdb)
	c.EnrollRepo = repositories.NewEnrollmentRepository(gdb)
	c.Sessions = repositories.NewSessionRegistry(c.RedisClient, cfg.SessionIdleWindow, cfg.SessionAbsoluteTTL)

	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	c.TOTPSvc = auth.NewTOTPService(cfg.TOTPIssuer)
	c.NotificationSvc = notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)

	faceMatcher := biometrics.NewFaceMatcher(cfg.FaceMatchURL, cfg.BiometricsTimeout)
	voiceInterp := biometrics.NewVoiceInterpreter(cfg.VoiceURL, cfg.BiometricsTimeout)

	c.OTPSvc = services.NewOTPService(c.NotificationSvc, c.RedisClient, services.OTPConfig{
		Length:       cfg.OTPLength,
		TTL:          cfg.OTPTTL,
		MaxAttempts:  cfg.OTPMaxAttempts,
		ResendWindow: cfg.OTPResendWindow,
	})

	verifiers := services.NewVerifierRegistry(
		services.NewPasswordVerifier(c.PasswordSvc),
		services.NewFaceVerifier(faceMatcher, cfg.BiometricsMinConf),
		services.NewVoiceVerifier(voiceInterp),
		services.NewOTPVerifier(c.OTPSvc),
	)

	c.AuthSvc = services.NewAuthService(c.AccountRepo, c.Sessions, verifiers, c.TokenSvc, c.Hub, c.RedisClient, services.LoginConfig{
		MaxFailures:   cfg.LoginMaxFailures,
		LockoutWindow: cfg.LoginLockoutWindow,
	})
	c.EnrollSvc = services.NewEnrollmentService(c.AccountRepo, c.EnrollRepo, c.OTPSvc, c.TOTPSvc, c.Hub, c.RedisClient)
	c.StepUpSvc = services.NewStepUpService(cfg.StepUpRules, c.AccountRepo, verifiers, c.OTPSvc, c.Hub, cfg.StepUpTimeout)
	c.FraudSvc = services.NewFraudService(c.Sessions, c.AccountRepo, c.Hub)

	return c, nil
}
