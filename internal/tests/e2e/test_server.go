package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/config"
	httpx "github.com/you/bankauth/internal/http"
	"github.com/you/bankauth/internal/http/handlers"
	"github.com/you/bankauth/internal/http/middleware"
	"github.com/you/bankauth/internal/infrastructure/auth"
	"github.com/you/bankauth/internal/infrastructure/repositories"
	"github.com/you/bankauth/internal/mocks"
	"github.com/you/bankauth/internal/realtime"
	"github.com/you/bankauth/internal/services"
)

// TestServer wires the full stack in-process: sqlite for persistence,
// miniredis for volatile state, mocks for the external collaborators.
type TestServer struct {
	Router *gin.Engine

	DB    *gorm.DB
	Redis *miniredis.Miniredis

	Notifications *mocks.MockNotificationService
	PasswordSvc   domain.PasswordService
	FraudSvc      *services.FraudServiceImpl
	Hub           *realtime.Hub
	RedisClnt     *redis.Client
}

// NewTestServer builds the application stack for end-to-end tests
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&repositories.DBAccount{}, &repositories.DBEnrollment{}))

	enforcer, err := casbin.NewEnforcer("../../../config/rbac_model.conf")
	require.NoError(t, err)
	enforcer.AddPolicy("customer", "/auth/me", "GET")
	enforcer.AddPolicy("customer", "/auth/logout", "POST")
	enforcer.AddPolicy("customer", "/sessions", "GET")
	enforcer.AddPolicy("customer", "/sessions/*", "(POST|DELETE)")
	enforcer.AddPolicy("customer", "/mfa/*", "(GET|POST|DELETE)")
	enforcer.AddPolicy("customer", "/stepup", "POST")
	enforcer.AddPolicy("customer", "/stepup/*", "POST")
	enforcer.AddPolicy("customer", "/fraud/*", "(GET|POST)")

	hub := realtime.NewHub(context.Background())
	t.Cleanup(hub.Stop)

	accountRepo := repositories.NewAccountRepository(gdb)
	enrollRepo := repositories.NewEnrollmentRepository(gdb)
	sessions := repositories.NewSessionRegistry(rdb, 10*time.Minute, 24*time.Hour)

	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService("e2e-test-secret", "bankauth-test", 15*time.Minute, 24*time.Hour)
	totpSvc := auth.NewTOTPService("bankauth-test")
	notifications := mocks.NewMockNotificationService()

	otpSvc := services.NewOTPService(notifications, rdb, services.OTPConfig{
		Length:       6,
		TTL:          5 * time.Minute,
		MaxAttempts:  5,
		ResendWindow: 30 * time.Second,
	})

	verifiers := services.NewVerifierRegistry(
		services.NewPasswordVerifier(passwordSvc),
		services.NewFaceVerifier(mocks.NewMockFaceMatcher(), 0.85),
		services.NewVoiceVerifier(mocks.NewMockVoiceInterpreter()),
		services.NewOTPVerifier(otpSvc),
	)

	authSvc := services.NewAuthService(accountRepo, sessions, verifiers, tokenSvc, hub, rdb, services.LoginConfig{
		MaxFailures:   5,
		LockoutWindow: 15 * time.Minute,
	})
	enrollSvc := services.NewEnrollmentService(accountRepo, enrollRepo, otpSvc, totpSvc, hub, rdb)
	stepUpSvc := services.NewStepUpService([]config.StepUpRule{
		{Action: "transfer.external", Methods: []string{"otp", "face"}},
		{Action: "payee.add", Methods: []string{"otp"}},
	}, accountRepo, verifiers, otpSvc, hub, 5*time.Minute)
	fraudSvc := services.NewFraudService(sessions, accountRepo, hub)

	router := httpx.BuildRouter(
		handlers.NewAuthHandlers(authSvc, otpSvc),
		handlers.NewSessionHandlers(sessions),
		handlers.NewMFAHandlers(enrollSvc),
		handlers.NewStepUpHandlers(stepUpSvc),
		handlers.NewFraudHandlers(fraudSvc),
		realtime.NewHandler(hub),
		middleware.NewAuthMW(tokenSvc, sessions),
		middleware.NewCasbinMW(enforcer),
	)

	return &TestServer{
		Router:        router,
		DB:            gdb,
		Redis:         mr,
		Notifications: notifications,
		PasswordSvc:   passwordSvc,
		FraudSvc:      fraudSvc,
		Hub:           hub,
		RedisClnt:     rdb,
	}
}
