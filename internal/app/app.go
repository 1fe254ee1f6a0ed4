package app

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/internal/config"
	httpx "github.com/you/bankauth/internal/http"
	"github.com/you/bankauth/internal/http/handlers"
	"github.com/you/bankauth/internal/http/middleware"
	"github.com/you/bankauth/internal/realtime"
)

func Run(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(ctx, cfg)
	if err != nil {
		return err
	}

	authH := handlers.NewAuthHandlers(c.AuthSvc, c.OTPSvc)
	sessH := handlers.NewSessionHandlers(c.Sessions)
	mfaH := handlers.NewMFAHandlers(c.EnrollSvc)
	stepH := handlers.NewStepUpHandlers(c.StepUpSvc)
	fraudH := handlers.NewFraudHandlers(c.FraudSvc)
	wsH := realtime.NewHandler(c.Hub)

	jwtMW := middleware.NewAuthMW(c.TokenSvc, c.Sessions)
	casbinMW := middleware.NewCasbinMW(c.Casbin.E)

	r := httpx.BuildRouter(authH, sessH, mfaH, stepH, fraudH, wsH, jwtMW, casbinMW)

	policies, _ := c.Casbin.E.GetPolicy()
	if len(policies) == 0 {
		c.Casbin.E.AddPolicy("customer", "/auth/me", "GET")
		c.Casbin.E.AddPolicy("customer", "/auth/logout", "POST")
		c.Casbin.E.AddPolicy("customer", "/sessions", "GET")
		c.Casbin.E.AddPolicy("customer", "/sessions/*", "(POST|DELETE)")
		c.Casbin.E.AddPolicy("customer", "/mfa/*", "(GET|POST|DELETE)")
		c.Casbin.E.AddPolicy("customer", "/stepup", "POST")
		c.Casbin.E.AddPolicy("customer", "/stepup/*", "POST")
		c.Casbin.E.AddPolicy("customer", "/fraud/*", "(GET|POST)")
		_ = c.Casbin.E.SavePolicy()
		log.Println("casbin: seeded default policies")
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
