package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/internal/http/handlers"
	"github.com/you/bankauth/internal/http/middleware"
	"github.com/you/bankauth/internal/realtime"
)

func BuildRouter(
	ah *handlers.AuthHandlers,
	sh *handlers.SessionHandlers,
	mh *handlers.MFAHandlers,
	uh *handlers.StepUpHandlers,
	fh *handlers.FraudHandlers,
	ws *realtime.Handler,
	jwtmw *middleware.AuthMW,
	cb *middleware.CasbinMW,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/login", ah.Login)
	auth.POST("/otp/send", ah.SendOTP)
	auth.POST("/otp/verify", ah.VerifyOTP)
	auth.POST("/refresh", ah.Refresh)

	v := r.Group("/").Use(jwtmw.WithJWT(), cb.Enforce())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)

	v.GET("/sessions", sh.List)
	v.DELETE("/sessions/:id", sh.Revoke)
	v.POST("/sessions/revoke-others", sh.RevokeOthers)

	v.GET("/mfa/methods", mh.Methods)
	v.POST("/mfa/enroll/start", mh.StartEnroll)
	v.POST("/mfa/enroll/confirm", mh.ConfirmEnroll)
	v.DELETE("/mfa/:method", mh.Unenroll)

	v.POST("/stepup", uh.Begin)
	v.POST("/stepup/:id/verify", uh.Verify)
	v.POST("/stepup/:id/cancel", uh.Cancel)
	v.POST("/stepup/:id/consume", uh.Consume)

	v.GET("/fraud/alert", fh.Current)
	v.POST("/fraud/alert/:id/decide", fh.Decide)

	// WebSocket upgrades skip the casbin layer; identity still comes
	// from the JWT middleware.
	r.GET("/ws", jwtmw.WithJWT(), ws.ServeWS)

	return r
}
