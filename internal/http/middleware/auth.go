package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// AuthMW wraps the token service and session registry for middleware
type AuthMW struct {
	tokenSvc domain.TokenService
	sessions domain.SessionRegistry
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, sessions domain.SessionRegistry) *AuthMW {
	return &AuthMW{
		tokenSvc: tokenSvc,
		sessions: sessions,
	}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.tokenSvc, mw.sessions)
}
