package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	otpSvc  domain.OTPService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, otpSvc domain.OTPService) *AuthHandlers {
	return &AuthHandlers{
		authSvc: authSvc,
		otpSvc:  otpSvc,
	}
}

// CredentialPayload is the wire form of the credential union. Method
// selects the variant; binary samples travel base64-encoded.
type CredentialPayload struct {
	Method         string `json:"method" binding:"required"`
	Password       string `json:"password,omitempty"`
	FaceDescriptor string `json:"face_descriptor,omitempty"`
	VoiceSample    string `json:"voice_sample,omitempty"`
	Code           string `json:"code,omitempty"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email      string            `json:"email" binding:"required,email"`
	Credential CredentialPayload `json:"credential" binding:"required"`
	Device     string            `json:"device"`
	Origin     string            `json:"origin"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func decodeCredential(p CredentialPayload) (domain.Credential, error) {
	cred := domain.Credential{Method: domain.CredentialMethod(p.Method)}
	switch cred.Method {
	case domain.MethodPassword:
		cred.Password = p.Password
	case domain.MethodFace:
		raw, err := base64.StdEncoding.DecodeString(p.FaceDescriptor)
		if err != nil {
			return cred, err
		}
		cred.FaceDescriptor = raw
	case domain.MethodVoice:
		raw, err := base64.StdEncoding.DecodeString(p.VoiceSample)
		if err != nil {
			return cred, err
		}
		cred.VoiceSample = raw
	case domain.MethodOTP:
		cred.OTPCode = p.Code
	}
	return cred, nil
}

// Login handles account login with any supported credential method
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := decodeCredential(req.Credential)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed credential encoding"})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, cred, req.Device, req.Origin)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredential:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case domain.ErrAccountLocked:
			c.JSON(http.StatusLocked, gin.H{"error": "Account temporarily locked"})
		case domain.ErrNetworkUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token":  result.AccessToken,
			"refresh_token": result.RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    result.ExpiresIn,
			"session_id":    result.SessionID,
			"account": gin.H{
				"id":    result.Account.ID,
				"email": result.Account.Email,
				"role":  result.Account.Role,
			},
		},
	})
}

// SendOTP issues a one-time passcode to a recipient
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req struct {
		Recipient string `json:"recipient" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.otpSvc.Issue(c.Request.Context(), req.Recipient)
	if err != nil {
		switch err {
		case domain.ErrOTPCooldown:
			wait, _ := h.otpSvc.ResendAvailableIn(c.Request.Context(), req.Recipient)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Resend not available yet",
				"retry_after": int64(wait.Seconds()),
			})
		case domain.ErrNetworkUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Delivery service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message":    "Code sent",
			"expires_at": challenge.ExpiresAt,
		},
	})
}

// VerifyOTP consumes a previously issued passcode
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req struct {
		Recipient string `json:"recipient" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.otpSvc.Consume(c.Request.Context(), req.Recipient, req.Code); err != nil {
		switch err {
		case domain.ErrOTPExpired:
			c.JSON(http.StatusGone, gin.H{"error": "Code expired"})
		case domain.ErrOTPInvalid:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		case domain.ErrOTPExhausted:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, request a new code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Code verified"}})
}

// Refresh exchanges a refresh token for a new access token
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case domain.ErrTokenExpired:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		case domain.ErrTokenInvalid, domain.ErrTokenMalformed:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		case domain.ErrSessionNotFound, domain.ErrSessionExpired:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session no longer active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token refresh failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": result.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   result.ExpiresIn,
		},
	})
}

// Logout ends the current session
func (h *AuthHandlers) Logout(c *gin.Context) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), sessionID.(string)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out"}})
}

// Me returns the authenticated account profile
func (h *AuthHandlers) Me(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	account, err := h.authSvc.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":        account.ID,
			"email":     account.Email,
			"phone":     account.Phone,
			"role":      account.Role,
			"is_active": account.IsActive,
		},
	})
}
