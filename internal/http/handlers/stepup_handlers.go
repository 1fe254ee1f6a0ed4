package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// StepUpHandlers exposes the step-up verification gate over HTTP
type StepUpHandlers struct {
	stepUpSvc domain.StepUpService
}

// NewStepUpHandlers creates new step-up handlers
func NewStepUpHandlers(stepUpSvc domain.StepUpService) *StepUpHandlers {
	return &StepUpHandlers{stepUpSvc: stepUpSvc}
}

// Begin opens a step-up challenge for a protected action
func (h *StepUpHandlers) Begin(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.stepUpSvc.Begin(c.Request.Context(), accountID, req.Action, domain.CredentialMethod(req.Method))
	if err != nil {
		switch err {
		case domain.ErrActionNotProtected:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Action does not require step-up"})
		case domain.ErrMethodNotPermitted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Method not allowed for this action"})
		case domain.ErrOTPCooldown:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Resend not available yet"})
		case domain.ErrNetworkUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Delivery service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin step-up"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"challenge_id": challenge.ID,
			"action":       challenge.Action,
			"method":       challenge.Method,
			"state":        challenge.State,
			"expires_at":   challenge.ExpiresAt,
		},
	})
}

// Verify submits the credential for a pending challenge
func (h *StepUpHandlers) Verify(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	var req struct {
		Credential CredentialPayload `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := decodeCredential(req.Credential)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed credential encoding"})
		return
	}

	challenge, err := h.stepUpSvc.Verify(c.Request.Context(), accountID, c.Param("id"), cred)
	if err != nil {
		switch err {
		case domain.ErrChallengeNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		case domain.ErrStepUpExpired:
			c.JSON(http.StatusGone, gin.H{"error": "Challenge expired"})
		case domain.ErrInvalidCredential:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification failed"})
		case domain.ErrNetworkUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Step-up verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"challenge_id": challenge.ID,
			"state":        challenge.State,
		},
	})
}

// Cancel abandons a pending challenge without side effects
func (h *StepUpHandlers) Cancel(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	if err := h.stepUpSvc.Cancel(c.Request.Context(), accountID, c.Param("id")); err != nil {
		if err == domain.ErrChallengeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Challenge cancelled"}})
}

// Consume redeems a verified challenge exactly once
func (h *StepUpHandlers) Consume(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	if err := h.stepUpSvc.Consume(c.Request.Context(), accountID, c.Param("id")); err != nil {
		switch err {
		case domain.ErrChallengeNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		case domain.ErrChallengeNotVerified:
			c.JSON(http.StatusConflict, gin.H{"error": "Challenge not verified"})
		case domain.ErrChallengeConsumed:
			c.JSON(http.StatusConflict, gin.H{"error": "Challenge already used"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to consume challenge"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Challenge consumed"}})
}
