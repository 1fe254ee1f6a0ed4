package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/services"
)

// FraudHandlers presents fraud alerts and accepts decisions
type FraudHandlers struct {
	fraudSvc *services.FraudServiceImpl
}

// NewFraudHandlers creates new fraud handlers
func NewFraudHandlers(fraudSvc *services.FraudServiceImpl) *FraudHandlers {
	return &FraudHandlers{fraudSvc: fraudSvc}
}

// Current returns the visible alert for the account, if any
func (h *FraudHandlers) Current(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	alert, err := h.fraudSvc.Current(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alert"})
		return
	}
	if alert == nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"alert": nil}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"alert": alert}})
}

// Decide resolves the visible alert with one of its offered decisions
func (h *FraudHandlers) Decide(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.fraudSvc.Decide(c.Request.Context(), accountID, c.Param("id"), req.Decision, currentSessionID(c))
	if err != nil {
		switch err {
		case domain.ErrAlertNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		case domain.ErrUnknownDecision:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Decision not offered for this alert"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply decision"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message":         "Decision applied",
			"stepup_required": h.fraudSvc.StepUpRequired(accountID),
		},
	})
}
