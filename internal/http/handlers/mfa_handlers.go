package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// MFAHandlers drives the enrollment wizard over HTTP
type MFAHandlers struct {
	enrollSvc domain.EnrollmentService
}

// NewMFAHandlers creates new MFA handlers
func NewMFAHandlers(enrollSvc domain.EnrollmentService) *MFAHandlers {
	return &MFAHandlers{enrollSvc: enrollSvc}
}

// Methods lists enrolled methods and those still available to enroll
func (h *MFAHandlers) Methods(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	enrolled, err := h.enrollSvc.EnrolledMethods(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list methods"})
		return
	}
	available, err := h.enrollSvc.AvailableMethods(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list methods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"enrolled":  enrolled,
			"available": available,
		},
	})
}

// StartEnroll begins enrollment for a method
func (h *MFAHandlers) StartEnroll(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	var req struct {
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.enrollSvc.Start(c.Request.Context(), accountID, domain.MFAMethod(req.Method))
	if err != nil {
		switch err {
		case domain.ErrMethodEnrolled:
			c.JSON(http.StatusConflict, gin.H{"error": "Method already enrolled"})
		case domain.ErrMethodNotPermitted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown enrollment method"})
		case domain.ErrOTPCooldown:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Resend not available yet"})
		case domain.ErrNetworkUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Delivery service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start enrollment"})
		}
		return
	}

	body := gin.H{"method": challenge.Method}
	if challenge.Recipient != "" {
		body["recipient"] = challenge.Recipient
	}
	// The authenticator secret is shown once, at enrollment start only.
	if challenge.TOTPSecret != "" {
		body["totp_secret"] = challenge.TOTPSecret
		body["totp_url"] = challenge.TOTPURL
	}

	c.JSON(http.StatusOK, gin.H{"data": body})
}

// ConfirmEnroll completes enrollment with the user's proof
func (h *MFAHandlers) ConfirmEnroll(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	var req struct {
		Method string `json:"method" binding:"required"`
		Proof  string `json:"proof" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.enrollSvc.Confirm(c.Request.Context(), accountID, domain.MFAMethod(req.Method), req.Proof)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredential, domain.ErrOTPInvalid:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect code"})
		case domain.ErrOTPExpired, domain.ErrEnrollmentPending:
			c.JSON(http.StatusGone, gin.H{"error": "Enrollment expired, start again"})
		case domain.ErrOTPExhausted:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, start again"})
		case domain.ErrMethodEnrolled:
			c.JSON(http.StatusConflict, gin.H{"error": "Method already enrolled"})
		case domain.ErrMethodNotPermitted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown enrollment method"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm enrollment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Method enrolled"}})
}

// Unenroll removes an enrolled method
func (h *MFAHandlers) Unenroll(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	err = h.enrollSvc.Remove(c.Request.Context(), accountID, domain.MFAMethod(c.Param("method")))
	if err != nil {
		if err == domain.ErrMethodNotEnrolled {
			c.JSON(http.StatusNotFound, gin.H{"error": "Method not enrolled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove method"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Method removed"}})
}
