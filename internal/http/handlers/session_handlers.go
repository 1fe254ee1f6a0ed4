package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// SessionHandlers exposes the session registry over HTTP
type SessionHandlers struct {
	sessions domain.SessionRegistry
}

// NewSessionHandlers creates new session handlers
func NewSessionHandlers(sessions domain.SessionRegistry) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

type sessionView struct {
	ID             string `json:"id"`
	Device         string `json:"device"`
	Origin         string `json:"origin"`
	LoginAt        string `json:"login_at"`
	LastActivityAt string `json:"last_activity_at"`
	Status         string `json:"status"`
	IsCurrent      bool   `json:"is_current"`
}

// List returns every active session for the account, newest login first
func (h *SessionHandlers) List(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), accountID, currentSessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:             s.ID,
			Device:         s.Device,
			Origin:         s.Origin,
			LoginAt:        s.LoginAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			LastActivityAt: s.LastActivityAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Status:         string(s.Status),
			IsCurrent:      s.IsCurrent,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sessions": views}})
}

// Revoke terminates one session by id. Revoking an already-gone session
// succeeds; revoking your own session is rejected. A session owned by a
// different account is indistinguishable from one that is already gone.
func (h *SessionHandlers) Revoke(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	sessionID := c.Param("id")
	if session, err := h.sessions.FindByID(c.Request.Context(), sessionID); err == nil && session.AccountID != accountID {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Session revoked"}})
		return
	}

	err = h.sessions.Revoke(c.Request.Context(), sessionID, currentSessionID(c))
	if err != nil {
		if err == domain.ErrCannotRevokeSelf {
			c.JSON(http.StatusConflict, gin.H{"error": "Use logout to end the current session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Session revoked"}})
}

// RevokeOthers terminates every session except the current one
func (h *SessionHandlers) RevokeOthers(c *gin.Context) {
	accountID, err := currentAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in token"})
		return
	}

	count, err := h.sessions.RevokeAllExcept(c.Request.Context(), accountID, currentSessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"revoked": count}})
}
