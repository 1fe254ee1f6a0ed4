package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errNoIdentity = errors.New("no identity in request context")

// currentAccountID reads the authenticated account id set by the auth middleware
func currentAccountID(c *gin.Context) (uint, error) {
	raw, exists := c.Get("account_id")
	if !exists {
		return 0, errNoIdentity
	}
	id, err := strconv.ParseUint(raw.(string), 10, 32)
	if err != nil {
		return 0, errNoIdentity
	}
	return uint(id), nil
}

// currentSessionID reads the session id set by the auth middleware
func currentSessionID(c *gin.Context) string {
	raw, exists := c.Get("session_id")
	if !exists {
		return ""
	}
	return raw.(string)
}
