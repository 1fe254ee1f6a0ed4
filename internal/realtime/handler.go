package realtime

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated requests into room subscriptions
type Handler struct {
	hub *Hub
}

// NewHandler creates a new realtime handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS handles websocket requests. The auth middleware has already
// resolved the caller's account; the client joins exactly that room.
// Switching accounts means a new connection with a new token - the old
// subscription dies with the old connection.
func (h *Handler) ServeWS(c *gin.Context) {
	accountIDStr, exists := c.Get("account_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	accountID, err := strconv.ParseUint(accountIDStr.(string), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WS_UPGRADE_ERROR: error=%v", err)
		return
	}

	client := NewClient(h.hub, conn, uuid.New().String())
	h.hub.Subscribe(client, uint(accountID))

	go client.WritePump()
	go client.ReadPump()
}
