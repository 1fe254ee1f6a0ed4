package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/you/bankauth/domain"
)

// Hub maintains active WebSocket clients grouped into per-account rooms.
// A client belongs to exactly one room; re-subscribing with a different
// account tears down the old membership first, so one account's alerts
// can never reach another account's client after a quick account switch.
type Hub struct {
	rooms map[uint]map[*Client]bool

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new realtime hub
func NewHub(ctx context.Context) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		rooms:  make(map[uint]map[*Client]bool),
		ctx:    hubCtx,
		cancel: cancel,
	}
}

// Subscribe joins a client to the room for accountID, leaving any room
// it previously occupied.
func (h *Hub) Subscribe(client *Client, accountID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.accountID != 0 && client.accountID != accountID {
		h.leave(client)
	}

	client.accountID = accountID
	room, ok := h.rooms[accountID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[accountID] = room
	}
	room[client] = true
}

// Unsubscribe removes a client from its room and closes its send channel
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.leave(client) {
		close(client.send)
	}
}

// leave removes the client from its room. Callers hold h.mu.
func (h *Hub) leave(client *Client) bool {
	room, ok := h.rooms[client.accountID]
	if !ok {
		return false
	}
	if _, member := room[client]; !member {
		return false
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.accountID)
	}
	return true
}

// Publish implements domain.EventPublisher: the event goes to every
// client in the account's room. Slow clients are dropped rather than
// allowed to block the hub.
func (h *Hub) Publish(accountID uint, event *domain.AccountEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[accountID]
	if !ok {
		return nil
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			delete(room, client)
			close(client.send)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, accountID)
	}

	return nil
}

// RoomSize returns the number of clients subscribed for an account
func (h *Hub) RoomSize(accountID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[accountID])
}

// Stop closes every client connection and shuts the hub down
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()

	for accountID, room := range h.rooms {
		for client := range room {
			close(client.send)
			delete(room, client)
		}
		delete(h.rooms, accountID)
	}
}

// Done exposes hub shutdown to client pumps
func (h *Hub) Done() <-chan struct{} {
	return h.ctx.Done()
}
