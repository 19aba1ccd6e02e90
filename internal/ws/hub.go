package ws

import (
	"sync"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
)

// Hub tracks one chat Room per savings hub. It implements
// service.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

func (h *Hub) join(c *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[c.HubID]
	if !ok {
		r = NewRoom(c.HubID)
		h.rooms[c.HubID] = r
	}
	r.Join(c)
	logger.Debug("ws client joined", "hub_id", c.HubID, "wallet", c.Wallet, "clients", r.Len())
	return r
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[c.HubID]
	if !ok {
		return
	}
	if r.Leave(c) == 0 {
		delete(h.rooms, c.HubID)
	}
	logger.Debug("ws client left", "hub_id", c.HubID, "wallet", c.Wallet)
}

// Broadcast pushes a stored message to everyone connected to the hub.
func (h *Hub) Broadcast(hubID string, msg *domain.Message) {
	h.mu.RLock()
	r := h.rooms[hubID]
	h.mu.RUnlock()
	if r == nil {
		return
	}
	r.Broadcast(encode(MsgNewMessage, msg))
}

// Connections returns the number of live clients for hubID.
func (h *Hub) Connections(hubID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r := h.rooms[hubID]; r != nil {
		return r.Len()
	}
	return 0
}
