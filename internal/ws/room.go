package ws

import (
	"sync"

	"stablecircle/internal/logger"
)

// Room is the set of live connections for one savings hub.
type Room struct {
	HubID   string
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewRoom(hubID string) *Room {
	return &Room{HubID: hubID, clients: make(map[*Client]struct{})}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

// Leave removes c and reports how many clients remain.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast queues data for every client. A client whose buffer is full
// misses the frame; history covers the gap.
func (r *Room) Broadcast(data []byte) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			logger.Warn("ws send buffer full, dropping frame", "hub_id", r.HubID, "wallet", c.Wallet)
		}
	}
}
