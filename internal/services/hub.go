package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/spacesugam/RA/internal/models"
)

// Hub is the live connection registry. It knows which clients are still
// connected and which clients belong to which battle, and fans broadcasts
// out to battle members (players and spectators alike).
type Hub struct {
	// All live clients by ID
	clients map[string]*Client

	// Battle membership: battleID -> clientID -> client
	battles map[string]map[string]*Client

	metrics *Metrics

	mu sync.RWMutex
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		battles: make(map[string]map[string]*Client),
		metrics: metrics,
	}
}

// Register adds a freshly accepted connection to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	h.metrics.IncrementConnections()
	log.Printf("✓ WebSocket registered: client=%s (total: %d)", c.ID, len(h.clients))
}

// Unregister drops a connection from the registry and from every battle
// member set it belonged to.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	for battleID, members := range h.battles {
		if _, ok := members[c.ID]; ok {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.battles, battleID)
			}
		}
	}
	h.metrics.DecrementConnections()
}

// IsLive reports whether a client ID still maps to a live connection.
func (h *Hub) IsLive(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

// Join adds a live client to a battle's member set. Joining with a dead
// client ID is a no-op.
func (h *Hub) Join(battleID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	if h.battles[battleID] == nil {
		h.battles[battleID] = make(map[string]*Client)
	}
	h.battles[battleID][c.ID] = c
}

// Leave removes a client from a battle's member set without closing it.
func (h *Hub) Leave(battleID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.battles[battleID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.battles, battleID)
		}
	}
}

// DropBattle clears a battle's member set entirely (directory purge).
func (h *Hub) DropBattle(battleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.battles, battleID)
}

// BroadcastToBattle sends a message to every member of a battle in
// server-side append order. Delivery per client goes through the client's
// buffered send queue.
func (h *Hub) BroadcastToBattle(battleID string, message *models.WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		h.metrics.IncrementBroadcastErrors()
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.battles[battleID]))
	for _, c := range h.battles[battleID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(data)
	}
}

// SendToClient sends a message to a single client.
func (h *Hub) SendToClient(c *Client, message *models.WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		h.metrics.IncrementBroadcastErrors()
		return
	}
	c.Send(data)
}

// SendTo sends a message to a client by ID. Sending to a dead client ID is
// a no-op.
func (h *Hub) SendTo(clientID string, message *models.WSMessage) {
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.SendToClient(c, message)
}
