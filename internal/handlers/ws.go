package handlers

import (
	"encoding/json"
	"log"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"

	"github.com/spacesugam/RA/internal/models"
	"github.com/spacesugam/RA/internal/security"
	"github.com/spacesugam/RA/internal/services"
)

// WSHandler accepts WebSocket connections and dispatches inbound frames to
// the battle manager. One connection handle (client ID) per socket; the
// origin token is derived once at accept time.
type WSHandler struct {
	hub      *services.Hub
	manager  *services.BattleManager
	identity *services.IdentityHasher
	origins  *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, manager *services.BattleManager, identity *services.IdentityHasher, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:      hub,
		manager:  manager,
		identity: identity,
		origins:  origins,
	}
}

func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	origin := h.identity.OriginToken(re.Request)

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "")

	client := services.NewClient(conn, h.hub, origin, h.handleMessage, h.handleClose)
	h.hub.Register(client)

	// Blocks until the read pump exits.
	client.Start()
	return nil
}

// handleClose fires exactly once per connection: drop it from the registry
// first so liveness checks see it gone, then let the manager react.
func (h *WSHandler) handleClose(c *services.Client) {
	h.hub.Unregister(c)
	h.manager.HandleDisconnect(c.ID)
}

// inbound payloads
type joinQueuePayload struct {
	Name string `json:"name"`
}

type sendLinePayload struct {
	BattleID string `json:"battleId"`
	Text     string `json:"text"`
}

type joinSpectatePayload struct {
	BattleID string `json:"battleId"`
	Name     string `json:"name"`
}

type sendReactionPayload struct {
	BattleID string `json:"battleId"`
	Emoji    string `json:"emoji"`
}

type leavePayload struct {
	BattleID string `json:"battleId"`
}

func (h *WSHandler) handleMessage(c *services.Client, data []byte) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Printf("Error unmarshaling message (client=%s): %v", c.ID, err)
		return
	}

	if !security.IsValidMessageType(envelope.Type) {
		h.sendError(c, "Unknown message type")
		return
	}

	switch envelope.Type {
	case models.MsgTypeJoinQueue:
		var p joinQueuePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(c, "Invalid join_queue payload")
			return
		}
		h.manager.JoinQueue(c.ID, c.Origin, p.Name)

	case models.MsgTypeSendLine:
		var p sendLinePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(c, "Invalid send_line payload")
			return
		}
		h.manager.ReceiveLine(c.ID, p.BattleID, p.Text)

	case models.MsgTypeJoinSpectate:
		var p joinSpectatePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(c, "Invalid join_spectate payload")
			return
		}
		h.manager.JoinSpectate(c.ID, p.BattleID, p.Name)

	case models.MsgTypeSendReaction:
		var p sendReactionPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(c, "Invalid send_reaction payload")
			return
		}
		h.manager.SendReaction(c.ID, p.BattleID, p.Emoji)

	case models.MsgTypeLeave:
		var p leavePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			h.sendError(c, "Invalid leave payload")
			return
		}
		h.manager.Leave(c.ID, p.BattleID)
	}
}

func (h *WSHandler) sendError(c *services.Client, message string) {
	h.hub.SendToClient(c, &models.WSMessage{
		Type:    models.MsgTypeError,
		Payload: map[string]string{"message": message},
	})
}
