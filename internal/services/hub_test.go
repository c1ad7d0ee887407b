package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesugam/RA/internal/models"
)

// registerTestClient registers a client without starting its pumps, so the
// send channel can be inspected directly.
func registerTestClient(hub *Hub) *Client {
	c := NewClient(nil, hub, "origin-test", nil, nil)
	hub.Register(c)
	return c
}

func drainOne(t *testing.T, c *Client) *models.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg models.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	default:
		return nil
	}
}

func TestHub_RegisterAndLiveness(t *testing.T) {
	hub := NewHub(NewMetrics())
	c := registerTestClient(hub)

	assert.True(t, hub.IsLive(c.ID))
	hub.Unregister(c)
	assert.False(t, hub.IsLive(c.ID))
}

func TestHub_BroadcastReachesAllBattleMembers(t *testing.T) {
	hub := NewHub(NewMetrics())
	player := registerTestClient(hub)
	spectator := registerTestClient(hub)
	outsider := registerTestClient(hub)

	hub.Join("battle-1", player.ID)
	hub.Join("battle-1", spectator.ID)

	hub.BroadcastToBattle("battle-1", &models.WSMessage{Type: models.MsgTypeRoundChanged})

	require.NotNil(t, drainOne(t, player))
	require.NotNil(t, drainOne(t, spectator))
	assert.Nil(t, drainOne(t, outsider))
}

func TestHub_JoinDeadClientIsNoOp(t *testing.T) {
	hub := NewHub(NewMetrics())

	hub.Join("battle-1", "no-such-client")
	hub.BroadcastToBattle("battle-1", &models.WSMessage{Type: models.MsgTypeNewLine})
	// Nothing to assert beyond not panicking on an empty member set.
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(NewMetrics())
	c := registerTestClient(hub)
	hub.Join("battle-1", c.ID)

	hub.Leave("battle-1", c.ID)
	hub.BroadcastToBattle("battle-1", &models.WSMessage{Type: models.MsgTypeNewLine})

	assert.Nil(t, drainOne(t, c))
	assert.True(t, hub.IsLive(c.ID), "leaving a battle must not kill the connection")
}

func TestHub_UnregisterRemovesFromAllBattles(t *testing.T) {
	hub := NewHub(NewMetrics())
	c := registerTestClient(hub)
	hub.Join("battle-1", c.ID)
	hub.Join("battle-2", c.ID)

	hub.Unregister(c)

	hub.BroadcastToBattle("battle-1", &models.WSMessage{Type: models.MsgTypeNewLine})
	hub.BroadcastToBattle("battle-2", &models.WSMessage{Type: models.MsgTypeNewLine})
	assert.Nil(t, drainOne(t, c))
}

func TestHub_SendToUnknownClientIsNoOp(t *testing.T) {
	hub := NewHub(NewMetrics())
	hub.SendTo("no-such-client", &models.WSMessage{Type: models.MsgTypeError})
}

func TestHub_SendToDeliversDirectly(t *testing.T) {
	hub := NewHub(NewMetrics())
	c := registerTestClient(hub)

	hub.SendTo(c.ID, &models.WSMessage{Type: models.MsgTypeSearching})

	msg := drainOne(t, c)
	require.NotNil(t, msg)
	assert.Equal(t, models.MsgTypeSearching, msg.Type)
}

func TestHub_DropBattleClearsMembers(t *testing.T) {
	hub := NewHub(NewMetrics())
	c := registerTestClient(hub)
	hub.Join("battle-1", c.ID)

	hub.DropBattle("battle-1")
	hub.BroadcastToBattle("battle-1", &models.WSMessage{Type: models.MsgTypeNewLine})

	assert.Nil(t, drainOne(t, c))
}
