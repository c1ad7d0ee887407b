package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesugam/RA/internal/models"
)

func newQueueEntry(clientID string) *queueEntry {
	return &queueEntry{
		participant: &models.Participant{
			ID:       "p-" + clientID,
			Name:     "Player " + clientID,
			ClientID: clientID,
		},
		enqueuedAt: time.Now(),
		fallback:   NewActionTimer(),
	}
}

func allLive(string) bool { return true }

func TestMatchmaker_AddContainsRemove(t *testing.T) {
	q := NewMatchmaker()

	assert.False(t, q.Contains("c1"))
	q.Add(newQueueEntry("c1"))
	assert.True(t, q.Contains("c1"))
	assert.Equal(t, 1, q.Depth())

	entry := q.Remove("c1")
	require.NotNil(t, entry)
	assert.False(t, q.Contains("c1"))
	assert.Equal(t, 0, q.Depth())

	assert.Nil(t, q.Remove("c1"), "second remove is a no-op")
}

func TestMatchmaker_PairLiveFIFO(t *testing.T) {
	q := NewMatchmaker()
	q.Add(newQueueEntry("c1"))
	q.Add(newQueueEntry("c2"))
	q.Add(newQueueEntry("c3"))

	a, b := q.PairLive(allLive)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "c1", a.participant.ClientID)
	assert.Equal(t, "c2", b.participant.ClientID)
	assert.Equal(t, 1, q.Depth())
}

func TestMatchmaker_PairLiveSkipsDeadEntries(t *testing.T) {
	q := NewMatchmaker()
	q.Add(newQueueEntry("dead-1"))
	q.Add(newQueueEntry("c1"))
	q.Add(newQueueEntry("dead-2"))
	q.Add(newQueueEntry("c2"))

	isLive := func(id string) bool { return id == "c1" || id == "c2" }

	a, b := q.PairLive(isLive)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "c1", a.participant.ClientID)
	assert.Equal(t, "c2", b.participant.ClientID)
	assert.Equal(t, 0, q.Depth(), "dead entries are discarded, not restored")
}

func TestMatchmaker_SingleLiveEntryRestored(t *testing.T) {
	q := NewMatchmaker()
	q.Add(newQueueEntry("c1"))

	a, b := q.PairLive(allLive)
	assert.Nil(t, a)
	assert.Nil(t, b)
	assert.Equal(t, 1, q.Depth())
	assert.True(t, q.Contains("c1"), "lone waiter keeps its place at the head")
}

func TestMatchmaker_LoneSurvivorAfterDeadScanRestored(t *testing.T) {
	q := NewMatchmaker()
	q.Add(newQueueEntry("c1"))
	q.Add(newQueueEntry("dead-1"))

	isLive := func(id string) bool { return id == "c1" }

	a, b := q.PairLive(isLive)
	assert.Nil(t, a)
	assert.Nil(t, b)
	assert.Equal(t, 1, q.Depth())
	assert.True(t, q.Contains("c1"))
}
