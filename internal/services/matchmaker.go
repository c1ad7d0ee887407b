package services

import (
	"time"

	"github.com/spacesugam/RA/internal/models"
)

// queueEntry is one waiting participant plus its armed bot-fallback timer.
// Destroyed on pairing, reconnection short-circuit, disconnect, or bot
// assignment.
type queueEntry struct {
	participant *models.Participant
	enqueuedAt  time.Time
	fallback    *ActionTimer
}

// Matchmaker holds participants waiting for an opponent. It is pure
// bookkeeping: every method assumes the caller holds the BattleManager's
// lock, which is the single writer over both the queue and the battle
// directory.
type Matchmaker struct {
	entries  []*queueEntry
	byClient map[string]*queueEntry
}

func NewMatchmaker() *Matchmaker {
	return &Matchmaker{
		byClient: make(map[string]*queueEntry),
	}
}

// Contains reports whether a connection already has a queue entry.
// Duplicate enqueue from the same handle is a no-op at the call site.
func (q *Matchmaker) Contains(clientID string) bool {
	_, ok := q.byClient[clientID]
	return ok
}

// Add appends a waiting participant.
func (q *Matchmaker) Add(entry *queueEntry) {
	q.entries = append(q.entries, entry)
	q.byClient[entry.participant.ClientID] = entry
}

// Remove drops a connection's entry and cancels its fallback timer.
// Returns the removed entry, or nil if none existed.
func (q *Matchmaker) Remove(clientID string) *queueEntry {
	entry, ok := q.byClient[clientID]
	if !ok {
		return nil
	}
	delete(q.byClient, clientID)
	for i, e := range q.entries {
		if e == entry {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	entry.fallback.Cancel()
	return entry
}

// PairLive pops the first two distinct live entries, discarding dead ones
// encountered along the way. If only one live entry exists it is restored
// to the front, fallback timer still armed, and (nil, nil) is returned.
// Both returned entries have had their fallback timers canceled.
func (q *Matchmaker) PairLive(isLive func(clientID string) bool) (*queueEntry, *queueEntry) {
	var head *queueEntry

	// Pop forward to the first live entry.
	for head == nil && len(q.entries) > 0 {
		candidate := q.entries[0]
		q.entries = q.entries[1:]
		delete(q.byClient, candidate.participant.ClientID)
		if isLive(candidate.participant.ClientID) {
			head = candidate
		} else {
			candidate.fallback.Cancel()
		}
	}
	if head == nil {
		return nil, nil
	}

	// Scan the remainder for the first other live entry.
	for len(q.entries) > 0 {
		candidate := q.entries[0]
		q.entries = q.entries[1:]
		delete(q.byClient, candidate.participant.ClientID)
		if isLive(candidate.participant.ClientID) {
			head.fallback.Cancel()
			candidate.fallback.Cancel()
			return head, candidate
		}
		candidate.fallback.Cancel()
	}

	// No partner found: restore the head to the front and stop.
	q.entries = append([]*queueEntry{head}, q.entries...)
	q.byClient[head.participant.ClientID] = head
	return nil, nil
}

// Depth returns the number of waiting entries.
func (q *Matchmaker) Depth() int {
	return len(q.entries)
}
