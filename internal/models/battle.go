package models

import (
	"time"
)

type BattleStatus string

const (
	BattleActive BattleStatus = "active"
	BattleEnded  BattleStatus = "ended"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Line is one transcript entry. The slice order is authoritative; round
// numbers are attached at append time, not at client composition time.
type Line struct {
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"name"`
	Text          string    `json:"text"`
	Round         int       `json:"round"`
	SentAt        time.Time `json:"sentAt"`
}

// Reaction is an ephemeral spectator emoji, dropped from the feed after a
// fixed TTL.
type Reaction struct {
	ID          string    `json:"id"`
	SpectatorID string    `json:"-"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	SentAt      time.Time `json:"sentAt"`
}

// Battle is one matched pairing of two participants progressing through
// fixed rounds to a judged outcome. All mutation happens under the battle
// manager's lock.
type Battle struct {
	ID         string                `json:"id"`
	Players    [2]*Participant       `json:"players"`
	Topic      *Topic                `json:"topic"`
	Sides      map[string]Side       `json:"sides"` // participant ID -> side, bijective
	Round      int                   `json:"round"`
	MaxRounds  int                   `json:"maxRounds"`
	RoundStart time.Time             `json:"roundStart"`
	Status     BattleStatus          `json:"status"`
	Lines      []Line                `json:"lines"`
	Spectators map[string]*Spectator `json:"-"` // keyed by client ID
	Reactions  []Reaction            `json:"-"`
	Result     *Result               `json:"result,omitempty"`
	StartedAt  time.Time             `json:"startedAt"`
	EndedAt    time.Time             `json:"endedAt,omitzero"`
}

func (b *Battle) IsActive() bool {
	return b.Status == BattleActive
}

// PlayerByID returns the participant with the given stable ID, or nil.
func (b *Battle) PlayerByID(id string) *Participant {
	for _, p := range b.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByClient returns the participant currently bound to a connection.
func (b *Battle) PlayerByClient(clientID string) *Participant {
	for _, p := range b.Players {
		if p != nil && p.ClientID == clientID {
			return p
		}
	}
	return nil
}

// PlayerByOrigin matches a participant by anonymized origin token. Bots
// carry no origin token and never match.
func (b *Battle) PlayerByOrigin(origin string) *Participant {
	if origin == "" {
		return nil
	}
	for _, p := range b.Players {
		if p != nil && p.OriginToken == origin {
			return p
		}
	}
	return nil
}

// Opponent returns the other participant.
func (b *Battle) Opponent(id string) *Participant {
	for _, p := range b.Players {
		if p != nil && p.ID != id {
			return p
		}
	}
	return nil
}

// BotPlayer returns the synthetic participant, if the battle has one.
func (b *Battle) BotPlayer() *Participant {
	for _, p := range b.Players {
		if p != nil && p.IsBot {
			return p
		}
	}
	return nil
}

// HasLineInRound reports whether a participant already spoke in a round.
func (b *Battle) HasLineInRound(participantID string, round int) bool {
	for i := len(b.Lines) - 1; i >= 0; i-- {
		if b.Lines[i].Round < round {
			break
		}
		if b.Lines[i].Round == round && b.Lines[i].ParticipantID == participantID {
			return true
		}
	}
	return false
}

// LastLineBy returns the most recent line spoken by a participant, or nil.
func (b *Battle) LastLineBy(participantID string) *Line {
	for i := len(b.Lines) - 1; i >= 0; i-- {
		if b.Lines[i].ParticipantID == participantID {
			return &b.Lines[i]
		}
	}
	return nil
}

// LinesBy returns the sub-transcript of one participant, in append order.
func (b *Battle) LinesBy(participantID string) []Line {
	var out []Line
	for _, l := range b.Lines {
		if l.ParticipantID == participantID {
			out = append(out, l)
		}
	}
	return out
}
