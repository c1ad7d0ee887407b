package models

import "time"

// Participant is a player bound to a battle, human or bot.
// Everything is immutable after side assignment except ClientID, which is
// rebound when the same origin reconnects with a fresh connection.
type Participant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ClientID    string `json:"-"`
	OriginToken string `json:"-"` // empty for bots
	IsBot       bool   `json:"isBot"`
}

type Spectator struct {
	ClientID string    `json:"-"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}
