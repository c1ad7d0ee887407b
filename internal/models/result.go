package models

import "time"

// ScoreCard is one participant's judged scores. Total is normally the sum
// of the three categories but may exceed it after the fairness bonus.
type ScoreCard struct {
	Wit         int `json:"wit"`
	Humor       int `json:"humor"`
	Originality int `json:"originality"`
	Total       int `json:"total"`
}

// Result is a battle's canonical outcome, judged or synthesized.
type Result struct {
	WinnerID   string               `json:"winnerId"`
	WinnerName string               `json:"winnerName"`
	Scores     map[string]ScoreCard `json:"scores"` // participant ID -> card
	Reasoning  string               `json:"reasoning"`
	Forfeit    bool                 `json:"forfeit,omitempty"`
	Reason     string               `json:"reason,omitempty"`
}

// MatchRecord is one entry of a profile's bounded recent-match list.
type MatchRecord struct {
	BattleID string    `json:"battleId"`
	Opponent string    `json:"opponent"`
	Won      bool      `json:"won"`
	EndedAt  time.Time `json:"endedAt"`
}

// Profile is the durable per-origin aggregate.
type Profile struct {
	OriginToken   string        `json:"-"`
	Name          string        `json:"name"`
	Battles       int           `json:"battles"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	RecentMatches []MatchRecord `json:"recentMatches"`
	LastSeen      time.Time     `json:"lastSeen"`
}
