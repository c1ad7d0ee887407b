package config

import "time"

// Battle pacing
const (
	MaxRounds        = 3
	RoundDuration    = 60 * time.Second
	MatchmakingWait  = 60 * time.Second // bot opponent injected after this
	EndedGracePeriod = 60 * time.Second // ended battles stay fetchable this long

	// Bot reply delays. Ambient = opening a round unprompted,
	// reactive = answering a fresh human line.
	BotAmbientDelayMin  = 4 * time.Second
	BotAmbientDelayMax  = 9 * time.Second
	BotReactiveDelayMin = 1500 * time.Millisecond
	BotReactiveDelayMax = 4 * time.Second
)

// Spectators and reactions
const (
	MaxSpectatorsPerBattle = 20
	ReactionTTL            = 3 * time.Second
	MaxReactionFeed        = 50
)

// Profiles
const (
	MaxRecentMatches = 20
)

// WebSocket connection limits and constraints
const (
	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second
	PongTimeout  = 90 * time.Second // 3x ping interval for network delay tolerance

	// Channel buffers
	ClientSendBufferSize = 256

	// Oracle call budget
	OracleTimeout = 25 * time.Second
)
