package services

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/models"
)

// personaPool is the fixed set of bot display names. A bot opponent is
// injected only when matchmaking times out with no human pairing.
var personaPool = []string{
	"Rhyme Reaper",
	"Verse Vandal",
	"Mic Marauder",
	"Syllable Slayer",
	"Punchline Phantom",
	"Flow Fiend",
	"Beat Bandit",
	"Lyric Lich",
}

// botFallbackLines are substituted when the oracle cannot produce a reply,
// so a bot never silently skips a round.
var botFallbackLines = []string{
	"Hold up, I had a bar so hot the mic melted. Gimme a sec to find a new one.",
	"My ghostwriter just ghosted me, but I still out-rhyme your whole timeline.",
	"Static on the beat, but the crowd still knows which side of this stage wins.",
}

// NewBotOpponent produces a synthetic participant with a persona name.
// Bots carry no origin token and are never persisted to profiles.
func NewBotOpponent() *models.Participant {
	return &models.Participant{
		ID:    uuid.New().String(),
		Name:  personaPool[rand.Intn(len(personaPool))],
		IsBot: true,
	}
}

// BotPersonas returns the fixed persona pool.
func BotPersonas() []string {
	return personaPool
}

// botReplyDelay draws a delay from the ambient range (opening a round
// unprompted) or the faster reactive range (answering a fresh human line).
func botReplyDelay(reactive bool) time.Duration {
	min, max := config.BotAmbientDelayMin, config.BotAmbientDelayMax
	if reactive {
		min, max = config.BotReactiveDelayMin, config.BotReactiveDelayMax
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// botFallbackLine picks a canned line for the given round.
func botFallbackLine(round int) string {
	return botFallbackLines[(round-1)%len(botFallbackLines)]
}
