package security

import (
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/spacesugam/RA/internal/models"
)

// WebSocket message type validation
var validMessageTypes = map[string]bool{
	models.MsgTypeJoinQueue:    true,
	models.MsgTypeSendLine:     true,
	models.MsgTypeJoinSpectate: true,
	models.MsgTypeSendReaction: true,
	models.MsgTypeLeave:        true,
}

// IsValidMessageType checks if a client WebSocket message type is valid.
func IsValidMessageType(msgType string) bool {
	return validMessageTypes[msgType]
}

// RateLimiter provides per-connection rate limiting for WebSocket messages
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[string]int
	lastReset time.Time
	maxTokens int
	window    time.Duration
}

// NewRateLimiter creates a new rate limiter.
// maxTokens: maximum messages per window
// window: time window for rate limiting (e.g., 1 second)
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[string]int),
		lastReset: time.Now(),
		maxTokens: maxTokens,
		window:    window,
	}
}

// Allow checks if a client is allowed to send a message.
// Returns true if allowed, false if rate limit exceeded.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastReset) > rl.window {
		rl.tokens = make(map[string]int)
		rl.lastReset = time.Now()
	}

	rl.tokens[clientID]++
	return rl.tokens[clientID] <= rl.maxTokens
}

// Remove cleans up rate limiter state for a disconnected client.
func (rl *RateLimiter) Remove(clientID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.tokens, clientID)
}

// OriginValidator validates WebSocket connection origins
type OriginValidator struct {
	allowedPatterns []string
}

func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}
