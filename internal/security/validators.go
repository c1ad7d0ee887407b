package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Input length constraints
const (
	MaxDisplayNameLength = 50
	MaxLineLength        = 500
	MinNameLength        = 1
)

var (
	// Name validation regex - Unicode letters, digits, spaces, apostrophes, hyphens, underscores, dots
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// AllowedEmoji is the fixed reaction allow-list. Anything else is dropped
// silently at the boundary.
var AllowedEmoji = []string{"🔥", "😂", "💀", "👏", "😮", "🎤", "❤️", "👑", "🥶", "💯"}

var allowedEmojiSet = func() map[string]bool {
	m := make(map[string]bool, len(AllowedEmoji))
	for _, e := range AllowedEmoji {
		m[e] = true
	}
	return m
}()

// IsAllowedEmoji reports whether an emoji is on the reaction allow-list.
func IsAllowedEmoji(emoji string) bool {
	return allowedEmojiSet[emoji]
}

// ValidateDisplayName validates and sanitizes a display name.
func ValidateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("name too short (min %d characters)", MinNameLength)
	}
	if len(name) > MaxDisplayNameLength {
		return "", fmt.Errorf("name too long (max %d characters)", MaxDisplayNameLength)
	}
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("name contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}
	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("name contains potentially dangerous characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("name contains control characters")
		}
	}

	return name, nil
}

// ValidateLineText validates a battle line before it is appended to the
// transcript.
func ValidateLineText(text string) (string, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("line cannot be empty")
	}
	if len(text) > MaxLineLength {
		return "", fmt.Errorf("line too long (max %d characters)", MaxLineLength)
	}
	for _, r := range text {
		if (r < 32 && r != '\n') || r == 127 {
			return "", fmt.Errorf("line contains control characters")
		}
	}

	return text, nil
}

// SanitizeErrorMessage removes sensitive information from error messages
// before they reach a connection.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	sensitivePatterns := []string{
		"sql",
		"database",
		"record",
		"collection",
		"pocketbase",
		"constraint",
		"no rows",
	}

	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}

	return err.Error()
}
