package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDisplayName_Valid(t *testing.T) {
	cases := []string{
		"Alice",
		"MC Flow-master",
		"D'Angelo_99",
		"José",
		"  trimmed  ",
	}
	for _, input := range cases {
		name, err := ValidateDisplayName(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, strings.TrimSpace(input), name)
	}
}

func TestValidateDisplayName_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		strings.Repeat("x", MaxDisplayNameLength+1),
		"<script>alert(1)</script>",
		"name; DROP TABLE profiles",
		"back`tick",
		"null\x00byte",
	}
	for _, input := range cases {
		_, err := ValidateDisplayName(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

func TestValidateLineText_Valid(t *testing.T) {
	text, err := ValidateLineText("  two lines\nof heat  ")
	require.NoError(t, err)
	assert.Equal(t, "two lines\nof heat", text)
}

func TestValidateLineText_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		strings.Repeat("a", MaxLineLength+1),
		"sneaky\x07bell",
	}
	for _, input := range cases {
		_, err := ValidateLineText(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

func TestIsAllowedEmoji(t *testing.T) {
	for _, e := range AllowedEmoji {
		assert.True(t, IsAllowedEmoji(e), "emoji %q should be allowed", e)
	}
	assert.False(t, IsAllowedEmoji("🙃"))
	assert.False(t, IsAllowedEmoji("fire"))
	assert.False(t, IsAllowedEmoji(""))
}

func TestIsValidMessageType(t *testing.T) {
	assert.True(t, IsValidMessageType("join_queue"))
	assert.True(t, IsValidMessageType("send_reaction"))
	assert.False(t, IsValidMessageType("battle_started"), "server-to-client types are not accepted inbound")
	assert.False(t, IsValidMessageType("drop_tables"))
}

func TestSanitizeErrorMessage(t *testing.T) {
	assert.Equal(t, "", SanitizeErrorMessage(nil))
	assert.Equal(t, "name too long", SanitizeErrorMessage(errors.New("name too long")))
	assert.Equal(t,
		"An error occurred while processing your request",
		SanitizeErrorMessage(errors.New("sql: no rows in result set")),
	)
}
