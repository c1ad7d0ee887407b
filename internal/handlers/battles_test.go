package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesugam/RA/internal/models"
)

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestDailySeries_GroupsByDay(t *testing.T) {
	matches := []models.MatchRecord{
		{BattleID: "b1", Won: true, EndedAt: day("2026-08-20").Add(10 * time.Hour)},
		{BattleID: "b2", Won: false, EndedAt: day("2026-08-20").Add(22 * time.Hour)},
		{BattleID: "b3", Won: true, EndedAt: day("2026-08-22")},
		{BattleID: "b4", Won: true, EndedAt: day("2026-08-22").Add(time.Minute)},
	}

	series := dailySeries(matches)
	require.Len(t, series, 2)

	assert.Equal(t, "2026-08-20", series[0].Date)
	assert.Equal(t, 1, series[0].Wins)
	assert.Equal(t, 1, series[0].Losses)

	assert.Equal(t, "2026-08-22", series[1].Date)
	assert.Equal(t, 2, series[1].Wins)
	assert.Equal(t, 0, series[1].Losses)
}

func TestDailySeries_SortedOldestFirst(t *testing.T) {
	matches := []models.MatchRecord{
		{Won: true, EndedAt: day("2026-08-22")},
		{Won: true, EndedAt: day("2026-08-19")},
		{Won: false, EndedAt: day("2026-08-21")},
	}

	series := dailySeries(matches)
	require.Len(t, series, 3)
	assert.Equal(t, "2026-08-19", series[0].Date)
	assert.Equal(t, "2026-08-21", series[1].Date)
	assert.Equal(t, "2026-08-22", series[2].Date)
}

func TestDailySeries_Empty(t *testing.T) {
	assert.Empty(t, dailySeries(nil))
}
