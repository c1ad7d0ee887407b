package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesugam/RA/internal/models"
)

func resolverTestBattle() *models.Battle {
	alice := &models.Participant{ID: "p-a", Name: "Alice", OriginToken: "origin-1"}
	bob := &models.Participant{ID: "p-b", Name: "Bob", OriginToken: "origin-2"}
	return &models.Battle{
		ID:      "battle-1",
		Players: [2]*models.Participant{alice, bob},
		Topic: &models.Topic{
			Label: "Pineapple on pizza",
			SideA: models.TopicSide{Text: "It belongs", Difficulty: 7},
			SideB: models.TopicSide{Text: "It is a crime", Difficulty: 3},
		},
		Sides:     map[string]models.Side{"p-a": models.SideA, "p-b": models.SideB},
		Status:    models.BattleEnded,
		MaxRounds: 3,
		EndedAt:   time.Now(),
	}
}

func newTestResolver(oracle Oracle) *ResultResolver {
	return NewResultResolver(oracle, NewStore(nil), NewMetrics())
}

func TestResolve_MapsVerdictToParticipants(t *testing.T) {
	oracle := newFakeOracle()
	oracle.verdict = &Verdict{
		WinnerSide: models.SideB,
		SideScores: map[models.Side]models.ScoreCard{
			models.SideA: {Wit: 6, Humor: 6, Originality: 6, Total: 18},
			models.SideB: {Wit: 8, Humor: 8, Originality: 8, Total: 24},
		},
		Reasoning: "Side B was relentless.",
	}
	r := newTestResolver(oracle)

	result := r.Resolve(context.Background(), resolverTestBattle())
	require.NotNil(t, result)
	assert.Equal(t, "p-b", result.WinnerID)
	assert.Equal(t, "Bob", result.WinnerName)
	assert.Equal(t, "Side B was relentless.", result.Reasoning)
	assert.False(t, result.Forfeit)
}

func TestResolve_FairnessBonusGoesToHarderSide(t *testing.T) {
	oracle := newFakeOracle()
	oracle.verdict = &Verdict{
		WinnerSide: models.SideB,
		SideScores: map[models.Side]models.ScoreCard{
			models.SideA: {Wit: 9, Humor: 9, Originality: 9, Total: 27},
			models.SideB: {Wit: 10, Humor: 9, Originality: 9, Total: 28},
		},
	}
	r := newTestResolver(oracle)

	// Side A is rated 4 points harder, so its total gains 4 and may pass
	// the loser's, while the winner stands as judged.
	result := r.Resolve(context.Background(), resolverTestBattle())
	require.NotNil(t, result)
	assert.Equal(t, 31, result.Scores["p-a"].Total, "bonus is unclamped")
	assert.Equal(t, 28, result.Scores["p-b"].Total)
	assert.Equal(t, "p-b", result.WinnerID, "winner comes from the verdict, not the adjusted totals")
}

func TestResolve_RecomputesMissingTotals(t *testing.T) {
	oracle := newFakeOracle()
	oracle.verdict = &Verdict{
		WinnerSide: models.SideA,
		SideScores: map[models.Side]models.ScoreCard{
			models.SideA: {Wit: 8, Humor: 7, Originality: 6},
			models.SideB: {Wit: 5, Humor: 5, Originality: 5},
		},
	}
	r := newTestResolver(oracle)
	b := resolverTestBattle()
	b.Topic.SideA.Difficulty = 5
	b.Topic.SideB.Difficulty = 5

	result := r.Resolve(context.Background(), b)
	require.NotNil(t, result)
	assert.Equal(t, 21, result.Scores["p-a"].Total)
	assert.Equal(t, 15, result.Scores["p-b"].Total)
}

func TestResolve_JudgeFailureSynthesizesResult(t *testing.T) {
	oracle := newFakeOracle()
	oracle.judgeErr = fmt.Errorf("judge offline")
	r := newTestResolver(oracle)

	result := r.Resolve(context.Background(), resolverTestBattle())
	require.NotNil(t, result)
	assert.Contains(t, []string{"p-a", "p-b"}, result.WinnerID)
	assert.NotEmpty(t, result.Reasoning)

	loserID := "p-a"
	if result.WinnerID == "p-a" {
		loserID = "p-b"
	}
	winner := result.Scores[result.WinnerID]
	loser := result.Scores[loserID]
	for _, v := range []int{winner.Wit, winner.Humor, winner.Originality} {
		assert.GreaterOrEqual(t, v, 7)
		assert.LessOrEqual(t, v, 9)
	}
	for _, v := range []int{loser.Wit, loser.Humor, loser.Originality} {
		assert.GreaterOrEqual(t, v, 5)
		assert.LessOrEqual(t, v, 7)
	}
	assert.Equal(t, winner.Wit+winner.Humor+winner.Originality, winner.Total)
}

func TestForfeitResult_MaximalScores(t *testing.T) {
	winner := &models.Participant{ID: "p-a", Name: "Alice"}
	loser := &models.Participant{ID: "p-b", Name: "Bob"}

	result := ForfeitResult(winner, loser, "opponent disconnected")

	assert.Equal(t, "p-a", result.WinnerID)
	assert.True(t, result.Forfeit)
	assert.Equal(t, "opponent disconnected", result.Reason)
	assert.Equal(t, models.ScoreCard{Wit: 10, Humor: 10, Originality: 10, Total: 30}, result.Scores["p-a"])
	assert.Equal(t, models.ScoreCard{}, result.Scores["p-b"])
}

func TestPersistOutcome_NoStoreIsBestEffortNoOp(t *testing.T) {
	r := newTestResolver(newFakeOracle())
	b := resolverTestBattle()
	b.Result = ForfeitResult(b.Players[0], b.Players[1], "opponent left the battle")

	// Store is disabled; must neither panic nor error out.
	r.PersistOutcome(b)
}
