package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/spacesugam/RA/internal/models"
)

// ResultResolver turns a finished battle into a canonical Result. The
// judging oracle is an opaque asynchronous collaborator; its failure is
// masked with a synthesized result so a battle always terminates with a
// definite outcome.
type ResultResolver struct {
	oracle  Oracle
	store   *Store
	metrics *Metrics
}

func NewResultResolver(oracle Oracle, store *Store, metrics *Metrics) *ResultResolver {
	return &ResultResolver{
		oracle:  oracle,
		store:   store,
		metrics: metrics,
	}
}

// Resolve judges a completed battle. It never returns nil: oracle errors
// and malformed verdicts fall back to a randomized synthetic result.
func (r *ResultResolver) Resolve(ctx context.Context, b *models.Battle) *models.Result {
	playerA := playerBySide(b, models.SideA)
	playerB := playerBySide(b, models.SideB)
	if playerA == nil || playerB == nil {
		// Should not occur given the create precondition; discard defensively.
		return nil
	}

	verdict, err := r.oracle.Judge(ctx, JudgeRequest{
		Topic:       b.Topic,
		TranscriptA: b.LinesBy(playerA.ID),
		TranscriptB: b.LinesBy(playerB.ID),
		NameA:       playerA.Name,
		NameB:       playerB.Name,
	})
	if err != nil {
		log.Printf("Judge failed for battle %s, synthesizing result: %v", b.ID, err)
		r.metrics.IncrementOracleErrors()
		return fallbackResult(playerA, playerB)
	}

	scores := map[string]models.ScoreCard{
		playerA.ID: normalizeScores(verdict.SideScores[models.SideA]),
		playerB.ID: normalizeScores(verdict.SideScores[models.SideB]),
	}
	applyFairnessBonus(b.Topic, playerA.ID, playerB.ID, scores)

	winner := playerA
	if verdict.WinnerSide == models.SideB {
		winner = playerB
	}

	reasoning := verdict.Reasoning
	if reasoning == "" {
		reasoning = "A close exchange, decided on delivery."
	}

	return &models.Result{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Scores:     scores,
		Reasoning:  reasoning,
	}
}

// PersistOutcome folds the outcome into both players' durable profiles.
// Best-effort: failures are logged and never surfaced.
func (r *ResultResolver) PersistOutcome(b *models.Battle) {
	if b.Result == nil {
		return
	}
	for _, p := range b.Players {
		if p == nil || p.IsBot || p.OriginToken == "" {
			continue
		}
		opponent := b.Opponent(p.ID)
		opponentName := ""
		if opponent != nil {
			opponentName = opponent.Name
		}
		err := r.store.RecordMatch(p.OriginToken, p.Name, models.MatchRecord{
			BattleID: b.ID,
			Opponent: opponentName,
			Won:      b.Result.WinnerID == p.ID,
			EndedAt:  b.EndedAt,
		})
		if err != nil {
			log.Printf("Failed to persist profile for battle %s: %v", b.ID, err)
			r.metrics.IncrementPersistenceErrors()
		}
	}
}

// ForfeitResult synthesizes a maximal-score result favoring the remaining
// player, without invoking the judging oracle.
func ForfeitResult(winner, loser *models.Participant, reason string) *models.Result {
	return &models.Result{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Scores: map[string]models.ScoreCard{
			winner.ID: {Wit: 10, Humor: 10, Originality: 10, Total: 30},
			loser.ID:  {},
		},
		Reasoning: fmt.Sprintf("%s wins by forfeit: %s.", winner.Name, reason),
		Forfeit:   true,
		Reason:    reason,
	}
}

// fallbackResult picks a winner uniformly at random and synthesizes
// plausible scores biased toward them.
func fallbackResult(a, b *models.Participant) *models.Result {
	winner, loser := a, b
	if rand.Intn(2) == 1 {
		winner, loser = b, a
	}

	winnerScores := randomScores(7, 9)
	loserScores := randomScores(5, 7)

	return &models.Result{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Scores: map[string]models.ScoreCard{
			winner.ID: winnerScores,
			loser.ID:  loserScores,
		},
		Reasoning: fmt.Sprintf("Both sides brought heat, but %s edged it out on consistency across all three rounds.", winner.Name),
	}
}

func randomScores(min, max int) models.ScoreCard {
	roll := func() int { return min + rand.Intn(max-min+1) }
	card := models.ScoreCard{Wit: roll(), Humor: roll(), Originality: roll()}
	card.Total = card.Wit + card.Humor + card.Originality
	return card
}

// normalizeScores recomputes a missing total from its components.
func normalizeScores(card models.ScoreCard) models.ScoreCard {
	if card.Total == 0 {
		card.Total = card.Wit + card.Humor + card.Originality
	}
	return card
}

// applyFairnessBonus adds the topic difficulty delta to the harder-rated
// side's total, post-hoc and unclamped, so totals may exceed the nominal
// 30-point ceiling.
func applyFairnessBonus(topic *models.Topic, idA, idB string, scores map[string]models.ScoreCard) {
	if topic == nil {
		return
	}
	delta := topic.SideA.Difficulty - topic.SideB.Difficulty
	switch {
	case delta > 0:
		card := scores[idA]
		card.Total += delta
		scores[idA] = card
	case delta < 0:
		card := scores[idB]
		card.Total += -delta
		scores[idB] = card
	}
}

func playerBySide(b *models.Battle, side models.Side) *models.Participant {
	for id, s := range b.Sides {
		if s == side {
			return b.PlayerByID(id)
		}
	}
	return nil
}
