package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/spacesugam/RA/internal/models"
	"github.com/spacesugam/RA/internal/services"
)

// HandleListBattles returns the currently active battles.
func HandleListBattles(manager *services.BattleManager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"battles": manager.ActiveBattles(),
		})
	}
}

// HandleGetBattle serves one battle: from memory while it is active or
// inside the post-end grace period, falling through to the durable store
// for older battles.
func HandleGetBattle(manager *services.BattleManager, store *services.Store) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("battleId")
		if id == "" {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "Battle ID is required"})
		}

		if battle, ok := manager.GetBattle(id); ok {
			return e.JSON(http.StatusOK, battle)
		}

		battle, err := store.GetBattle(id)
		if err != nil {
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load battle"})
		}
		if battle == nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "Battle not found"})
		}
		return e.JSON(http.StatusOK, battle)
	}
}

// dailyRecord is one day of a profile's win/loss series.
type dailyRecord struct {
	Date   string `json:"date"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// HandleProfile serves the caller's own profile, looked up by the origin
// token derived from the request address. The daily series is derived from
// the bounded recent-match list, oldest day first.
func HandleProfile(store *services.Store, identity *services.IdentityHasher) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		origin := identity.OriginToken(e.Request)
		if origin == "" {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "Profile not found"})
		}

		profile, err := store.GetProfile(origin)
		if err != nil {
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
		}
		if profile == nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "Profile not found"})
		}

		return e.JSON(http.StatusOK, map[string]any{
			"profile":    profile,
			"dailySeries": dailySeries(profile.RecentMatches),
		})
	}
}

func dailySeries(matches []models.MatchRecord) []dailyRecord {
	byDay := make(map[string]*dailyRecord)
	for _, m := range matches {
		day := m.EndedAt.UTC().Format(time.DateOnly)
		rec, ok := byDay[day]
		if !ok {
			rec = &dailyRecord{Date: day}
			byDay[day] = rec
		}
		if m.Won {
			rec.Wins++
		} else {
			rec.Losses++
		}
	}

	series := make([]dailyRecord, 0, len(byDay))
	for _, rec := range byDay {
		series = append(series, *rec)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}
