package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/models"
)

// recordStore is the slice of core.App the store depends on, narrowed so
// tests can stand in for the database.
type recordStore interface {
	FindRecordsByFilter(collectionModelOrIdentifier any, filter string, sort string, limit int, offset int, params ...dbx.Params) ([]*core.Record, error)
	FindCollectionByNameOrId(nameOrId string) (*core.Collection, error)
	Save(model core.Model) error
}

// Store persists battle snapshots and per-origin profile aggregates.
// All writes are best-effort write-behind: callers log failures and never
// block or roll back in-memory state on them. A Store constructed with a
// nil app degrades every operation to a no-op so the arena runs
// in-memory-only.
type Store struct {
	app recordStore
}

func NewStore(app recordStore) *Store {
	return &Store{app: app}
}

func (s *Store) Enabled() bool {
	return s != nil && s.app != nil
}

// SaveBattle upserts a battle snapshot keyed by battle ID.
func (s *Store) SaveBattle(b *models.Battle) error {
	if !s.Enabled() {
		return nil
	}

	record, err := s.findBattleRecord(b.ID)
	if err != nil {
		return err
	}
	if record == nil {
		collection, err := s.app.FindCollectionByNameOrId("battles")
		if err != nil {
			return fmt.Errorf("failed to find battles collection: %w", err)
		}
		record = core.NewRecord(collection)
		record.Set("battle_id", b.ID)
	}

	topicJSON, err := json.Marshal(b.Topic)
	if err != nil {
		return fmt.Errorf("failed to marshal topic: %w", err)
	}
	playersJSON, err := json.Marshal(b.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	sidesJSON, err := json.Marshal(b.Sides)
	if err != nil {
		return fmt.Errorf("failed to marshal sides: %w", err)
	}
	transcriptJSON, err := json.Marshal(b.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	record.Set("topic", topicJSON)
	record.Set("players", playersJSON)
	record.Set("sides", sidesJSON)
	record.Set("status", string(b.Status))
	record.Set("round", b.Round)
	record.Set("transcript", transcriptJSON)
	record.Set("started_at", b.StartedAt)
	if !b.EndedAt.IsZero() {
		record.Set("ended_at", b.EndedAt)
	}
	if b.Result != nil {
		resultJSON, err := json.Marshal(b.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		record.Set("result", resultJSON)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("failed to save battle record: %w", err)
	}
	return nil
}

// GetBattle fetches a battle snapshot by ID. A missing record or a
// disabled store yields (nil, nil), not an error.
func (s *Store) GetBattle(id string) (*models.Battle, error) {
	if !s.Enabled() {
		return nil, nil
	}

	record, err := s.findBattleRecord(id)
	if err != nil || record == nil {
		return nil, err
	}

	b := &models.Battle{
		ID:        record.GetString("battle_id"),
		Status:    models.BattleStatus(record.GetString("status")),
		Round:     record.GetInt("round"),
		MaxRounds: config.MaxRounds,
		StartedAt: record.GetDateTime("started_at").Time(),
		EndedAt:   record.GetDateTime("ended_at").Time(),
	}
	if err := json.Unmarshal([]byte(record.GetString("topic")), &b.Topic); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topic: %w", err)
	}
	if err := json.Unmarshal([]byte(record.GetString("players")), &b.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	if err := json.Unmarshal([]byte(record.GetString("sides")), &b.Sides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sides: %w", err)
	}
	if transcript := record.GetString("transcript"); transcript != "" {
		if err := json.Unmarshal([]byte(transcript), &b.Lines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
	}
	if result := record.GetString("result"); result != "" {
		if err := json.Unmarshal([]byte(result), &b.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}

	return b, nil
}

// RecordMatch folds one finished battle into a participant's profile
// aggregate: battle count, win/loss count, bounded recent-match list.
// Identities without an origin token are not persisted.
func (s *Store) RecordMatch(origin, name string, match models.MatchRecord) error {
	if !s.Enabled() || origin == "" {
		return nil
	}

	record, err := s.findProfileRecord(origin)
	if err != nil {
		return err
	}
	if record == nil {
		collection, err := s.app.FindCollectionByNameOrId("profiles")
		if err != nil {
			return fmt.Errorf("failed to find profiles collection: %w", err)
		}
		record = core.NewRecord(collection)
		record.Set("origin_token", origin)
	}

	var recent []models.MatchRecord
	if raw := record.GetString("recent_matches"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &recent); err != nil {
			recent = nil
		}
	}
	recent = append([]models.MatchRecord{match}, recent...)
	if len(recent) > config.MaxRecentMatches {
		recent = recent[:config.MaxRecentMatches]
	}
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return fmt.Errorf("failed to marshal recent matches: %w", err)
	}

	record.Set("display_name", name)
	record.Set("battles", record.GetInt("battles")+1)
	if match.Won {
		record.Set("wins", record.GetInt("wins")+1)
	} else {
		record.Set("losses", record.GetInt("losses")+1)
	}
	record.Set("recent_matches", recentJSON)
	record.Set("last_seen", time.Now())

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("failed to save profile record: %w", err)
	}
	return nil
}

// GetProfile fetches a profile aggregate by origin token. A missing
// profile or a disabled store yields (nil, nil).
func (s *Store) GetProfile(origin string) (*models.Profile, error) {
	if !s.Enabled() || origin == "" {
		return nil, nil
	}

	record, err := s.findProfileRecord(origin)
	if err != nil || record == nil {
		return nil, err
	}

	p := &models.Profile{
		OriginToken: record.GetString("origin_token"),
		Name:        record.GetString("display_name"),
		Battles:     record.GetInt("battles"),
		Wins:        record.GetInt("wins"),
		Losses:      record.GetInt("losses"),
		LastSeen:    record.GetDateTime("last_seen").Time(),
	}
	if raw := record.GetString("recent_matches"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.RecentMatches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recent matches: %w", err)
		}
	}

	return p, nil
}

func (s *Store) findBattleRecord(id string) (*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		"battles",
		"battle_id = {:id}",
		"",
		1,
		0,
		dbx.Params{"id": id},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query battles: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *Store) findProfileRecord(origin string) (*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		"profiles",
		"origin_token = {:origin}",
		"",
		1,
		0,
		dbx.Params{"origin": origin},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
