package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		// Battle snapshots, keyed by the in-memory battle UUID. Written
		// behind on every mutation, so the schema is JSON-heavy by design.
		battles := core.NewBaseCollection("battles")
		battles.ListRule = nil
		battles.ViewRule = nil
		battles.CreateRule = nil
		battles.UpdateRule = nil
		battles.DeleteRule = nil

		battles.Fields.Add(&core.TextField{
			Name:     "battle_id",
			Required: true,
			Max:      64,
		})

		battles.Fields.Add(&core.JSONField{
			Name:    "topic",
			MaxSize: 4096,
		})

		battles.Fields.Add(&core.JSONField{
			Name:    "players",
			MaxSize: 4096,
		})

		battles.Fields.Add(&core.JSONField{
			Name:    "sides",
			MaxSize: 1024,
		})

		battles.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"active", "ended"},
		})

		battles.Fields.Add(&core.NumberField{
			Name: "round",
		})

		battles.Fields.Add(&core.JSONField{
			Name:    "transcript",
			MaxSize: 262144,
		})

		battles.Fields.Add(&core.JSONField{
			Name:    "result",
			MaxSize: 8192,
		})

		battles.Fields.Add(&core.DateField{
			Name:     "started_at",
			Required: true,
		})

		battles.Fields.Add(&core.DateField{
			Name: "ended_at",
		})

		battles.Indexes = []string{
			"CREATE UNIQUE INDEX idx_battles_battle_id ON battles(battle_id)",
			"CREATE INDEX idx_battles_status ON battles(status)",
			"CREATE INDEX idx_battles_started ON battles(started_at)",
		}

		if err := app.Save(battles); err != nil {
			return err
		}

		// Per-origin profile aggregates. The origin token is an HMAC of the
		// client address; no raw address is ever stored.
		profiles := core.NewBaseCollection("profiles")
		profiles.ListRule = nil
		profiles.ViewRule = nil
		profiles.CreateRule = nil
		profiles.UpdateRule = nil
		profiles.DeleteRule = nil

		profiles.Fields.Add(&core.TextField{
			Name:     "origin_token",
			Required: true,
			Max:      64,
		})

		profiles.Fields.Add(&core.TextField{
			Name: "display_name",
			Max:  100,
		})

		profiles.Fields.Add(&core.NumberField{
			Name: "battles",
		})

		profiles.Fields.Add(&core.NumberField{
			Name: "wins",
		})

		profiles.Fields.Add(&core.NumberField{
			Name: "losses",
		})

		profiles.Fields.Add(&core.JSONField{
			Name:    "recent_matches",
			MaxSize: 16384,
		})

		profiles.Fields.Add(&core.DateField{
			Name: "last_seen",
		})

		profiles.Indexes = []string{
			"CREATE UNIQUE INDEX idx_profiles_origin ON profiles(origin_token)",
			"CREATE INDEX idx_profiles_last_seen ON profiles(last_seen)",
		}

		return app.Save(profiles)
	}, func(app core.App) error {
		// Down migration - delete in reverse order
		profiles, err := app.FindCollectionByNameOrId("profiles")
		if err == nil && profiles != nil {
			if err := app.Delete(profiles); err != nil {
				return err
			}
		}

		battles, err := app.FindCollectionByNameOrId("battles")
		if err == nil && battles != nil {
			return app.Delete(battles)
		}

		return nil
	})
}
