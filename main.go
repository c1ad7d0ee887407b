package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/handlers"
	"github.com/spacesugam/RA/internal/security"
	"github.com/spacesugam/RA/internal/services"
	_ "github.com/spacesugam/RA/pb_migrations"
)

func main() {
	pb := pocketbase.New()

	cfg := config.Load()

	secret := cfg.IdentitySecret
	if secret == "" {
		// Per-process secret: reconnection still works within one run, but
		// origin tokens rotate on restart. Set IDENTITY_SECRET for stable
		// profiles.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatal(err)
		}
		secret = hex.EncodeToString(buf)
		log.Println("⚠️  IDENTITY_SECRET not set, using an ephemeral secret")
	}

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	identity := services.NewIdentityHasher(secret)
	origins := security.NewOriginValidator(cfg.AllowedOrigins)
	oracle := services.NewOpenAIOracle(cfg)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		store := services.NewStore(se.App)
		resolver := services.NewResultResolver(oracle, store, metrics)
		manager := services.NewBattleManager(hub, oracle, resolver, store, metrics)
		wsHandler := handlers.NewWSHandler(hub, manager, identity, origins)

		se.Router.GET("/ws", wsHandler.HandleWebSocket)
		se.Router.GET("/api/battles", handlers.HandleListBattles(manager))
		se.Router.GET("/api/battles/{battleId}", handlers.HandleGetBattle(manager, store))
		se.Router.GET("/api/profile", handlers.HandleProfile(store, identity))
		se.Router.GET("/api/metrics", handlers.HandleMetrics(metrics))
		se.Router.GET("/api/health", handlers.HandleHealth(metrics))

		return se.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
