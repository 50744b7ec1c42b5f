package main

import (
	"context"
	"os"
	"time"

	"farm_store/internal/config"
	"farm_store/internal/database"
	"farm_store/internal/migrations"

	"github.com/rs/zerolog"
)

// Runs migrations and seeding without starting the server.
func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Msg("initializing database")

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = migrations.Run(ctx, db, migrations.SeedConfig{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		AdminEmail:    cfg.AdminEmail,
		SeedCatalog:   cfg.SeedCatalog,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}

	log.Info().Str("admin", cfg.AdminUsername).Msg("database initialized")
}
