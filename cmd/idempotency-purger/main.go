package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Apurer/petclinic-scheduling/internal/app/api"
	schedpostgres "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/petclinic-scheduling/internal/platform/observability"
	platformpostgres "github.com/Apurer/petclinic-scheduling/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := platformobservability.NewLogger(platformobservability.SettingsFromEnv("idempotency-purger"))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge idempotency keys")
	}

	cutoff := time.Now().Add(-cfg.IdempotencyTTL)
	purged, err := schedpostgres.NewIdempotencyStore(db).PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("idempotency purge completed", slog.Int64("purged", purged), slog.Time("cutoff", cutoff))
}
