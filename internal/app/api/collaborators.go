package api

import (
	"context"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/external/clinicapi"
	schedmemory "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/memory"
	kafkapublisher "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/messaging/kafka"
	schedpostgres "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/persistence/postgres"
	schedredis "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/redis"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	"github.com/Apurer/petclinic-scheduling/internal/platform/migrations"
	platformpostgres "github.com/Apurer/petclinic-scheduling/internal/platform/postgres"
)

// Collaborators bundles the outbound adapters the scheduling service runs against.
type Collaborators struct {
	Slots       schedports.SlotProvider
	Store       schedports.AppointmentStore
	Idempotency schedports.IdempotencyStore
	Locker      schedports.SlotLocker
	Publisher   schedports.EventPublisher

	shared   bool
	cleanups []func()
}

// Shared reports whether appointments live outside this process, so a
// Temporal worker booking them is visible to the API.
func (c *Collaborators) Shared() bool {
	return c.shared
}

// Close releases every connection opened by BuildCollaborators, last opened first.
func (c *Collaborators) Close() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
}

// ServiceOptions converts the collaborators and config into service options.
func (c *Collaborators) ServiceOptions(cfg Config, logger *slog.Logger) []application.Option {
	return []application.Option{
		application.WithEditWindow(cfg.EditWindow),
		application.WithBookingWindowDays(cfg.BookingWindowDays),
		application.WithLocation(cfg.Location),
		application.WithIdempotencyStore(c.Idempotency),
		application.WithSlotLocker(c.Locker),
		application.WithEventPublisher(c.Publisher),
		application.WithLogger(logger),
	}
}

// BuildCollaborators picks adapters from config. The clinic REST API wins over
// postgres for slots and appointments; without either, everything runs in memory.
func BuildCollaborators(ctx context.Context, cfg Config, logger *slog.Logger) *Collaborators {
	c := &Collaborators{
		Slots:       schedmemory.NewSlotProvider(),
		Store:       schedmemory.NewStore(),
		Idempotency: schedmemory.NewIdempotencyStore(),
		Locker:      schedmemory.NewSlotLocker(),
		Publisher:   schedmemory.NewPublisher(),
	}

	if db, cleanup := connectPostgres(ctx, cfg, logger); db != nil {
		c.cleanups = append(c.cleanups, cleanup)
		c.Slots = schedpostgres.NewSlotProvider(db)
		c.Store = schedpostgres.NewStore(db)
		c.Idempotency = schedpostgres.NewIdempotencyStore(db)
		c.shared = true
		logger.Info("appointment store configured with postgres")
	}

	if cfg.ClinicAPIURL != "" {
		client, err := clinicapi.NewClient(cfg.ClinicAPIURL)
		if err != nil {
			logger.Warn("invalid clinic API configuration, keeping current store", slog.String("error", err.Error()))
		} else {
			c.Slots = clinicapi.NewSlotProvider(client)
			c.Store = clinicapi.NewStore(client)
			c.shared = true
			logger.Info("appointment store configured with clinic API", slog.String("url", cfg.ClinicAPIURL))
		}
	}

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, using in-process slot locks", slog.String("error", err.Error()))
			_ = rdb.Close()
		} else {
			c.cleanups = append(c.cleanups, func() { _ = rdb.Close() })
			c.Locker = schedredis.NewSlotLocker(rdb, schedredis.DefaultLockTTL, "")
			logger.Info("slot locks configured with redis", slog.String("addr", cfg.RedisAddr))
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafkapublisher.NewPublisher(strings.Join(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		if err != nil {
			logger.Warn("kafka publisher unavailable, events stay in process", slog.String("error", err.Error()))
		} else {
			c.cleanups = append(c.cleanups, func() { _ = publisher.Close() })
			c.Publisher = publisher
			logger.Info("scheduling events published to kafka", slog.String("topic", cfg.KafkaTopic))
		}
	}
	return c
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return nil, cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate scheduling schema, using in-memory store", slog.String("error", err.Error()))
		cleanup()
		return nil, func() {}
	}
	return db, cleanup
}
