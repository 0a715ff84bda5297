package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	kafkapublisher "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/messaging/kafka"
)

const (
	defaultEditWindowHours   = 24
	defaultBookingWindowDays = 14
	defaultIdempotencyTTL    = 72 * time.Hour
)

// Config carries environment-driven settings for the scheduling processes.
type Config struct {
	Port              string
	PostgresDSN       string
	ClinicAPIURL      string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	EditWindow        time.Duration
	BookingWindowDays int
	Location          *time.Location
	RedisAddr         string
	KafkaBrokers      []string
	KafkaTopic        string
	IdempotencyTTL    time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		ClinicAPIURL:      strings.TrimSpace(os.Getenv("CLINIC_API_URL")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		EditWindow:        defaultEditWindowHours * time.Hour,
		BookingWindowDays: defaultBookingWindowDays,
		Location:          time.Local,
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:      kafkapublisher.SplitBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        envDefault("KAFKA_TOPIC", kafkapublisher.DefaultTopic),
		IdempotencyTTL:    defaultIdempotencyTTL,
	}
	if raw := strings.TrimSpace(os.Getenv("EDIT_WINDOW_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			return Config{}, fmt.Errorf("EDIT_WINDOW_HOURS must be a non-negative integer")
		}
		cfg.EditWindow = time.Duration(hours) * time.Hour
	}
	if raw := strings.TrimSpace(os.Getenv("BOOKING_WINDOW_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return Config{}, fmt.Errorf("BOOKING_WINDOW_DAYS must be a non-negative integer")
		}
		cfg.BookingWindowDays = days
	}
	if raw := strings.TrimSpace(os.Getenv("CLINIC_TIMEZONE")); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return Config{}, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}
	if raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be a positive integer")
		}
		cfg.IdempotencyTTL = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
