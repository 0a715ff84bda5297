package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord ties a client-supplied key to the appointment it created.
type IdempotencyRecord struct {
	Key           string
	RequestHash   string
	AppointmentID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Matches reports whether other replays the request that created r.
func (r IdempotencyRecord) Matches(other IdempotencyRecord) bool {
	return r.RequestHash == other.RequestHash && r.AppointmentID == other.AppointmentID
}

// IdempotencyStore persists idempotency keys so booking retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record; if the key already exists with the same hash and appointment, the stored record is returned.
	// When the key exists but points elsewhere, ErrIdempotencyConflict is returned with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
	// PurgeOlderThan removes records created before cutoff and reports how many were dropped.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
