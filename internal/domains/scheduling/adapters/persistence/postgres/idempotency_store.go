package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps booking idempotency keys in the
// appointment_idempotency_keys table.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a gorm handle into the idempotency port.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

type idempotencyKeyRow struct {
	Key           string    `gorm:"primaryKey;column:key"`
	RequestHash   string    `gorm:"column:request_hash"`
	AppointmentID string    `gorm:"column:appointment_id"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (idempotencyKeyRow) TableName() string { return "appointment_idempotency_keys" }

func (r idempotencyKeyRow) record() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:           r.Key,
		RequestHash:   r.RequestHash,
		AppointmentID: r.AppointmentID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Get returns the record stored under key, or nil when the key is unknown.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var row idempotencyKeyRow
	err = db.Take(&row, "key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	return row.record(), nil
}

// Save claims the key with INSERT ... ON CONFLICT DO NOTHING. When another
// request already owns it, the stored row decides between replay and
// ports.ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row := idempotencyKeyRow{Key: record.Key, RequestHash: record.RequestHash, AppointmentID: record.AppointmentID}
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("save idempotency key: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return row.record(), nil
	}

	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("idempotency key %q vanished while saving", record.Key)
	}
	if !existing.Matches(record) {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

// PurgeOlderThan deletes keys created before cutoff and reports how many went.
func (s *IdempotencyStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("created_at < ?", cutoff).Delete(&idempotencyKeyRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *IdempotencyStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres idempotency store not configured")
	}
	return s.db.WithContext(ctx), nil
}
