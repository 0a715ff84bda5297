package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.SlotProvider = (*SlotProvider)(nil)

// SlotProvider reads the clinic's published slots. A slot is reported available only when
// the clinic opened it and no active appointment overlaps it.
type SlotProvider struct {
	db *gorm.DB
}

// NewSlotProvider wires a PostgreSQL-backed slot provider.
func NewSlotProvider(db *gorm.DB) *SlotProvider {
	return &SlotProvider{db: db}
}

type slotRecord struct {
	ID        int64     `gorm:"primaryKey;column:id;autoIncrement"`
	SlotFrom  time.Time `gorm:"column:slot_from;uniqueIndex:idx_clinic_slots_interval"`
	SlotTo    time.Time `gorm:"column:slot_to;uniqueIndex:idx_clinic_slots_interval"`
	Available bool      `gorm:"column:available"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (slotRecord) TableName() string { return "clinic_slots" }

const listSlotsQuery = `
SELECT s.slot_from, s.slot_to,
       s.available AND NOT EXISTS (
           SELECT 1 FROM appointments a
           WHERE a.status IN ?
             AND a.appointment_from < s.slot_to
             AND a.appointment_to > s.slot_from
       ) AS available
FROM clinic_slots s
ORDER BY s.slot_from ASC`

type slotRow struct {
	SlotFrom  time.Time
	SlotTo    time.Time
	Available bool
}

// ListSlots returns every published slot ordered by start.
func (p *SlotProvider) ListSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	if err := p.ensureDB(); err != nil {
		return nil, err
	}
	var rows []slotRow
	if err := p.db.WithContext(ctx).Raw(listSlotsQuery, activeStatuses).Scan(&rows).Error; err != nil {
		return nil, err
	}
	slots := make([]domain.TimeSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, domain.TimeSlot{From: row.SlotFrom, To: row.SlotTo, Available: row.Available})
	}
	return slots, nil
}

// Publish opens or updates slots. Existing intervals keep their row and take the new availability.
func (p *SlotProvider) Publish(ctx context.Context, slots ...domain.TimeSlot) error {
	if err := p.ensureDB(); err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}
	records := make([]slotRecord, 0, len(slots))
	for _, slot := range slots {
		if !slot.Valid() {
			return domain.ErrInvalidSlot
		}
		records = append(records, slotRecord{SlotFrom: slot.From.UTC(), SlotTo: slot.To.UTC(), Available: slot.Available})
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_from"}, {Name: "slot_to"}},
			DoUpdates: clause.AssignmentColumns([]string{"available", "updated_at"}),
		}).
		Create(&records).Error
}

func (p *SlotProvider) ensureDB() error {
	if p == nil || p.db == nil {
		return errors.New("postgres slot provider not configured")
	}
	return nil
}
