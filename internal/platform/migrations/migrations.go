package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the scheduling schema. Adapters never auto-migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&appointmentRecord{},
		&clinicSlotRecord{},
		&idempotencyKeyRecord{},
	)
}

// Appointment schema mirrors the scheduling Postgres store.
type appointmentRecord struct {
	ID              string         `gorm:"primaryKey;column:id;type:uuid"`
	UserID          string         `gorm:"column:user_id;index"`
	PetID           string         `gorm:"column:pet_id"`
	Services        pq.StringArray `gorm:"column:services;type:text[]"`
	AppointmentFrom time.Time      `gorm:"column:appointment_from;index:idx_appointments_interval"`
	AppointmentTo   time.Time      `gorm:"column:appointment_to;index:idx_appointments_interval"`
	Status          string         `gorm:"column:status;type:varchar(16);index"`
	PaymentMethod   string         `gorm:"column:payment_method"`
	PaymentAmount   int64          `gorm:"column:payment_amount"`
	CardLast4       string         `gorm:"column:card_last4;size:4"`
	CardExpiry      string         `gorm:"column:card_expiry;size:5"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (appointmentRecord) TableName() string { return "appointments" }

// Slot schema mirrors the scheduling Postgres slot provider.
type clinicSlotRecord struct {
	ID        int64     `gorm:"primaryKey;column:id;autoIncrement"`
	SlotFrom  time.Time `gorm:"column:slot_from;uniqueIndex:idx_clinic_slots_interval"`
	SlotTo    time.Time `gorm:"column:slot_to;uniqueIndex:idx_clinic_slots_interval"`
	Available bool      `gorm:"column:available"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (clinicSlotRecord) TableName() string { return "clinic_slots" }

// Idempotency schema mirrors the booking idempotency store.
type idempotencyKeyRecord struct {
	Key           string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash   string    `gorm:"column:request_hash;size:128"`
	AppointmentID string    `gorm:"column:appointment_id;type:uuid"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (idempotencyKeyRecord) TableName() string { return "appointment_idempotency_keys" }
