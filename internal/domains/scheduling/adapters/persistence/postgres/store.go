package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

var (
	_ ports.AppointmentStore = (*Store)(nil)
	_ ports.OverlapFinder    = (*Store)(nil)
)

var activeStatuses = []string{string(domain.StatusPending), string(domain.StatusConfirmed)}

// Store persists appointments in PostgreSQL. The caller owns the DB lifecycle; schema comes from migrations.Run.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed appointment store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

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

// Create inserts a new appointment under a generated UUID.
func (s *Store) Create(ctx context.Context, appt *domain.Appointment) (*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, errors.New("cannot create nil appointment")
	}
	record := toRecord(appt)
	record.ID = uuid.NewString()
	if record.Status == "" {
		record.Status = string(domain.StatusPending)
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return toProjection(&record), nil
}

// Update writes the non-nil fields and returns the refreshed row.
func (s *Store) Update(ctx context.Context, id string, fields ports.AppointmentUpdate) (*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ports.ErrNotFound
	}
	updates := map[string]any{"updated_at": gorm.Expr("NOW()")}
	if fields.PetID != nil {
		updates["pet_id"] = *fields.PetID
	}
	if fields.Services != nil {
		updates["services"] = serviceArray(*fields.Services)
	}
	if fields.From != nil {
		updates["appointment_from"] = *fields.From
	}
	if fields.To != nil {
		updates["appointment_to"] = *fields.To
	}
	return s.updateColumns(ctx, id, updates)
}

// SetStatus overwrites the lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.Status) (*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ports.ErrNotFound
	}
	return s.updateColumns(ctx, id, map[string]any{
		"status":     string(status),
		"updated_at": gorm.Expr("NOW()"),
	})
}

// Get fetches an appointment by identifier.
func (s *Store) Get(ctx context.Context, id string) (*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ports.ErrNotFound
	}
	var record appointmentRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return toProjection(&record), nil
}

// ListForUser returns the user's appointments ordered by start.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []appointmentRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("appointment_from ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toProjectionList(records), nil
}

// List returns every appointment passing the filter, ordered by start.
func (s *Store) List(ctx context.Context, filter ports.AppointmentFilter) ([]*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&appointmentRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if !filter.From.IsZero() {
		query = query.Where("appointment_from >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("appointment_from < ?", filter.To.UTC())
	}
	var records []appointmentRecord
	if err := query.Order("appointment_from ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return toProjectionList(records), nil
}

// ListActiveBetween returns pending or confirmed appointments intersecting [from, to).
func (s *Store) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*projection.Projection[*domain.Appointment], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []appointmentRecord
	if err := s.db.WithContext(ctx).
		Where("status IN ?", activeStatuses).
		Where("appointment_from < ? AND appointment_to > ?", to, from).
		Order("appointment_from ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toProjectionList(records), nil
}

func (s *Store) updateColumns(ctx context.Context, id string, updates map[string]any) (*projection.Projection[*domain.Appointment], error) {
	result := s.db.WithContext(ctx).Model(&appointmentRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres appointment store not configured")
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func toRecord(appt *domain.Appointment) appointmentRecord {
	rec := appointmentRecord{
		ID:              appt.ID,
		UserID:          appt.UserID,
		PetID:           appt.PetID,
		Services:        serviceArray(appt.Services),
		AppointmentFrom: appt.From.UTC(),
		AppointmentTo:   appt.To.UTC(),
		Status:          string(appt.Status),
	}
	if appt.Payment != nil {
		rec.PaymentMethod = appt.Payment.Method
		rec.PaymentAmount = appt.Payment.Amount
		rec.CardLast4 = appt.Payment.CardLast4
		rec.CardExpiry = appt.Payment.Expiry
	}
	return rec
}

func toDomain(rec *appointmentRecord) *domain.Appointment {
	appt := &domain.Appointment{
		ID:     rec.ID,
		UserID: rec.UserID,
		PetID:  rec.PetID,
		From:   rec.AppointmentFrom,
		To:     rec.AppointmentTo,
		Status: domain.Status(rec.Status),
	}
	appt.Services = make([]domain.ServiceType, 0, len(rec.Services))
	for _, svc := range rec.Services {
		appt.Services = append(appt.Services, domain.ServiceType(svc))
	}
	if rec.PaymentMethod != "" {
		appt.Payment = &domain.PaymentRecord{
			Method:    rec.PaymentMethod,
			Amount:    rec.PaymentAmount,
			CardLast4: rec.CardLast4,
			Expiry:    rec.CardExpiry,
		}
	}
	return appt
}

func toProjection(rec *appointmentRecord) *projection.Projection[*domain.Appointment] {
	return projection.New(toDomain(rec), rec.CreatedAt, rec.UpdatedAt)
}

func toProjectionList(records []appointmentRecord) []*projection.Projection[*domain.Appointment] {
	result := make([]*projection.Projection[*domain.Appointment], 0, len(records))
	for i := range records {
		result = append(result, toProjection(&records[i]))
	}
	return result
}

func serviceArray(services []domain.ServiceType) pq.StringArray {
	arr := make(pq.StringArray, 0, len(services))
	for _, svc := range services {
		arr = append(arr, string(svc))
	}
	return arr
}
