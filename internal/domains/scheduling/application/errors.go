package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var (
	// ErrValidation signals a client-correctable request problem.
	ErrValidation = errors.New("invalid appointment request")
	// ErrSlotConflict signals the chosen slot was taken between selection and commit.
	ErrSlotConflict = errors.New("time slot is no longer available")
	// ErrEditWindowClosed signals the appointment is too close to change.
	ErrEditWindowClosed = errors.New("appointment can no longer be modified")
)

// EditWindowError explains an edit-window rejection with its threshold.
type EditWindowError struct {
	Threshold time.Duration
	From      time.Time
}

func (e *EditWindowError) Error() string {
	return fmt.Sprintf("%s: changes must be made more than %s before the appointment at %s",
		ErrEditWindowClosed, e.Threshold, e.From.Format(time.RFC3339))
}

func (e *EditWindowError) Is(target error) bool {
	return target == ErrEditWindowClosed
}

// StoreError wraps a failure reported by a collaborator.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("appointment store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StoreError
	if errors.As(err, &existing) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

var validationErrors = []error{
	domain.ErrMissingUser,
	domain.ErrMissingPet,
	domain.ErrMissingService,
	domain.ErrUnknownService,
	domain.ErrMissingSlot,
	domain.ErrInvalidSlot,
	domain.ErrInvalidDate,
	domain.ErrSlotDateMismatch,
	domain.ErrMissingPaymentMethod,
	domain.ErrInvalidCardNumber,
	domain.ErrInvalidCVV,
	domain.ErrExpiredCard,
	domain.ErrNoChangeDetected,
	domain.ErrInvalidStatus,
	domain.ErrInvalidTransition,
	domain.ErrAppointmentInactive,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) {
		return err
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if errors.Is(err, ports.ErrSlotLocked) {
		return fmt.Errorf("%w: %w", ErrSlotConflict, err)
	}
	return err
}
