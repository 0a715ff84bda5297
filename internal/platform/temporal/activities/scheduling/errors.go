package scheduling

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// Application error types carried across the workflow boundary. None of them are retried.
const (
	ErrorTypeValidation          = "SchedulingValidation"
	ErrorTypeSlotConflict        = "SchedulingSlotConflict"
	ErrorTypeEditWindowClosed    = "SchedulingEditWindowClosed"
	ErrorTypeIdempotencyConflict = "SchedulingIdempotencyConflict"
	ErrorTypeNotFound            = "SchedulingNotFound"
)

var errorTypes = []struct {
	name     string
	sentinel error
}{
	{ErrorTypeValidation, application.ErrValidation},
	{ErrorTypeSlotConflict, application.ErrSlotConflict},
	{ErrorTypeEditWindowClosed, application.ErrEditWindowClosed},
	{ErrorTypeIdempotencyConflict, ports.ErrIdempotencyConflict},
	{ErrorTypeNotFound, ports.ErrNotFound},
}

// NonRetryableErrorTypes lists the types a retry policy must give up on.
func NonRetryableErrorTypes() []string {
	names := make([]string, 0, len(errorTypes))
	for _, t := range errorTypes {
		names = append(names, t.name)
	}
	return names
}

// EncodeError turns client-correctable scheduling failures into non-retryable
// application errors. Anything else is returned untouched so Temporal retries it.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	for _, t := range errorTypes {
		if errors.Is(err, t.sentinel) {
			return temporal.NewNonRetryableApplicationError(err.Error(), t.name, err)
		}
	}
	return err
}

// DecodeError restores the scheduling error categories from a workflow failure.
// Unrecognized failures surface as a StoreError for the booking operation.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		for _, t := range errorTypes {
			if appErr.Type() == t.name {
				return fmt.Errorf("%w: %s", t.sentinel, appErr.Message())
			}
		}
	}
	return &application.StoreError{Op: "book workflow", Err: err}
}
