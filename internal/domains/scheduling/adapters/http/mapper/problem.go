package mapper

import (
	"errors"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	apierrors "github.com/Apurer/petclinic-scheduling/internal/shared/errors"
)

// ProblemFromError maps scheduling failures onto problem details. It plugs into
// apierrors.Responder as an ErrorMapper.
func ProblemFromError(err error) (apierrors.ProblemDetail, bool) {
	if err == nil {
		return apierrors.ProblemDetail{}, false
	}
	var windowErr *application.EditWindowError
	switch {
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrSlotConflict):
		return apierrors.ErrSlotConflict.WithDetail(err.Error()), true
	case errors.As(err, &windowErr):
		return apierrors.ErrEditWindowClosed.
			WithDetail(err.Error()).
			WithExtension("thresholdHours", windowErr.Threshold.Hours()), true
	case errors.Is(err, application.ErrEditWindowClosed):
		return apierrors.ErrEditWindowClosed.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrValidation):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	var storeErr *application.StoreError
	if errors.As(err, &storeErr) {
		return apierrors.ErrUpstream.WithDetail(err.Error()).WithExtension("operation", storeErr.Op), true
	}
	return apierrors.ProblemDetail{}, false
}
