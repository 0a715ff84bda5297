package domain

import "time"

// DefaultEditWindow is the lead time before an appointment after which it is frozen.
const DefaultEditWindow = 24 * time.Hour

// EditWindow gates edits and cancellations on the remaining lead time.
type EditWindow struct {
	Threshold time.Duration
}

// NewEditWindow clamps negative thresholds to zero.
func NewEditWindow(threshold time.Duration) EditWindow {
	if threshold < 0 {
		threshold = 0
	}
	return EditWindow{Threshold: threshold}
}

// Allows reports whether an appointment starting at from may still change at now.
func (w EditWindow) Allows(from, now time.Time) bool {
	return CanModify(from, now, w.Threshold)
}

// CanModify is true only when strictly more than threshold remains before from.
func CanModify(appointmentFrom, now time.Time, threshold time.Duration) bool {
	return appointmentFrom.Sub(now) > threshold
}
