package domain

import (
	"errors"
	"fmt"
	"time"
)

const localDateLayout = "2006-01-02"

var (
	ErrInvalidSlot      = errors.New("slot must start before it ends")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrSlotDateMismatch = errors.New("selected slot does not fall on the selected date")
)

// LocalDate is a calendar day in the clinic's time zone, without a clock component.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the wall-clock day of t in loc. A nil loc means time.Local.
func DateOf(t time.Time, loc *time.Location) LocalDate {
	y, m, d := t.In(orLocal(loc)).Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseLocalDate parses a YYYY-MM-DD string.
func ParseLocalDate(value string) (LocalDate, error) {
	t, err := time.Parse(localDateLayout, value)
	if err != nil {
		return LocalDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t, time.UTC), nil
}

// IsZero reports whether the date is unset.
func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// AddDays returns the date n days later, normalizing month and year boundaries.
func (d LocalDate) AddDays(n int) LocalDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC), time.UTC)
}

// Before reports whether d is strictly earlier than other.
func (d LocalDate) Before(other LocalDate) bool {
	return d.compare(other) < 0
}

// After reports whether d is strictly later than other.
func (d LocalDate) After(other LocalDate) bool {
	return d.compare(other) > 0
}

// StartIn returns midnight of the date in loc.
func (d LocalDate) StartIn(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, orLocal(loc))
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d LocalDate) compare(other LocalDate) int {
	switch {
	case d.Year != other.Year:
		return d.Year - other.Year
	case d.Month != other.Month:
		return int(d.Month) - int(other.Month)
	default:
		return d.Day - other.Day
	}
}

// TimeSlot is a bookable interval as published by the slot source.
type TimeSlot struct {
	From      time.Time
	To        time.Time
	Available bool
}

// NewTimeSlot builds a slot, rejecting empty or inverted intervals.
func NewTimeSlot(from, to time.Time, available bool) (TimeSlot, error) {
	slot := TimeSlot{From: from, To: to, Available: available}
	if !slot.Valid() {
		return TimeSlot{}, ErrInvalidSlot
	}
	return slot, nil
}

// Valid reports whether From is strictly before To.
func (s TimeSlot) Valid() bool {
	return s.From.Before(s.To)
}

// IsZero reports whether neither bound is set.
func (s TimeSlot) IsZero() bool {
	return s.From.IsZero() && s.To.IsZero()
}

// Duration is the length of the interval.
func (s TimeSlot) Duration() time.Duration {
	return s.To.Sub(s.From)
}

// Overlaps uses half-open semantics: [From, To) intersects [other.From, other.To).
// Zero-length slots never overlap anything, including themselves.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.From.Before(other.To) && other.From.Before(s.To)
}

// IsSameDay reports whether the slot starts on the same local day as t.
func (s TimeSlot) IsSameDay(t time.Time, loc *time.Location) bool {
	return DateOf(s.From, loc) == DateOf(t, loc)
}

// SameInterval compares bounds only, ignoring availability and location.
func (s TimeSlot) SameInterval(other TimeSlot) bool {
	return s.From.Equal(other.From) && s.To.Equal(other.To)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s-%s", s.From.Format(time.RFC3339), s.To.Format(time.RFC3339))
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
