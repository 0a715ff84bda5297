package domain

import (
	"sort"
	"time"
)

// DefaultBookingWindowDays matches the two-week horizon offered to clients.
const DefaultBookingWindowDays = 14

// AvailableDates collects the distinct local days, between today and today+windowDays
// inclusive, on which at least one available slot starts. The result is sorted.
func AvailableDates(slots []TimeSlot, windowDays int, referenceNow time.Time, loc *time.Location) []LocalDate {
	dates := []LocalDate{}
	if windowDays < 0 || len(slots) == 0 {
		return dates
	}
	today := DateOf(referenceNow, loc)
	last := today.AddDays(windowDays)
	seen := make(map[LocalDate]struct{}, len(slots))
	for _, slot := range slots {
		if !slot.Available {
			continue
		}
		day := DateOf(slot.From, loc)
		if day.Before(today) || day.After(last) {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SlotsForDate returns the available slots starting on date, in input order.
func SlotsForDate(slots []TimeSlot, date LocalDate, loc *time.Location) []TimeSlot {
	result := []TimeSlot{}
	for _, slot := range slots {
		if slot.Available && DateOf(slot.From, loc) == date {
			result = append(result, slot)
		}
	}
	return result
}

// SortSlots returns a copy ordered by start time.
func SortSlots(slots []TimeSlot) []TimeSlot {
	sorted := append([]TimeSlot{}, slots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From.Before(sorted[j].From) })
	return sorted
}

// FindSlot looks up the slot with exactly the bounds of want.
func FindSlot(slots []TimeSlot, want TimeSlot) (TimeSlot, bool) {
	for _, slot := range slots {
		if slot.SameInterval(want) {
			return slot, true
		}
	}
	return TimeSlot{}, false
}
