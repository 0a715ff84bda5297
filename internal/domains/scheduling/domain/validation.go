package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingPet           = errors.New("please select a pet")
	ErrMissingService       = errors.New("please select at least one service")
	ErrMissingSlot          = errors.New("please select an available time slot")
	ErrMissingPaymentMethod = errors.New("please select a payment method")
	ErrInvalidCardNumber    = errors.New("card number must be exactly 16 digits")
	ErrInvalidCVV           = errors.New("cvv must be exactly 3 digits")
	ErrExpiredCard          = errors.New("card has expired")
	ErrNoChangeDetected     = errors.New("no changes were made to the appointment")
)

var expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)

// PaymentDetails carries the card fields entered for a new booking.
type PaymentDetails struct {
	Method     string
	CardNumber string
	Expiry     string
	CVV        string
}

// Normalized strips the spacing and dashes that presentation layers add to card digits.
func (p PaymentDetails) Normalized() PaymentDetails {
	strip := strings.NewReplacer(" ", "", "-", "")
	return PaymentDetails{
		Method:     strings.TrimSpace(p.Method),
		CardNumber: strip.Replace(p.CardNumber),
		Expiry:     strings.TrimSpace(p.Expiry),
		CVV:        strings.TrimSpace(p.CVV),
	}
}

// Validate checks every card field against now.
func (p PaymentDetails) Validate(now time.Time) error {
	n := p.Normalized()
	if n.Method == "" {
		return ErrMissingPaymentMethod
	}
	if !isDigits(n.CardNumber, 16) {
		return ErrInvalidCardNumber
	}
	if err := ValidateExpiry(n.Expiry, now); err != nil {
		return err
	}
	if !isDigits(n.CVV, 3) {
		return ErrInvalidCVV
	}
	return nil
}

// Record keeps only the fields safe to persist.
func (p PaymentDetails) Record(amount int64) *PaymentRecord {
	n := p.Normalized()
	last4 := n.CardNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return &PaymentRecord{Method: n.Method, Amount: amount, CardLast4: last4, Expiry: n.Expiry}
}

// ValidateExpiry accepts MM/YY values whose month is not before now's month.
func ValidateExpiry(expiry string, now time.Time) error {
	match := expiryPattern.FindStringSubmatch(strings.TrimSpace(expiry))
	if match == nil {
		return fmt.Errorf("%w: use MM/YY", ErrExpiredCard)
	}
	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 01 and 12", ErrExpiredCard)
	}
	year += 2000
	if year < now.Year() || (year == now.Year() && time.Month(month) < now.Month()) {
		return ErrExpiredCard
	}
	return nil
}

func isDigits(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AppointmentRequest is the transient booking or edit request composed by a client.
type AppointmentRequest struct {
	PetID    string
	Services []ServiceType
	From     time.Time
	To       time.Time
	Payment  *PaymentDetails
}

// Slot returns the requested interval.
func (r AppointmentRequest) Slot() TimeSlot {
	return TimeSlot{From: r.From, To: r.To}
}

// Selection is what the client picked in the date and slot steps.
type Selection struct {
	Date     LocalDate
	Slot     *TimeSlot
	Location *time.Location
}

// ChangeSet flags which fields differ between an appointment and a proposed edit.
type ChangeSet struct {
	PetChanged     bool
	ServiceChanged bool
	SlotChanged    bool
}

// Any reports whether at least one field changed.
func (c ChangeSet) Any() bool {
	return c.PetChanged || c.ServiceChanged || c.SlotChanged
}

// ValidateForCreate checks a new booking, including payment fields.
func ValidateForCreate(req AppointmentRequest, sel Selection, now time.Time) error {
	if err := validateCommon(req); err != nil {
		return err
	}
	if sel.Slot == nil || sel.Slot.IsZero() || sel.Date.IsZero() {
		return ErrMissingSlot
	}
	if !sel.Slot.Valid() {
		return ErrInvalidSlot
	}
	if DateOf(sel.Slot.From, sel.Location) != sel.Date {
		return fmt.Errorf("%w: %s", ErrSlotDateMismatch, sel.Date)
	}
	if req.Payment == nil {
		return ErrMissingPaymentMethod
	}
	return req.Payment.Validate(now)
}

// ValidateForEdit checks a proposed edit and reports what it would change.
func ValidateForEdit(original Appointment, proposed AppointmentRequest) (ChangeSet, error) {
	if err := validateCommon(proposed); err != nil {
		return ChangeSet{}, err
	}
	if proposed.Slot().IsZero() {
		return ChangeSet{}, ErrMissingSlot
	}
	if !proposed.Slot().Valid() {
		return ChangeSet{}, ErrInvalidSlot
	}
	changes := ChangeSet{
		PetChanged:     strings.TrimSpace(proposed.PetID) != original.PetID,
		ServiceChanged: !SameServices(original.Services, proposed.Services),
		SlotChanged:    !original.Slot().SameInterval(proposed.Slot()),
	}
	if !changes.Any() {
		return changes, ErrNoChangeDetected
	}
	return changes, nil
}

func validateCommon(req AppointmentRequest) error {
	if strings.TrimSpace(req.PetID) == "" {
		return ErrMissingPet
	}
	if len(req.Services) == 0 {
		return ErrMissingService
	}
	for _, svc := range req.Services {
		if _, err := ParseServiceType(string(svc)); err != nil {
			return err
		}
	}
	return nil
}
