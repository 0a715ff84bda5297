//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const (
	ProviderName = "scheduling-api"
	ConsumerName = "clinic-portal"

	StateSlotsOpen          = "open slots on 2024-06-03"
	StateSlotBooked         = "slot 2024-06-03T09:00Z is already booked"
	StateAppointmentMissing = "no appointment with id appt-missing"
)

const (
	PortalUserID         = "pact-user"
	OtherUserID          = "pact-other-user"
	MissingAppointmentID = "appt-missing"
	ExamplePetID         = "pet-pact-1"
	ExampleDate          = "2024-06-03"
)

// Now is the fixed clock the provider runs on while verifying.
var Now = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

// SlotFrom and SlotTo bound the slot every booking interaction targets.
var (
	SlotFrom = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	SlotTo   = SlotFrom.Add(30 * time.Minute)
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the clinic portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleBookingPayload is the request body the portal sends when booking.
func ExampleBookingPayload() map[string]any {
	return map[string]any{
		"petId":           ExamplePetID,
		"services":        []string{"OPD", "Vaccination"},
		"appointmentFrom": SlotFrom.Format(time.RFC3339),
		"appointmentTo":   SlotTo.Format(time.RFC3339),
		"date":            ExampleDate,
		"payment": map[string]any{
			"paymentMethod": "card",
			"cardNumber":    "4111 1111 1111 1111",
			"expiryDate":    "12/27",
			"cvv":           "123",
		},
	}
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
