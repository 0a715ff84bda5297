package schedctl

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schedhttpmapper "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/http/mapper"
	schedmemory "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/memory"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var cliNow = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

func memoryFactory() ServiceFactory {
	from := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	slots := schedmemory.NewSlotProvider(
		domain.TimeSlot{From: from, To: from.Add(30 * time.Minute), Available: true},
		domain.TimeSlot{From: from.Add(time.Hour), To: from.Add(90 * time.Minute), Available: true},
	)
	svc := application.NewService(slots, schedmemory.NewStore(),
		application.WithClock(func() time.Time { return cliNow }),
		application.WithLocation(time.UTC),
	)
	return func(context.Context) (schedports.Service, func(), error) {
		return svc, func() {}, nil
	}
}

func run(t *testing.T, factory ServiceFactory, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatesAndSlots(t *testing.T) {
	factory := memoryFactory()

	out, err := run(t, factory, "dates")
	require.NoError(t, err)
	var dates schedhttpmapper.AvailableDates
	require.NoError(t, json.Unmarshal([]byte(out), &dates))
	assert.Equal(t, []string{"2024-06-03"}, dates.Dates)

	out, err = run(t, factory, "dates", "--window", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &dates))
	assert.Empty(t, dates.Dates)

	out, err = run(t, factory, "slots", "--date", "2024-06-03")
	require.NoError(t, err)
	var slots []schedhttpmapper.TimeSlot
	require.NoError(t, json.Unmarshal([]byte(out), &slots))
	assert.Len(t, slots, 2)

	_, err = run(t, factory, "slots", "--date", "tomorrow")
	require.Error(t, err)
}

func TestBookCancelAndList(t *testing.T) {
	factory := memoryFactory()

	out, err := run(t, factory, "book", "--user", "user-1", "--pet", "pet-1", "--service", "Grooming",
		"--from", "2024-06-03T09:00:00Z", "--to", "2024-06-03T09:30:00Z",
		"--card-number", "4111111111111111", "--expiry", "12/27", "--cvv", "123")
	require.NoError(t, err)
	var booked schedhttpmapper.Appointment
	require.NoError(t, json.Unmarshal([]byte(out), &booked))
	assert.Equal(t, "pending", booked.Status)

	_, err = run(t, factory, "book", "--user", "user-2", "--pet", "pet-9", "--service", "OPD",
		"--from", "2024-06-03T09:00:00Z", "--to", "2024-06-03T09:30:00Z",
		"--card-number", "4111111111111111", "--expiry", "12/27", "--cvv", "123")
	require.ErrorIs(t, err, application.ErrSlotConflict)

	out, err = run(t, factory, "edit", booked.ID, "--user", "user-1", "--pet", "pet-1", "--service", "Grooming", "--service", "OPD",
		"--from", "2024-06-03T09:00:00Z", "--to", "2024-06-03T09:30:00Z")
	require.NoError(t, err)
	var edited schedhttpmapper.Appointment
	require.NoError(t, json.Unmarshal([]byte(out), &edited))
	assert.ElementsMatch(t, []string{"Grooming", "OPD"}, edited.Services)

	out, err = run(t, factory, "status", booked.ID, "confirmed")
	require.NoError(t, err)
	assert.Contains(t, out, `"confirmed"`)

	_, err = run(t, factory, "cancel", booked.ID, "--user", "user-1")
	require.NoError(t, err)

	out, err = run(t, factory, "list", "--user", "user-1")
	require.NoError(t, err)
	var list []schedhttpmapper.Appointment
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "cancelled", list[0].Status)
}

func TestListAllForStaff(t *testing.T) {
	factory := memoryFactory()
	for _, booking := range [][]string{
		{"--user", "user-1", "--from", "2024-06-03T09:00:00Z", "--to", "2024-06-03T09:30:00Z"},
		{"--user", "user-2", "--from", "2024-06-03T10:00:00Z", "--to", "2024-06-03T10:30:00Z"},
	} {
		args := append([]string{"book", "--pet", "pet-1", "--service", "OPD",
			"--card-number", "4111111111111111", "--expiry", "12/27", "--cvv", "123"}, booking...)
		_, err := run(t, factory, args...)
		require.NoError(t, err)
	}

	out, err := run(t, factory, "list", "--all")
	require.NoError(t, err)
	var all []schedhttpmapper.Appointment
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "user-1", all[0].UserID)
	assert.Equal(t, "user-2", all[1].UserID)

	_, err = run(t, factory, "status", all[1].ID, "confirmed")
	require.NoError(t, err)
	out, err = run(t, factory, "list", "--all", "--status", "confirmed", "--date", "2024-06-03")
	require.NoError(t, err)
	var confirmed []schedhttpmapper.Appointment
	require.NoError(t, json.Unmarshal([]byte(out), &confirmed))
	require.Len(t, confirmed, 1)
	assert.Equal(t, "user-2", confirmed[0].UserID)

	_, err = run(t, factory, "list", "--status", "confirmed")
	require.Error(t, err)
}

func TestEditRequiresExactlyOneID(t *testing.T) {
	_, err := run(t, memoryFactory(), "edit")
	require.Error(t, err)
}
