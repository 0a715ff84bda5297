//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pacttest "github.com/Apurer/petclinic-scheduling/test/pact"

	clinicserver "github.com/Apurer/petclinic-scheduling/go"
	schedmemory "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/memory"
	schedobs "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/observability"
	schedworkflows "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/workflows"
	schedapp "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestSchedulingProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateSlotsOpen: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateSlotBooked: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedBooking(t, pacttest.PortalUserID)
			}
			return nil, nil
		},
		pacttest.StateAppointmentMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds the whole service graph on reset so every
// interaction starts from an empty appointment book.
type contractProviderApp struct {
	mu     sync.RWMutex
	store  *schedmemory.Store
	router *gin.Engine
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		router := app.router
		app.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	clock := func() time.Time { return pacttest.Now }
	slots := schedmemory.NewSlotProvider(
		domain.TimeSlot{From: pacttest.SlotFrom, To: pacttest.SlotTo, Available: true},
		domain.TimeSlot{From: pacttest.SlotTo, To: pacttest.SlotTo.Add(30 * time.Minute), Available: true},
	)
	store := schedmemory.NewStore()
	store.WithClock(clock)
	service := schedobs.New(schedapp.NewService(slots, store,
		schedapp.WithClock(clock),
		schedapp.WithLocation(time.UTC),
		schedapp.WithIdempotencyStore(schedmemory.NewIdempotencyStore()),
		schedapp.WithSlotLocker(schedmemory.NewSlotLocker()),
	))

	router := gin.New()
	router.Use(gin.Recovery())
	router = clinicserver.NewRouterWithGinEngine(router, clinicserver.ApiHandleFunctions{
		AppointmentAPI: clinicserver.NewAppointmentAPI(service, schedworkflows.NewInlineBookingWorkflows(service)),
		SlotAPI:        clinicserver.NewSlotAPI(service),
	})

	a.mu.Lock()
	a.store = store
	a.router = router
	a.mu.Unlock()
}

func (a *contractProviderApp) seedBooking(t testing.TB, userID string) {
	t.Helper()
	a.mu.RLock()
	store := a.store
	a.mu.RUnlock()

	appt := domain.NewAppointment(domain.Session{UserID: userID}, domain.AppointmentRequest{
		PetID:    pacttest.ExamplePetID,
		Services: []domain.ServiceType{domain.ServiceOPD},
		From:     pacttest.SlotFrom,
		To:       pacttest.SlotTo,
		Payment:  &domain.PaymentDetails{Method: "card", CardNumber: "4111 1111 1111 1111", Expiry: "12/27", CVV: "123"},
	})
	_, err := store.Create(context.Background(), appt)
	require.NoError(t, err)
}
