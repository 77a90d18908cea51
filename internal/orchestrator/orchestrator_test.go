package orchestrator_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/chem-dispersion-service/internal/dispersion"
	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
	"github.com/couchcryptid/chem-dispersion-service/internal/observability"
	"github.com/couchcryptid/chem-dispersion-service/internal/orchestrator"
)

// --- fakes ---

type fakeWeather struct {
	wx  domain.WeatherSnapshot
	err error
}

func (f *fakeWeather) CurrentWeather(context.Context, float64, float64) (domain.WeatherSnapshot, error) {
	if f.err != nil {
		return domain.WeatherSnapshot{}, f.err
	}
	return f.wx, nil
}

type fakeChemicals struct {
	chem domain.ChemicalProperties
	err  error
}

func (f *fakeChemicals) ChemicalProperties(context.Context, string) (domain.ChemicalProperties, error) {
	if f.err != nil {
		return domain.ChemicalProperties{}, f.err
	}
	return f.chem, nil
}

type fakeReceptors struct {
	receptors []domain.Receptor
}

func (f *fakeReceptors) ListActiveReceptorsNear(context.Context, float64, float64, float64) ([]domain.Receptor, error) {
	return f.receptors, nil
}

type fakeStore struct {
	mu        sync.Mutex
	created   []domain.ReleaseEvent
	statuses  map[string]domain.ReleaseStatus
	persisted []domain.DispersionResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: make(map[string]domain.ReleaseStatus)}
}

func (f *fakeStore) CreateRelease(_ context.Context, rel domain.ReleaseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rel)
	return nil
}

func (f *fakeStore) UpdateReleaseStatus(_ context.Context, id string, status domain.ReleaseStatus, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeStore) PersistCalculation(_ context.Context, result domain.DispersionResult, _ []domain.ReceptorImpact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, result)
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	updates []domain.CalculationUpdate
	panicOn string
}

func (f *fakePublisher) Publish(_ context.Context, releaseID string, update domain.CalculationUpdate) error {
	if f.panicOn != "" && releaseID == f.panicOn {
		panic("publisher exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakePublisher) byType(updateType string) []domain.CalculationUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CalculationUpdate
	for _, u := range f.updates {
		if u.Type == updateType {
			out = append(out, u)
		}
	}
	return out
}

// --- fixtures ---

func steadyWeather() domain.WeatherSnapshot {
	return domain.WeatherSnapshot{
		Timestamp:     time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		WindSpeed:     3,
		WindDirection: 270,
		Temperature:   293.15,
		Stability:     domain.StabilityD,
		MixingHeight:  600,
		Source:        domain.WeatherSourceProvider,
	}
}

func lightChemical() domain.ChemicalProperties {
	return domain.ChemicalProperties{
		ID:                      "chem-1",
		Name:                    "Test Chemical",
		MolecularWeight:         17,
		LiquidDensity:           682,
		VaporPressure:           2000,
		BoilingPoint:            373.15,
		HeatOfVaporization:      1.37e6,
		MolarHeatOfVaporization: 2.3e4,
	}
}

func continuousRelease(id string) domain.ReleaseEvent {
	return domain.ReleaseEvent{
		ID:          id,
		Latitude:    40,
		Longitude:   -100,
		ChemicalID:  "chem-1",
		Kind:        domain.ReleaseContinuous,
		ReleaseRate: 5,
		Duration:    time.Hour,
	}
}

type harness struct {
	orch      *orchestrator.Orchestrator
	weather   *fakeWeather
	store     *fakeStore
	publisher *fakePublisher
	clock     *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	weather := &fakeWeather{wx: steadyWeather()}
	publisher := &fakePublisher{}
	store := newFakeStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))

	orch := orchestrator.New(
		weather,
		&fakeChemicals{chem: lightChemical()},
		&fakeReceptors{},
		store,
		publisher,
		dispersion.NewSolver(slog.Default()),
		slog.Default(),
		observability.NewMetricsForTesting(),
		clock,
		30*time.Second,
	)
	return &harness{orch: orch, weather: weather, store: store, publisher: publisher, clock: clock}
}

// --- tests ---

func TestCreateRelease_PublishesInitialCalculation(t *testing.T) {
	h := newHarness(t)

	rel, err := h.orch.CreateRelease(context.Background(), continuousRelease(""))
	require.NoError(t, err)
	assert.NotEmpty(t, rel.ID, "an ID is assigned when the caller omits one")
	assert.Equal(t, domain.StatusActive, rel.Status)
	assert.Equal(t, domain.WeatherSourceProvider, rel.InitialWeather.Source)

	require.Len(t, h.store.created, 1)
	require.Len(t, h.store.persisted, 1)

	initial := h.publisher.byType(domain.UpdateNewRelease)
	require.Len(t, initial, 1)
	require.NotNil(t, initial[0].Result)
	assert.Equal(t, rel.ID, initial[0].Result.ReleaseID)
	assert.NotEmpty(t, initial[0].Result.Samples)
}

func TestCreateRelease_RejectsInvalid(t *testing.T) {
	h := newHarness(t)

	bad := continuousRelease("")
	bad.Latitude = 95

	_, err := h.orch.CreateRelease(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
	assert.Empty(t, h.store.created)
}

func TestCreateRelease_WeatherFallback(t *testing.T) {
	h := newHarness(t)
	h.weather.err = errors.New("provider down")

	rel, err := h.orch.CreateRelease(context.Background(), continuousRelease(""))
	require.NoError(t, err, "weather outages degrade the calculation, they never block registration")
	assert.Equal(t, domain.WeatherSourceFallback, rel.InitialWeather.Source)

	initial := h.publisher.byType(domain.UpdateNewRelease)
	require.Len(t, initial, 1)
	require.NotNil(t, initial[0].Result)
	assert.True(t, initial[0].Result.Degraded())
}

func TestRun_PeriodicRecalculation(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.CreateRelease(context.Background(), continuousRelease("rel-1"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.orch.Run(ctx)
	}()

	require.NoError(t, h.clock.BlockUntilContext(ctx, 1), "run loop must arm its ticker")
	h.clock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool {
		return len(h.publisher.byType(domain.UpdateDispersion)) >= 1
	}, 2*time.Second, 10*time.Millisecond, "the cycle must republish the release")
	assert.NoError(t, h.orch.CheckReadiness(context.Background()))

	cancel()
	<-done
}

func TestRun_IsolatesFailingRelease(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.CreateRelease(context.Background(), continuousRelease("good"))
	require.NoError(t, err)

	// No rate, no mass: this release can never produce a source term.
	starved := continuousRelease("starved")
	starved.ReleaseRate = 0
	starved.Duration = 0
	_, err = h.orch.CreateRelease(context.Background(), starved)
	require.NoError(t, err, "registration succeeds even when the initial calculation cannot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.orch.Run(ctx)
	}()

	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool {
		good := h.publisher.byType(domain.UpdateDispersion)
		bad := h.publisher.byType(domain.UpdateCalculationUnavailable)
		return len(good) >= 1 && len(bad) >= 2 // initial attempt plus the cycle
	}, 2*time.Second, 10*time.Millisecond,
		"the failing release must report unavailability without stopping the good one")

	cancel()
	<-done
}

func TestRun_RecoverFromPanic(t *testing.T) {
	h := newHarness(t)

	// Registration publishes synchronously, so install the panic trigger
	// after registration and let the cycle hit it.
	_, err := h.orch.CreateRelease(context.Background(), continuousRelease("volatile"))
	require.NoError(t, err)
	_, err = h.orch.CreateRelease(context.Background(), continuousRelease("stable"))
	require.NoError(t, err)
	h.publisher.panicOn = "volatile"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.orch.Run(ctx)
	}()

	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool {
		for _, u := range h.publisher.byType(domain.UpdateDispersion) {
			if u.ReleaseID == "stable" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond,
		"a panicking publish must not take down the cycle")

	cancel()
	<-done
}

func TestStopRelease(t *testing.T) {
	h := newHarness(t)

	rel, err := h.orch.CreateRelease(context.Background(), continuousRelease("rel-1"))
	require.NoError(t, err)

	require.NoError(t, h.orch.StopRelease(context.Background(), rel.ID, domain.StatusCompleted))
	assert.Equal(t, domain.StatusCompleted, h.store.statuses[rel.ID])

	stopped := h.publisher.byType(domain.UpdateMonitoringStopped)
	require.Len(t, stopped, 1)
	assert.Equal(t, rel.ID, stopped[0].ReleaseID)

	err = h.orch.StopRelease(context.Background(), rel.ID, domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrReleaseNotFound)
}

func TestForceRecalculate(t *testing.T) {
	h := newHarness(t)

	rel, err := h.orch.CreateRelease(context.Background(), continuousRelease("rel-1"))
	require.NoError(t, err)

	require.NoError(t, h.orch.ForceRecalculate(context.Background(), rel.ID))
	assert.Len(t, h.publisher.byType(domain.UpdateDispersion), 1)

	err = h.orch.ForceRecalculate(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrReleaseNotFound)
}
