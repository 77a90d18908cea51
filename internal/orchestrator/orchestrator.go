// Package orchestrator drives the periodic recalculation loop: it tracks
// active releases, refreshes weather, recomputes dispersion and receptor
// impacts on a fixed interval, and publishes every outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/chem-dispersion-service/internal/dispersion"
	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
	"github.com/couchcryptid/chem-dispersion-service/internal/observability"
)

// Orchestrator owns the set of releases under monitoring and recalculates
// every one of them each cycle. Failures are isolated per release: one bad
// calculation never stops the loop or starves its neighbors.
type Orchestrator struct {
	weather   domain.WeatherProvider
	chemicals domain.ChemicalDirectory
	receptors domain.ReceptorStore
	store     domain.CalculationStore
	publisher domain.Publisher

	solver  *dispersion.Solver
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	interval time.Duration

	mu     sync.Mutex
	active map[string]domain.ReleaseEvent

	ready atomic.Bool
}

// New creates an Orchestrator. A nil clock defaults to real time.
func New(
	weather domain.WeatherProvider,
	chemicals domain.ChemicalDirectory,
	receptors domain.ReceptorStore,
	store domain.CalculationStore,
	publisher domain.Publisher,
	solver *dispersion.Solver,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	interval time.Duration,
) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		weather:   weather,
		chemicals: chemicals,
		receptors: receptors,
		store:     store,
		publisher: publisher,
		solver:    solver,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  interval,
		active:    make(map[string]domain.ReleaseEvent),
	}
}

// CheckReadiness returns nil once the first recalculation cycle has
// completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no recalculation cycle has completed yet")
	}
	return nil
}

// CreateRelease validates and registers a release, runs the initial
// calculation immediately, and starts periodic monitoring. The initial
// update is published as a new_release event.
func (o *Orchestrator) CreateRelease(ctx context.Context, rel domain.ReleaseEvent) (domain.ReleaseEvent, error) {
	if err := rel.Validate(); err != nil {
		return domain.ReleaseEvent{}, err
	}
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.StartTime.IsZero() {
		rel.StartTime = o.clock.Now()
	}
	rel.Status = domain.StatusActive

	wx, err := o.currentWeather(ctx, rel.Latitude, rel.Longitude)
	if err != nil {
		return domain.ReleaseEvent{}, err
	}
	rel.InitialWeather = wx

	if err := o.store.CreateRelease(ctx, rel); err != nil {
		return domain.ReleaseEvent{}, fmt.Errorf("persist release: %w", err)
	}

	o.mu.Lock()
	o.active[rel.ID] = rel
	o.metrics.ActiveReleases.Set(float64(len(o.active)))
	o.mu.Unlock()

	o.logger.Info("release registered",
		"release_id", rel.ID, "chemical", rel.ChemicalID, "kind", string(rel.Kind))

	if err := o.calculate(ctx, rel, domain.UpdateNewRelease); err != nil {
		o.logger.Warn("initial calculation failed, monitoring continues",
			"release_id", rel.ID, "error", err)
	}
	return rel, nil
}

// StopRelease ends monitoring for a release and publishes a final
// monitoring_stopped update.
func (o *Orchestrator) StopRelease(ctx context.Context, releaseID string, status domain.ReleaseStatus) error {
	o.mu.Lock()
	_, ok := o.active[releaseID]
	if ok {
		delete(o.active, releaseID)
		o.metrics.ActiveReleases.Set(float64(len(o.active)))
	}
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrReleaseNotFound, releaseID)
	}

	now := o.clock.Now()
	if err := o.store.UpdateReleaseStatus(ctx, releaseID, status, now); err != nil {
		o.logger.Error("release status update failed", "release_id", releaseID, "error", err)
	}

	o.publish(ctx, domain.CalculationUpdate{
		Type:      domain.UpdateMonitoringStopped,
		ReleaseID: releaseID,
		Timestamp: now,
	})
	o.logger.Info("release monitoring stopped", "release_id", releaseID, "status", string(status))
	return nil
}

// ForceRecalculate runs one out-of-band calculation for a single release.
func (o *Orchestrator) ForceRecalculate(ctx context.Context, releaseID string) error {
	o.mu.Lock()
	rel, ok := o.active[releaseID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrReleaseNotFound, releaseID)
	}
	return o.calculate(ctx, rel, domain.UpdateDispersion)
}

// Run executes the periodic recalculation loop until the context is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started", "interval", o.interval)
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			o.runCycle(ctx)
		}
	}
}

// runCycle recalculates every active release concurrently. Each release is
// isolated behind its own goroutine and recover.
func (o *Orchestrator) runCycle(ctx context.Context) {
	o.mu.Lock()
	releases := make([]domain.ReleaseEvent, 0, len(o.active))
	for _, rel := range o.active {
		releases = append(releases, rel)
	}
	o.mu.Unlock()

	o.metrics.CyclesTotal.Inc()
	start := o.clock.Now()

	var wg sync.WaitGroup
	for _, rel := range releases {
		wg.Add(1)
		go func(rel domain.ReleaseEvent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.metrics.Calculations.WithLabelValues("error").Inc()
					o.logger.Error("calculation panicked", "release_id", rel.ID, "panic", r)
				}
			}()
			if err := o.calculate(ctx, rel, domain.UpdateDispersion); err != nil {
				o.logger.Warn("calculation failed", "release_id", rel.ID, "error", err)
			}
		}(rel)
	}
	wg.Wait()

	o.metrics.CycleDuration.Observe(o.clock.Since(start).Seconds())
	o.ready.Store(true)
	o.logger.Debug("cycle complete", "releases", len(releases))
}

// calculate runs the full pipeline for one release: weather, chemical
// properties, source term, dispersion solve, receptor impacts, persistence,
// publish. Failures publish a calculation_unavailable update so subscribers
// always hear the outcome.
func (o *Orchestrator) calculate(ctx context.Context, rel domain.ReleaseEvent, updateType string) error {
	wx, err := o.currentWeather(ctx, rel.Latitude, rel.Longitude)
	if err != nil {
		return err
	}

	chem, chemFlags := o.chemicalProperties(ctx, rel.ChemicalID)

	term, err := dispersion.ComputeSourceTerm(rel, wx, chem)
	if err != nil {
		return o.publishUnavailable(ctx, rel.ID, err)
	}

	result, err := o.solver.Solve(term, wx, rel.Latitude, rel.Longitude)
	if err != nil {
		return o.publishUnavailable(ctx, rel.ID, err)
	}

	result.ID = uuid.NewString()
	result.ReleaseID = rel.ID
	result.CalculatedAt = o.clock.Now()
	result.Quality = append(result.Quality, chemFlags...)
	if wx.Source == domain.WeatherSourceFallback {
		result.Quality = append(result.Quality, "weather unavailable, conservative defaults applied")
	}
	o.metrics.QualityFlags.Add(float64(len(result.Quality)))

	impacts := o.evaluateImpacts(ctx, rel, result)

	if err := o.store.PersistCalculation(ctx, result, impacts); err != nil {
		o.logger.Error("persist calculation failed", "release_id", rel.ID, "error", err)
	}

	o.publish(ctx, domain.CalculationUpdate{
		Type:      updateType,
		ReleaseID: rel.ID,
		Result:    &result,
		Impacts:   impacts,
		Timestamp: result.CalculatedAt,
	})
	o.metrics.Calculations.WithLabelValues("success").Inc()
	return nil
}

// currentWeather fetches live conditions, substituting conservative
// defaults when the provider fails. Weather problems degrade a calculation,
// they never abort it.
func (o *Orchestrator) currentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	wx, err := o.weather.CurrentWeather(ctx, lat, lon)
	if err != nil {
		if ctx.Err() != nil {
			return domain.WeatherSnapshot{}, ctx.Err()
		}
		o.metrics.WeatherFallbacks.Inc()
		o.logger.Warn("weather fetch failed, using fallback", "error", err)
		return domain.FallbackWeather(o.clock.Now()), nil
	}
	return wx, nil
}

// chemicalProperties looks up the chemical, filling any gaps (or a wholly
// failed lookup) with conservative defaults and reporting what was
// substituted.
func (o *Orchestrator) chemicalProperties(ctx context.Context, chemicalID string) (domain.ChemicalProperties, []string) {
	chem, err := o.chemicals.ChemicalProperties(ctx, chemicalID)
	if err != nil {
		o.logger.Warn("chemical lookup failed, using defaults", "chemical", chemicalID, "error", err)
		chem = domain.ChemicalProperties{ID: chemicalID}
	}

	filled, substituted := chem.WithDefaults()
	var flags []string
	for _, field := range substituted {
		flags = append(flags, fmt.Sprintf("chemical %s defaulted", field))
	}
	return filled, flags
}

func (o *Orchestrator) evaluateImpacts(ctx context.Context, rel domain.ReleaseEvent, result domain.DispersionResult) []domain.ReceptorImpact {
	receptors, err := o.receptors.ListActiveReceptorsNear(ctx, rel.Latitude, rel.Longitude, dispersion.EvaluationRadiusM)
	if err != nil {
		o.logger.Error("receptor listing failed", "release_id", rel.ID, "error", err)
		return nil
	}
	return dispersion.EvaluateReceptors(result, rel.Latitude, rel.Longitude, receptors)
}

func (o *Orchestrator) publishUnavailable(ctx context.Context, releaseID string, cause error) error {
	o.metrics.Calculations.WithLabelValues("error").Inc()
	o.publish(ctx, domain.CalculationUpdate{
		Type:      domain.UpdateCalculationUnavailable,
		ReleaseID: releaseID,
		Error:     cause.Error(),
		Timestamp: o.clock.Now(),
	})
	return cause
}

func (o *Orchestrator) publish(ctx context.Context, update domain.CalculationUpdate) {
	if err := o.publisher.Publish(ctx, update.ReleaseID, update); err != nil {
		o.metrics.PublishErrors.Inc()
		o.logger.Error("publish failed",
			"release_id", update.ReleaseID, "type", update.Type, "error", err)
	}
}
