package domain

import (
	"time"

	"github.com/ctessum/geom"
)

// BuoyancyClass describes how a released gas behaves relative to ambient air.
type BuoyancyClass struct {
	DensityRatio    float64 `json:"density_ratio"`    // vapor density / air density
	BuoyancyFlux    float64 `json:"buoyancy_flux"`    // m/s², from density difference
	ThermalBuoyancy float64 `json:"thermal_buoyancy"` // m/s², from temperature difference
	HeavyGas        bool    `json:"heavy_gas"`
	HotGas          bool    `json:"hot_gas"`
}

// SourceTerm is the emission profile feeding the dispersion solver.
// Derived per calculation cycle, never persisted independently.
type SourceTerm struct {
	Kind            ReleaseKind   `json:"kind"`
	EmissionRate    float64       `json:"emission_rate"`    // kg/s; total kg when Kind is instantaneous
	Duration        time.Duration `json:"duration"`
	ReleaseHeight   float64       `json:"release_height"`   // m, physical
	EffectiveHeight float64       `json:"effective_height"` // m, including plume rise
	Buoyancy        BuoyancyClass `json:"buoyancy"`
	Quality         []string      `json:"quality,omitempty"`
}

// ModelType identifies the dispersion formulation used for a calculation.
type ModelType string

const (
	ModelGaussianPlume ModelType = "gaussian_plume"
	ModelHeavyGas      ModelType = "heavy_gas"
	ModelPuff          ModelType = "puff"
	ModelInstantaneous ModelType = "instantaneous"
)

// Sample is one point of the concentration field along the plume centerline.
type Sample struct {
	Distance      float64       `json:"distance"`       // m downwind
	Elapsed       time.Duration `json:"elapsed,omitempty"` // puff models only
	Concentration float64       `json:"concentration"`  // µg/m³ at ground level
	SigmaY        float64       `json:"sigma_y"`        // m
	SigmaZ        float64       `json:"sigma_z"`        // m
}

// DispersionResult is one immutable calculation outcome. A new instance is
// appended to history every cycle; results are never updated in place.
type DispersionResult struct {
	ID        string    `json:"id"`
	ReleaseID string    `json:"release_id"`
	Model     ModelType `json:"model"`

	Stability       StabilityClass `json:"stability"`
	WindSpeed       float64        `json:"wind_speed"`     // m/s at 10 m
	WindDirection   float64        `json:"wind_direction"` // degrees, blowing FROM
	EmissionRate    float64        `json:"emission_rate"`  // kg/s
	EffectiveHeight float64        `json:"effective_height"`

	Samples            []Sample     `json:"samples"`
	MaxConcentration   float64      `json:"max_concentration"` // µg/m³
	MaxConcentrationAt float64      `json:"max_concentration_distance"`
	Plume              geom.Polygon `json:"plume"`         // lon/lat vertex ring(s)
	AffectedArea       float64      `json:"affected_area"` // m²

	Weather      WeatherSnapshot `json:"weather"`
	Quality      []string        `json:"quality,omitempty"` // data-quality flags; empty means authoritative
	CalculatedAt time.Time       `json:"calculated_at"`
}

// Degraded reports whether the result was produced from fallback inputs or
// clamped intermediate values.
func (r DispersionResult) Degraded() bool {
	return len(r.Quality) > 0 || r.Weather.Source == WeatherSourceFallback
}

// Update message types published to subscribers of a release.
const (
	UpdateNewRelease             = "new_release"
	UpdateDispersion             = "dispersion_update"
	UpdateCalculationUnavailable = "calculation_unavailable"
	UpdateMonitoringStopped      = "monitoring_stopped"
)

// CalculationUpdate is the payload published to a release's subscribers
// after every calculation cycle (or failed attempt).
type CalculationUpdate struct {
	Type      string            `json:"type"`
	ReleaseID string            `json:"release_id"`
	Result    *DispersionResult `json:"calculation,omitempty"`
	Impacts   []ReceptorImpact  `json:"receptor_impacts,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
