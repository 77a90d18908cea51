package domain

import (
	"fmt"
	"time"
)

// ReleaseKind identifies which source-strength branch applies to a release.
type ReleaseKind string

const (
	ReleaseInstantaneous ReleaseKind = "instantaneous"
	ReleaseContinuous    ReleaseKind = "continuous"
	ReleasePuddle        ReleaseKind = "puddle"
	ReleaseTankLiquid    ReleaseKind = "tank-liquid"
	ReleaseTankGas       ReleaseKind = "tank-gas"
)

// Valid reports whether k is a recognized release kind.
func (k ReleaseKind) Valid() bool {
	switch k {
	case ReleaseInstantaneous, ReleaseContinuous, ReleasePuddle, ReleaseTankLiquid, ReleaseTankGas:
		return true
	}
	return false
}

// ReleaseStatus is the monitoring lifecycle state of a release event.
type ReleaseStatus string

const (
	StatusActive    ReleaseStatus = "active"
	StatusPaused    ReleaseStatus = "paused"
	StatusCompleted ReleaseStatus = "completed"
	StatusCancelled ReleaseStatus = "cancelled"
)

// SubstrateType names the surface a puddle rests on. It selects the thermal
// conductivity/diffusivity pair used by the boiling-puddle energy balance.
type SubstrateType string

const (
	SubstrateWater     SubstrateType = "water"
	SubstrateConcrete  SubstrateType = "concrete"
	SubstrateSoil      SubstrateType = "soil"
	SubstrateSandDry   SubstrateType = "sand_dry"
	SubstrateSandMoist SubstrateType = "sand_moist"
)

// PuddleSpec describes an evaporating pool release.
type PuddleSpec struct {
	Area                 float64       `json:"area"`                  // m²
	Temperature          float64       `json:"temperature"`           // K; 0 means use air temperature
	Substrate            SubstrateType `json:"substrate"`             // defaults to soil
	SubstrateTemperature float64       `json:"substrate_temperature"` // K; 0 means use air temperature
}

// TankSpec describes a tank with an orifice. Whether the release is liquid
// or gas depends on the hole height relative to the liquid level.
type TankSpec struct {
	Volume        float64 `json:"volume"`         // m³
	LiquidLevel   float64 `json:"liquid_level"`   // fill fraction 0-1
	HoleDiameter  float64 `json:"hole_diameter"`  // m
	HoleHeight    float64 `json:"hole_height"`    // m above tank bottom
	GaugePressure float64 `json:"gauge_pressure"` // Pa above ambient
	Temperature   float64 `json:"temperature"`    // K; 0 means use air temperature
}

// ReleaseEvent is an accidental chemical release being monitored.
// It is created by an external request and mutated only by the orchestrator
// (status transitions) or a forced recalculation.
type ReleaseEvent struct {
	ID         string      `json:"id"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	ChemicalID string      `json:"chemical_id"`
	Kind       ReleaseKind `json:"kind"`

	ReleaseRate   float64       `json:"release_rate,omitempty"` // kg/s, continuous releases
	TotalMass     float64       `json:"total_mass,omitempty"`   // kg
	ReleaseHeight float64       `json:"release_height"`         // m; 0 defaults to 1 m
	Temperature   float64       `json:"temperature,omitempty"`  // K; 0 means ambient
	Duration      time.Duration `json:"duration,omitempty"`

	Puddle *PuddleSpec `json:"puddle,omitempty"`
	Tank   *TankSpec   `json:"tank,omitempty"`

	Status    ReleaseStatus `json:"status"`
	CreatedBy string        `json:"created_by,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitzero"`

	// InitialWeather is the snapshot captured when the release was created.
	InitialWeather WeatherSnapshot `json:"initial_weather"`
}

// Validate checks the fields required before any calculation begins.
func (r ReleaseEvent) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: lat=%g lon=%g", ErrInvalidCoordinates, r.Latitude, r.Longitude)
	}
	if r.ChemicalID == "" {
		return fmt.Errorf("%w: missing chemical id", ErrInvalidRelease)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown release kind %q", ErrInvalidRelease, r.Kind)
	}
	if r.Kind == ReleasePuddle && (r.Puddle == nil || r.Puddle.Area <= 0) {
		return fmt.Errorf("%w: puddle release requires a puddle area", ErrInvalidRelease)
	}
	if (r.Kind == ReleaseTankLiquid || r.Kind == ReleaseTankGas) && (r.Tank == nil || r.Tank.HoleDiameter <= 0) {
		return fmt.Errorf("%w: tank release requires a hole diameter", ErrInvalidRelease)
	}
	return nil
}
