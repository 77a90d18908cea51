package domain

import (
	"context"
	"time"
)

// WeatherProvider supplies current conditions for a location. Callers must
// substitute FallbackWeather when it fails; a calculation cycle never
// aborts because weather is unavailable.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// ChemicalDirectory looks up chemical properties by identifier. Returned
// data may be partial; callers fill gaps with WithDefaults.
type ChemicalDirectory interface {
	ChemicalProperties(ctx context.Context, id string) (ChemicalProperties, error)
}

// ReceptorStore lists receptors for impact evaluation. Read-only from the
// engine's perspective.
type ReceptorStore interface {
	ListActiveReceptorsNear(ctx context.Context, lat, lon, radiusM float64) ([]Receptor, error)
}

// CalculationStore persists releases and calculation history. Results are
// append-only and uniquely identified, so retried writes must be idempotent.
type CalculationStore interface {
	CreateRelease(ctx context.Context, release ReleaseEvent) error
	UpdateReleaseStatus(ctx context.Context, releaseID string, status ReleaseStatus, endTime time.Time) error
	PersistCalculation(ctx context.Context, result DispersionResult, impacts []ReceptorImpact) error
}

// Publisher delivers calculation updates to the subscribers of a release.
// Fire-and-forget: failures are logged, not retried, since the next cycle
// supersedes stale data.
type Publisher interface {
	Publish(ctx context.Context, releaseID string, update CalculationUpdate) error
}
