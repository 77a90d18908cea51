// Package dispersion implements the atmospheric dispersion engine: source
// strength models, the Gaussian plume / heavy gas / puff formulations, plume
// boundary geometry, and receptor impact evaluation.
//
// The formulations follow the ALOHA 5.4.4 technical documentation (NOAA
// Technical Memorandum NOS OR&R 43) in their simplified form: power-law
// Pasquill-Gifford dispersion coefficients, a well-mixed-layer cap on
// vertical spread, a ground-reflection image term, and a post-hoc density
// correction for heavy gases. Known simplifications are preserved, not
// extended.
package dispersion

import (
	"math"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// pgParams are Pasquill-Gifford power-law coefficients: σy = a·x^b,
// σz = c·x^d with x in meters.
type pgParams struct {
	a, b, c, d float64
}

var pgDispersion = map[domain.StabilityClass]pgParams{
	domain.StabilityA: {0.527, 0.865, 0.28, 0.90},
	domain.StabilityB: {0.371, 0.866, 0.23, 0.85},
	domain.StabilityC: {0.209, 0.897, 0.22, 0.80},
	domain.StabilityD: {0.128, 0.905, 0.20, 0.76},
	domain.StabilityE: {0.098, 0.902, 0.15, 0.73},
	domain.StabilityF: {0.065, 0.902, 0.12, 0.67},
	domain.StabilityG: {0.065, 0.902, 0.08, 0.60},
}

// dispersionParams returns the coefficient set for a stability class.
// Unknown classes fall back to neutral (D); the bool reports whether the
// requested class was recognized.
func dispersionParams(s domain.StabilityClass) (pgParams, bool) {
	if p, ok := pgDispersion[s]; ok {
		return p, true
	}
	return pgDispersion[domain.StabilityD], false
}

// SigmaY returns the lateral dispersion coefficient (m) at a downwind
// distance (m) for a stability class.
func SigmaY(s domain.StabilityClass, distance float64) float64 {
	p, _ := dispersionParams(s)
	return p.a * math.Pow(distance, p.b)
}

// SigmaZ returns the vertical dispersion coefficient (m) at a downwind
// distance (m) for a stability class, uncapped by mixing height.
func SigmaZ(s domain.StabilityClass, distance float64) float64 {
	p, _ := dispersionParams(s)
	return p.c * math.Pow(distance, p.d)
}

// windProfileExponents are the stability-dependent power-law exponents used
// to extrapolate the 10 m reference wind speed to other heights and to
// estimate friction velocity (Deacon's formulation).
var windProfileExponents = map[domain.StabilityClass]float64{
	domain.StabilityA: 0.108,
	domain.StabilityB: 0.112,
	domain.StabilityC: 0.120,
	domain.StabilityD: 0.142,
	domain.StabilityE: 0.203,
	domain.StabilityF: 0.253,
	domain.StabilityG: 0.253,
}

func windProfileExponent(s domain.StabilityClass) float64 {
	if p, ok := windProfileExponents[s]; ok {
		return p
	}
	return windProfileExponents[domain.StabilityD]
}

// substrateProps are thermal conductivity (W/m·K) and diffusivity (m²/s)
// for the surfaces a puddle can rest on.
type substrateProps struct {
	conductivity float64
	diffusivity  float64
}

var substrateThermal = map[domain.SubstrateType]substrateProps{
	domain.SubstrateWater:     {0.6, 1.4e-7},
	domain.SubstrateConcrete:  {8.28, 3.74e-6},
	domain.SubstrateSoil:      {8.64, 4.13e-6},
	domain.SubstrateSandDry:   {2.34, 1.74e-6},
	domain.SubstrateSandMoist: {5.31, 3.02e-6},
}

func substrate(s domain.SubstrateType) substrateProps {
	if p, ok := substrateThermal[s]; ok {
		return p
	}
	return substrateThermal[domain.SubstrateSoil]
}

// longwaveFactors parameterize incoming longwave radiation by cloudiness in
// tenths (index 0 = clear sky, 10 = overcast): B = a + b·e where e is the
// water vapor partial pressure.
var longwaveFactors = [11]struct{ a, b float64 }{
	{0.740, 44.3e-6}, {0.750, 44.3e-6}, {0.760, 44.3e-6},
	{0.770, 44.2e-6}, {0.783, 40.7e-6}, {0.793, 40.5e-6},
	{0.800, 39.9e-6}, {0.810, 38.4e-6}, {0.820, 35.4e-6},
	{0.840, 31.0e-6}, {0.870, 26.6e-6},
}
