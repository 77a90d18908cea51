package dispersion

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// minWindSpeed is the physical modeling floor. The Gaussian formulations
// divide by wind speed and lose validity in calm air, so speeds at or below
// the floor are rejected rather than clamped.
const minWindSpeed = 0.5 // m/s

// heavyGasDensityThreshold routes releases denser than ~1.2× ambient air to
// the heavy-gas formulation.
const heavyGasDensityThreshold = 1.2

// Downwind sample ladders (meters). Heavy gases slump and stay close to the
// ground, so their ladder is shorter.
var (
	plumeDistances    = []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000}
	heavyGasDistances = []float64{50, 100, 200, 500, 1000, 2000}
)

// puffTimes is the elapsed-time ladder for puff models.
var puffTimes = []time.Duration{5 * time.Minute, 10 * time.Minute, 30 * time.Minute, time.Hour}

// shortReleaseDuration is the cutoff below which a continuous release is
// modeled as a puff.
const shortReleaseDuration = 10 * time.Minute

// concentrationScale converts kg/m³ to µg/m³.
const concentrationScale = 1e6

// SelectModel chooses the dispersion formulation for a source term. Pure
// function of its input: identical terms always select the same model.
func SelectModel(term domain.SourceTerm) domain.ModelType {
	if term.Buoyancy.DensityRatio > heavyGasDensityThreshold {
		return domain.ModelHeavyGas
	}
	if term.Kind == domain.ReleaseInstantaneous {
		return domain.ModelInstantaneous
	}
	if term.Duration > 0 && term.Duration < shortReleaseDuration {
		return domain.ModelPuff
	}
	return domain.ModelGaussianPlume
}

// Solver evaluates the selected dispersion model into a concentration field
// and plume geometry. Pure synchronous computation; the only side effect is
// data-quality logging.
type Solver struct {
	logger *slog.Logger
}

// NewSolver creates a Solver. A nil logger defaults to slog.Default.
func NewSolver(logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver{logger: logger}
}

// Solve computes the concentration field for a source term under the given
// weather, anchored at the release location.
func (s *Solver) Solve(term domain.SourceTerm, wx domain.WeatherSnapshot, lat, lon float64) (domain.DispersionResult, error) {
	if wx.WindSpeed <= minWindSpeed {
		return domain.DispersionResult{}, fmt.Errorf("%w: %g m/s (floor %g m/s)",
			domain.ErrInvalidWindSpeed, wx.WindSpeed, minWindSpeed)
	}

	q := &qualityLog{}
	q.merge(term.Quality)

	stability := wx.Stability
	if _, known := dispersionParams(stability); !known {
		q.flag("unknown stability class %q, using neutral (D)", stability)
		s.logger.Warn("unknown stability class, falling back to neutral", "class", string(stability))
		stability = domain.StabilityD
	}
	mixingHeight := wx.MixingHeight
	if mixingHeight <= 0 {
		mixingHeight = 600
		q.flag("mixing height missing, assumed 600 m")
	}

	model := SelectModel(term)
	var samples []domain.Sample
	switch model {
	case domain.ModelHeavyGas:
		samples = s.heavyGasSamples(term, wx, mixingHeight, q)
	case domain.ModelPuff, domain.ModelInstantaneous:
		samples = s.puffSamples(term, wx, stability, mixingHeight, model, q)
	default:
		samples = s.plumeSamples(term, wx, stability, mixingHeight, q)
	}

	downwind := math.Mod(wx.WindDirection+180, 360)
	geoms := make([]sampleGeometry, len(samples))
	for i, smp := range samples {
		geoms[i] = sampleGeometry{distance: smp.Distance, sigmaY: smp.SigmaY}
	}
	plume, ok := buildPlumePolygon(lat, lon, geoms, downwind)
	if !ok {
		q.flag("insufficient valid plume points, degenerate fallback polygon")
		s.logger.Warn("plume geometry degenerate, using fallback polygon", "model", string(model))
	}

	maxConc, maxAt := 0.0, 0.0
	for _, smp := range samples {
		if smp.Concentration > maxConc {
			maxConc = smp.Concentration
			maxAt = smp.Distance
		}
	}

	return domain.DispersionResult{
		Model:              model,
		Stability:          stability,
		WindSpeed:          wx.WindSpeed,
		WindDirection:      wx.WindDirection,
		EmissionRate:       term.EmissionRate,
		EffectiveHeight:    term.EffectiveHeight,
		Samples:            samples,
		MaxConcentration:   maxConc,
		MaxConcentrationAt: maxAt,
		Plume:              plume,
		AffectedArea:       polygonAreaM2(plume),
		Weather:            wx,
		Quality:            q.flags,
	}, nil
}

// plumeSamples evaluates the steady-state Gaussian plume at ground level
// along the centerline: a direct height term plus a ground-reflection image
// term bounded by the mixing layer.
func (s *Solver) plumeSamples(term domain.SourceTerm, wx domain.WeatherSnapshot, stability domain.StabilityClass, mixingHeight float64, q *qualityLog) []domain.Sample {
	h := term.EffectiveHeight
	u := windSpeedAtHeight(wx.WindSpeed, h, stability)

	samples := make([]domain.Sample, 0, len(plumeDistances))
	for _, x := range plumeDistances {
		sigmaY := SigmaY(stability, x)
		sigmaZ := math.Min(SigmaZ(stability, x), mixingHeight/2.15)

		heightTerm := math.Exp(-0.5 * math.Pow(h/sigmaZ, 2))
		reflectionTerm := math.Exp(-0.5 * math.Pow((h+2*mixingHeight)/sigmaZ, 2))
		c := term.EmissionRate / (math.Pi * u * sigmaY * sigmaZ) * (heightTerm + reflectionTerm)

		samples = append(samples, domain.Sample{
			Distance:      x,
			Concentration: q.sanitize(fmt.Sprintf("concentration at %gm", x), c*concentrationScale),
			SigmaY:        sigmaY,
			SigmaZ:        sigmaZ,
		})
	}
	return samples
}

// heavyGasSamples widens the lateral and compresses the vertical spread of
// a stable-class plume, evaluates at ground level only, and applies a
// post-hoc √(density ratio) correction for gravitational slumping. The
// correction is a known approximation of dense-gas behavior, preserved
// as-is.
func (s *Solver) heavyGasSamples(term domain.SourceTerm, wx domain.WeatherSnapshot, mixingHeight float64, q *qualityLog) []domain.Sample {
	u := wx.WindSpeed
	densityCorrection := 1.0
	if term.Buoyancy.DensityRatio > 0 {
		densityCorrection = math.Sqrt(term.Buoyancy.DensityRatio)
	}

	samples := make([]domain.Sample, 0, len(heavyGasDistances))
	for _, x := range heavyGasDistances {
		sigmaY := SigmaY(domain.StabilityF, x) * 1.5
		sigmaZ := math.Min(SigmaZ(domain.StabilityF, x)*0.5, mixingHeight/2.15)

		groundTerm := math.Exp(-0.5 * math.Pow(0.5/sigmaZ, 2))
		c := term.EmissionRate / (math.Pi * u * sigmaY * sigmaZ) * groundTerm * densityCorrection

		samples = append(samples, domain.Sample{
			Distance:      x,
			Concentration: q.sanitize(fmt.Sprintf("concentration at %gm", x), c*concentrationScale),
			SigmaY:        sigmaY,
			SigmaZ:        sigmaZ,
		})
	}
	return samples
}

// puffSamples treats the release as a drifting Gaussian cloud sampled at
// fixed elapsed times; the downwind distance is the travel distance and the
// kernel carries the 3-D (2π)^1.5 normalization over the total released
// mass.
func (s *Solver) puffSamples(term domain.SourceTerm, wx domain.WeatherSnapshot, stability domain.StabilityClass, mixingHeight float64, model domain.ModelType, q *qualityLog) []domain.Sample {
	h := term.EffectiveHeight
	u := wx.WindSpeed

	duration := term.Duration.Seconds()
	if model == domain.ModelInstantaneous {
		duration = 1
	}
	totalMass := term.EmissionRate
	if model != domain.ModelInstantaneous {
		totalMass = term.EmissionRate * duration
	}

	samples := make([]domain.Sample, 0, len(puffTimes))
	for _, elapsed := range puffTimes {
		x := u * elapsed.Seconds()
		sigmaY := SigmaY(stability, x)
		sigmaZ := math.Min(SigmaZ(stability, x), mixingHeight/2.15)

		heightTerm := math.Exp(-0.5 * math.Pow(h/sigmaZ, 2))
		c := totalMass / (math.Pow(2*math.Pi, 1.5) * sigmaY * sigmaY * sigmaZ) * heightTerm

		samples = append(samples, domain.Sample{
			Distance:      x,
			Elapsed:       elapsed,
			Concentration: q.sanitize(fmt.Sprintf("concentration at %s", elapsed), c*concentrationScale),
			SigmaY:        sigmaY,
			SigmaZ:        sigmaZ,
		})
	}
	return samples
}

// windSpeedAtHeight extrapolates the 10 m reference wind to the plume
// height with the stability-dependent power law.
func windSpeedAtHeight(u10, height float64, stability domain.StabilityClass) float64 {
	if height <= 0 || u10 <= 0 {
		return u10
	}
	u := u10 * math.Pow(height/10, windProfileExponent(stability))
	return math.Max(u, minWindSpeed)
}
