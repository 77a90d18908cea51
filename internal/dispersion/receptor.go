package dispersion

import (
	"math"
	"time"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// EvaluationRadiusM bounds receptor impact evaluation. Receptors beyond it
// are excluded from the result set entirely, not scored as negligible.
const EvaluationRadiusM = 20000.0

// exposureDuration is the policy constant used for dose. It is a fixed
// assumption, not derived from the release duration.
const exposureDuration = time.Hour

// Base health-impact thresholds in µg/m³, before receptor-type and
// sensitivity scaling.
var impactThresholds = []struct {
	level     domain.HealthImpactLevel
	threshold float64
}{
	{domain.ImpactSevere, 100000},
	{domain.ImpactHigh, 10000},
	{domain.ImpactModerate, 1000},
	{domain.ImpactLow, 100},
	{domain.ImpactMinimal, 10},
}

// receptorTypeFactors scale thresholds per receptor type. Hospitals and
// schools are stricter than residential areas; industrial sites tolerate
// more.
var receptorTypeFactors = map[domain.ReceptorType]float64{
	domain.ReceptorHospital:    0.25,
	domain.ReceptorSchool:      0.5,
	domain.ReceptorResidential: 1.0,
	domain.ReceptorIndustrial:  5.0,
}

var sensitivityFactors = map[domain.SensitivityLevel]float64{
	domain.SensitivityLow:      2.0,
	domain.SensitivityMedium:   1.0,
	domain.SensitivityHigh:     0.5,
	domain.SensitivityCritical: 0.1,
}

// EvaluateReceptors interpolates the concentration field at each receptor
// and classifies the health impact. Every receptor inside the evaluation
// radius yields exactly one impact record.
func EvaluateReceptors(result domain.DispersionResult, lat, lon float64, receptors []domain.Receptor) []domain.ReceptorImpact {
	if len(result.Samples) == 0 {
		return nil
	}
	downwind := math.Mod(result.WindDirection+180, 360)

	impacts := make([]domain.ReceptorImpact, 0, len(receptors))
	for _, r := range receptors {
		distance := GreatCircleDistance(lat, lon, r.Latitude, r.Longitude)
		if distance > EvaluationRadiusM {
			continue
		}
		bearing := InitialBearing(lat, lon, r.Latitude, r.Longitude)

		concentration, flags := concentrationAt(result, distance, bearing, downwind)
		dose := concentration * exposureDuration.Seconds() / 1e6

		impacts = append(impacts, domain.ReceptorImpact{
			ReceptorID:    r.ID,
			ReceptorName:  r.Name,
			ReceptorType:  r.Type,
			Distance:      distance,
			Bearing:       bearing,
			Concentration: concentration,
			Dose:          dose,
			Level:         healthImpactLevel(concentration, r.Type, r.Sensitivity),
			Population:    r.Population,
			Flags:         flags,
		})
	}
	return impacts
}

// concentrationAt projects the receptor onto the plume axes, interpolates
// the centerline concentration and σy between the bracketing ladder
// samples at the alongwind distance, and applies the Gaussian crosswind
// falloff. Receptors at or behind the source plane see no plume.
func concentrationAt(result domain.DispersionResult, distance, bearing, downwind float64) (float64, []string) {
	q := &qualityLog{}
	samples := result.Samples
	first, last := samples[0], samples[len(samples)-1]

	if distance == 0 {
		// At the release point the bearing is undefined and the field is
		// not resolved; report the nearest sample and flag it.
		q.flag("receptor at the release point, using nearest sample (%.0fm)", first.Distance)
		return q.sanitize("receptor concentration", first.Concentration), q.flags
	}

	delta := radians(bearing - downwind)
	alongwind := distance * math.Cos(delta)
	crosswind := math.Abs(distance * math.Sin(delta))
	if alongwind <= 0 {
		return 0, nil
	}

	var centerline, sigmaY float64
	switch {
	case alongwind <= first.Distance:
		// Inside the first ladder step the field is not resolved; report
		// the nearest sample and flag it instead of dropping the receptor.
		centerline, sigmaY = first.Concentration, first.SigmaY
		q.flag("receptor at %.0fm is inside the first sample distance (%.0fm), using nearest sample", alongwind, first.Distance)
	case alongwind >= last.Distance:
		lo, hi := samples[len(samples)-2], last
		centerline, sigmaY = interpolate(lo, hi, alongwind)
		centerline = q.sanitize("extrapolated concentration", centerline)
		sigmaY = math.Max(sigmaY, hi.SigmaY)
	default:
		for i := 0; i < len(samples)-1; i++ {
			if alongwind >= samples[i].Distance && alongwind <= samples[i+1].Distance {
				centerline, sigmaY = interpolate(samples[i], samples[i+1], alongwind)
				break
			}
		}
	}

	if sigmaY <= 0 {
		q.flag("non-positive sigma_y at receptor distance %.0fm", alongwind)
		return 0, q.flags
	}

	falloff := math.Exp(-0.5 * math.Pow(crosswind/sigmaY, 2))
	return q.sanitize("receptor concentration", centerline*falloff), q.flags
}

func interpolate(lo, hi domain.Sample, distance float64) (concentration, sigmaY float64) {
	ratio := (distance - lo.Distance) / (hi.Distance - lo.Distance)
	concentration = lo.Concentration + ratio*(hi.Concentration-lo.Concentration)
	sigmaY = lo.SigmaY + ratio*(hi.SigmaY-lo.SigmaY)
	return concentration, sigmaY
}

// healthImpactLevel classifies a concentration against the receptor-type
// and sensitivity scaled threshold ladder.
func healthImpactLevel(concentration float64, rtype domain.ReceptorType, sensitivity domain.SensitivityLevel) domain.HealthImpactLevel {
	typeFactor, ok := receptorTypeFactors[rtype]
	if !ok {
		typeFactor = receptorTypeFactors[domain.ReceptorResidential]
	}
	sensFactor, ok := sensitivityFactors[sensitivity]
	if !ok {
		sensFactor = 1.0
	}

	for _, t := range impactThresholds {
		if concentration >= t.threshold*typeFactor*sensFactor {
			return t.level
		}
	}
	return domain.ImpactNegligible
}
