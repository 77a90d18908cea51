package dispersion

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// Physical constants shared by the source-strength models.
const (
	gravity         = 9.8     // m/s²
	gasConstant     = 8.314   // J/mol·K
	stefanBoltzmann = 5.67e-8 // W/m²·K⁴
	ambientPressure = 101325.0

	airDensity            = 1.225  // kg/m³ at standard conditions
	airHeatCapacity       = 1004.0 // J/kg·K
	airKinematicViscosity = 1.5e-5 // m²/s

	waterDiffusivity     = 2.39e-5 // m²/s, reference for Graham's-law scaling
	waterMolecularWeight = 18.0    // g/mol

	dischargeCoefficient = 0.6 // sharp-edged orifice
)

const (
	// minInstantaneousDuration keeps the emission profile of a single
	// short pulse finite so downstream division never hits zero.
	minInstantaneousDuration = time.Minute

	defaultDuration      = time.Hour
	defaultReleaseHeight = 1.0 // m
)

// ComputeSourceTerm turns a release description plus current weather into an
// emission-rate profile. Negative or non-finite intermediate results are
// clamped to zero mass flux and recorded as quality flags rather than
// propagated.
func ComputeSourceTerm(rel domain.ReleaseEvent, wx domain.WeatherSnapshot, chem domain.ChemicalProperties) (domain.SourceTerm, error) {
	q := &qualityLog{}
	airTemp := wx.Temperature
	if airTemp <= 0 {
		airTemp = 293.15
		q.flag("air temperature missing, assumed 293.15 K")
	}
	releaseTemp := rel.Temperature
	if releaseTemp <= 0 {
		releaseTemp = airTemp
	}

	var (
		rate     float64
		duration time.Duration
		err      error
	)
	switch rel.Kind {
	case domain.ReleaseInstantaneous:
		if rel.TotalMass <= 0 {
			return domain.SourceTerm{}, fmt.Errorf("%w: instantaneous release needs a total mass", domain.ErrInsufficientSourceData)
		}
		rate = rel.TotalMass // interpreted as kg, not kg/s
		duration = minInstantaneousDuration

	case domain.ReleaseContinuous:
		rate, duration, err = directContinuousRate(rel)
		if err != nil {
			return domain.SourceTerm{}, err
		}

	case domain.ReleasePuddle:
		rate = puddleEvaporationRate(*rel.Puddle, wx, chem, airTemp, q)
		duration = rel.Duration
		if duration <= 0 {
			duration = defaultDuration
		}

	case domain.ReleaseTankLiquid, domain.ReleaseTankGas:
		rate = tankReleaseRate(rel.Kind, *rel.Tank, chem, airTemp, q)
		duration = rel.Duration
		if duration <= 0 {
			duration = defaultDuration
		}

	default:
		return domain.SourceTerm{}, fmt.Errorf("%w: unknown release kind %q", domain.ErrInvalidRelease, rel.Kind)
	}

	rate = q.sanitize("emission rate", rate)

	buoy := buoyancyClass(chem, airTemp, releaseTemp)

	height := rel.ReleaseHeight
	if height <= 0 {
		height = defaultReleaseHeight
	}
	effective := height + plumeRise(buoy, rate, wx.WindSpeed)

	return domain.SourceTerm{
		Kind:            rel.Kind,
		EmissionRate:    rate,
		Duration:        duration,
		ReleaseHeight:   height,
		EffectiveHeight: effective,
		Buoyancy:        buoy,
		Quality:         q.flags,
	}, nil
}

func directContinuousRate(rel domain.ReleaseEvent) (float64, time.Duration, error) {
	duration := rel.Duration
	if duration <= 0 {
		duration = defaultDuration
	}
	if rel.ReleaseRate > 0 {
		return rel.ReleaseRate, duration, nil
	}
	if rel.TotalMass > 0 && rel.Duration > 0 {
		return rel.TotalMass / rel.Duration.Seconds(), duration, nil
	}
	return 0, 0, fmt.Errorf("%w: continuous release needs a rate or a mass with duration", domain.ErrInsufficientSourceData)
}

// buoyancyClass compares the released vapor against ambient air. Vapor
// density comes from the ideal-gas law at ambient temperature.
func buoyancyClass(chem domain.ChemicalProperties, airTemp, releaseTemp float64) domain.BuoyancyClass {
	vaporDensity := gasDensity(chem, airTemp, ambientPressure)
	return domain.BuoyancyClass{
		DensityRatio:    vaporDensity / airDensity,
		BuoyancyFlux:    gravity * (airDensity - vaporDensity) / airDensity,
		ThermalBuoyancy: gravity * (releaseTemp - airTemp) / airTemp,
		HeavyGas:        vaporDensity > airDensity,
		HotGas:          releaseTemp > airTemp,
	}
}

// plumeRise adds the Briggs-style buoyant rise for thermally buoyant
// sources. Cold or neutral sources get no rise.
func plumeRise(b domain.BuoyancyClass, emissionRate, windSpeed float64) float64 {
	if b.ThermalBuoyancy <= 0 || emissionRate <= 0 {
		return 0
	}
	u := math.Max(windSpeed, 0.5)
	rise := 1.6 * math.Cbrt(b.ThermalBuoyancy/u) * math.Cbrt(emissionRate/(math.Pi*u))
	return math.Max(0, rise)
}

// --- puddle evaporation (ALOHA chapter 3.3) ---

func puddleEvaporationRate(p domain.PuddleSpec, wx domain.WeatherSnapshot, chem domain.ChemicalProperties, airTemp float64, q *qualityLog) float64 {
	puddleTemp := p.Temperature
	if puddleTemp <= 0 {
		puddleTemp = airTemp
	}
	bp := boilingPointAt(chem, ambientPressure)
	if puddleTemp >= bp {
		return boilingPuddleRate(p, wx, chem, airTemp, puddleTemp, bp, q)
	}
	return nonBoilingPuddleRate(p, wx, chem, puddleTemp, q)
}

// nonBoilingPuddleRate is Brighton's mass-transfer formulation: saturation
// concentration advected by friction velocity, reduced by a dimensionless
// transfer coefficient and corrected for highly volatile liquids.
func nonBoilingPuddleRate(p domain.PuddleSpec, wx domain.WeatherSnapshot, chem domain.ChemicalProperties, puddleTemp float64, q *qualityLog) float64 {
	n := windProfileExponent(wx.Stability)
	frictionVelocity := 0.03 * math.Pow(math.Max(wx.WindSpeed, 0), n)

	vp := vaporPressureAt(chem, puddleTemp)
	saturation := gasDensity(chem, puddleTemp, vp)

	sc := schmidtNumber(chem)
	k := massTransferCoefficient(p.Area, sc, n)
	correction := volatilityCorrection(vp)

	rate := saturation * frictionVelocity * k * correction * p.Area
	return q.sanitize("non-boiling evaporation rate", rate)
}

// boilingPuddleRate balances the heat fluxes into the puddle and converts
// the surplus to vapor. Surface-temperature terms use the ambient
// approximation; substrate conduction is taken against ambient as well.
func boilingPuddleRate(p domain.PuddleSpec, wx domain.WeatherSnapshot, chem domain.ChemicalProperties, airTemp, puddleTemp, boilingPoint float64, q *qualityLog) float64 {
	solar := solarFlux(wx)
	lwDown := longwaveDown(airTemp, wx.CloudCover, wx.Humidity)
	lwUp := longwaveUp(airTemp)
	ground := groundHeatFlux(p, airTemp)
	surfaceTemp := math.Min(puddleTemp, boilingPoint)
	sensible := sensibleHeatFlux(wx.WindSpeed, airTemp, surfaceTemp)

	net := solar + lwDown - lwUp + ground + sensible
	if net <= 0 {
		q.flag("boiling puddle energy balance non-positive (%g W/m²), no evaporative flux", net)
		return 0
	}
	rate := net * p.Area / chem.HeatOfVaporization
	return q.sanitize("boiling evaporation rate", rate)
}

// solarFlux uses a measured irradiance when available, otherwise the clear
// sky maximum attenuated by cloudiness in tenths.
func solarFlux(wx domain.WeatherSnapshot) float64 {
	if wx.SolarRadiation > 0 {
		return wx.SolarRadiation
	}
	const maxSolarFlux = 1111.0 // W/m²
	tenths := math.Min(math.Max(wx.CloudCover/10, 0), 10)
	return maxSolarFlux * (1 - 0.071*tenths)
}

func longwaveDown(airTemp, cloudCover, humidity float64) float64 {
	tenths := math.Min(math.Max(cloudCover/10, 0), 10)
	f := longwaveFactors[int(tenths)]

	// Water vapor partial pressure from relative humidity.
	vapor := (humidity / 100) * 99.89 * math.Exp(21.66-5431.3/airTemp)
	b := f.a + f.b*vapor

	const reflectivity = 0.03
	return (1 - reflectivity) * b * stefanBoltzmann * math.Pow(airTemp, 4)
}

func longwaveUp(surfaceTemp float64) float64 {
	const emissivity = 0.97
	return emissivity * stefanBoltzmann * math.Pow(surfaceTemp, 4)
}

func groundHeatFlux(p domain.PuddleSpec, airTemp float64) float64 {
	substrateTemp := p.SubstrateTemperature
	if substrateTemp <= 0 {
		substrateTemp = airTemp
	}
	deltaT := substrateTemp - airTemp

	if p.Substrate == domain.SubstrateWater {
		// Webber's model for spills on water.
		return 500 * deltaT * deltaT
	}
	const boundaryLayer = 0.1 // m
	return substrate(p.Substrate).conductivity * deltaT / boundaryLayer
}

func sensibleHeatFlux(windSpeed, airTemp, surfaceTemp float64) float64 {
	const heatTransferCoefficient = 0.004
	frictionVelocity := 0.03 * math.Pow(math.Max(windSpeed, 0), 0.142)
	return airDensity * airHeatCapacity * frictionVelocity * heatTransferCoefficient * (airTemp - surfaceTemp)
}

// --- thermodynamic helpers ---

// vaporPressureAt extrapolates the reference vapor pressure (298.15 K) to
// another temperature with the Clausius-Clapeyron relation.
func vaporPressureAt(chem domain.ChemicalProperties, temp float64) float64 {
	const refTemp = 298.15
	exponent := (chem.MolarHeatOfVaporization / gasConstant) * (1/refTemp - 1/temp)
	return chem.VaporPressure * math.Exp(exponent)
}

// boilingPointAt shifts the normal boiling point to a different ambient
// pressure via a linearized Clausius-Clapeyron relation.
func boilingPointAt(chem domain.ChemicalProperties, pressure float64) float64 {
	const normalPressure = 101325.0
	tb := chem.BoilingPoint
	deltaT := (gasConstant * tb * tb / chem.MolarHeatOfVaporization) * math.Log(pressure/normalPressure)
	return tb + deltaT
}

// gasDensity applies the ideal-gas law: ρ = P·M / (R·T).
func gasDensity(chem domain.ChemicalProperties, temp, pressure float64) float64 {
	molarMass := chem.MolecularWeight / 1000 // kg/mol
	return pressure * molarMass / (gasConstant * temp)
}

// schmidtNumber is the ratio of air kinematic viscosity to the molecular
// diffusivity, the latter scaled from water vapor by Graham's law.
func schmidtNumber(chem domain.ChemicalProperties) float64 {
	diffusivity := waterDiffusivity * math.Sqrt(waterMolecularWeight/chem.MolecularWeight)
	return airKinematicViscosity / diffusivity
}

// massTransferCoefficient is the reduced form of Brighton's dimensionless
// analysis over a circular puddle.
func massTransferCoefficient(area, schmidt, powerLawExponent float64) float64 {
	const roughnessLength = 0.0001 // m, smooth surface
	diameter := math.Sqrt(4 * area / math.Pi)
	x := math.Pow(diameter/roughnessLength, powerLawExponent)
	return 0.1 * math.Pow(schmidt, -0.67) * math.Pow(x, -0.2)
}

// volatilityCorrection reduces the transfer coefficient when the vapor
// pressure is a large fraction of ambient pressure.
func volatilityCorrection(vaporPressure float64) float64 {
	ratio := vaporPressure / ambientPressure
	if ratio < 0.1 {
		return 1.0
	}
	return math.Log(1+ratio) / ratio
}

// --- tank releases (ALOHA chapter 3.4) ---

// tankReleaseRate decides liquid versus gas by comparing the hole height to
// the liquid level, then applies the matching orifice model. A declared
// kind that contradicts the geometry is honored by the geometry and
// flagged.
func tankReleaseRate(kind domain.ReleaseKind, t domain.TankSpec, chem domain.ChemicalProperties, airTemp float64, q *qualityLog) float64 {
	liquidHeight := tankLiquidHeight(t)
	isLiquid := t.HoleHeight < liquidHeight

	if isLiquid && kind == domain.ReleaseTankGas {
		q.flag("hole below liquid level, modeling liquid release despite declared kind %q", kind)
	}
	if !isLiquid && kind == domain.ReleaseTankLiquid {
		q.flag("hole above liquid level, modeling gas release despite declared kind %q", kind)
	}

	if isLiquid {
		return liquidOrificeRate(t, chem, liquidHeight, q)
	}
	return gasOrificeRate(t, chem, airTemp, q)
}

// tankLiquidHeight estimates the liquid surface height from the fill
// fraction over an equivalent-sphere footprint.
func tankLiquidHeight(t domain.TankSpec) float64 {
	if t.Volume <= 0 {
		return 0
	}
	footprint := math.Pi * math.Pow(t.Volume/(4.0/3.0*math.Pi), 2.0/3.0)
	return t.Volume * t.LiquidLevel / footprint
}

// liquidOrificeRate is Torricelli's law with a discharge coefficient,
// driven by the hydrostatic head plus any gauge pressure.
func liquidOrificeRate(t domain.TankSpec, chem domain.ChemicalProperties, liquidHeight float64, q *qualityLog) float64 {
	holeArea := math.Pi * math.Pow(t.HoleDiameter/2, 2)
	head := liquidHeight - t.HoleHeight
	totalPressure := ambientPressure + t.GaugePressure

	velocity := dischargeCoefficient * math.Sqrt(2*gravity*head+2*totalPressure/chem.LiquidDensity)
	rate := chem.LiquidDensity * holeArea * velocity
	return q.sanitize("tank liquid release rate", rate)
}

// gasOrificeRate approximates choked flow: sonic velocity for an ideal gas
// through the orifice at tank temperature.
func gasOrificeRate(t domain.TankSpec, chem domain.ChemicalProperties, airTemp float64, q *qualityLog) float64 {
	holeArea := math.Pi * math.Pow(t.HoleDiameter/2, 2)
	temp := t.Temperature
	if temp <= 0 {
		temp = airTemp
	}
	totalPressure := ambientPressure + t.GaugePressure

	const gamma = 1.4 // heat capacity ratio, diatomic assumption
	specificGasConstant := gasConstant / (chem.MolecularWeight / 1000)
	sonicVelocity := math.Sqrt(gamma * specificGasConstant * temp)

	density := gasDensity(chem, temp, totalPressure)
	rate := density * holeArea * sonicVelocity * dischargeCoefficient
	return q.sanitize("tank gas release rate", rate)
}
