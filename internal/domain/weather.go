package domain

import "time"

// StabilityClass is a Pasquill-Gifford atmospheric stability category.
type StabilityClass string

const (
	StabilityA StabilityClass = "A" // extremely unstable
	StabilityB StabilityClass = "B" // moderately unstable
	StabilityC StabilityClass = "C" // slightly unstable
	StabilityD StabilityClass = "D" // neutral
	StabilityE StabilityClass = "E" // slightly stable
	StabilityF StabilityClass = "F" // moderately stable
	StabilityG StabilityClass = "G" // extremely stable
)

// Valid reports whether s is one of the classes A-G.
func (s StabilityClass) Valid() bool {
	switch s {
	case StabilityA, StabilityB, StabilityC, StabilityD, StabilityE, StabilityF, StabilityG:
		return true
	}
	return false
}

// Weather data source tags.
const (
	WeatherSourceProvider = "provider"
	WeatherSourceFallback = "fallback"
)

// WeatherSnapshot is the meteorological state used for one calculation.
// Immutable once captured for a given cycle.
type WeatherSnapshot struct {
	Timestamp      time.Time      `json:"timestamp"`
	WindSpeed      float64        `json:"wind_speed"`      // m/s at 10 m reference height
	WindDirection  float64        `json:"wind_direction"`  // degrees, blowing FROM
	Temperature    float64        `json:"temperature"`     // K
	Stability      StabilityClass `json:"stability"`
	MixingHeight   float64        `json:"mixing_height"`   // m
	CloudCover     float64        `json:"cloud_cover"`     // percent 0-100
	Humidity       float64        `json:"humidity"`        // percent 0-100
	Pressure       float64        `json:"pressure"`        // Pa
	SolarRadiation float64        `json:"solar_radiation"` // W/m²; 0 means estimate from cloud cover
	Source         string         `json:"source"`          // "provider" or "fallback"
}

// FallbackWeather is the documented default profile substituted when the
// weather provider is unavailable: 20 °C, 60 % humidity, standard pressure,
// 3 m/s wind from the west, 50 % cloud, neutral stability, 600 m mixing
// height.
func FallbackWeather(now time.Time) WeatherSnapshot {
	return WeatherSnapshot{
		Timestamp:     now,
		WindSpeed:     3,
		WindDirection: 270,
		Temperature:   293.15,
		Stability:     StabilityD,
		MixingHeight:  600,
		CloudCover:    50,
		Humidity:      60,
		Pressure:      101325,
		Source:        WeatherSourceFallback,
	}
}
