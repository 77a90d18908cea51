// Package openmeteo implements the weather provider against the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// defaultMixingHeight is used when the forecast carries no boundary-layer
// information.
const defaultMixingHeight = 600.0 // m

// Client implements domain.WeatherProvider using the Open-Meteo API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo weather client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// CurrentWeather fetches current conditions for a location and derives the
// atmospheric stability class from wind, insolation, and cloud cover.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":        {fmt.Sprintf("%.4f", lat)},
		"longitude":       {fmt.Sprintf("%.4f", lon)},
		"wind_speed_unit": {"ms"},
		"current": {"temperature_2m,relative_humidity_2m,cloud_cover," +
			"surface_pressure,wind_speed_10m,wind_direction_10m,shortwave_radiation"},
	}
	fullURL := c.baseURL + "/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.WeatherSnapshot{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var omResp response
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode response: %w", err)
	}

	return mapToSnapshot(omResp.Current), nil
}

func mapToSnapshot(cur current) domain.WeatherSnapshot {
	timestamp := clock.Now()
	if t, err := time.Parse("2006-01-02T15:04", cur.Time); err == nil {
		timestamp = t
	}

	return domain.WeatherSnapshot{
		Timestamp:      timestamp,
		WindSpeed:      cur.WindSpeed,
		WindDirection:  cur.WindDirection,
		Temperature:    cur.Temperature + 273.15,
		Stability:      DeriveStability(cur.WindSpeed, cur.ShortwaveRadiation, cur.CloudCover),
		MixingHeight:   defaultMixingHeight,
		CloudCover:     cur.CloudCover,
		Humidity:       cur.RelativeHumidity,
		Pressure:       cur.SurfacePressure * 100, // hPa to Pa
		SolarRadiation: cur.ShortwaveRadiation,
		Source:         domain.WeatherSourceProvider,
	}
}

// DeriveStability maps surface observations to a Pasquill-Gifford class.
// Daytime classes follow insolation strength, nighttime classes follow
// cloud cover; higher wind always pushes toward neutral.
func DeriveStability(windSpeed, solarRadiation, cloudCover float64) domain.StabilityClass {
	const nightThreshold = 10.0 // W/m², below this the sun is effectively down

	if solarRadiation > nightThreshold {
		switch {
		case solarRadiation > 700: // strong insolation
			if windSpeed < 2 {
				return domain.StabilityA
			}
			if windSpeed < 5 {
				return domain.StabilityB
			}
			return domain.StabilityC
		case solarRadiation > 350: // moderate insolation
			if windSpeed < 2 {
				return domain.StabilityB
			}
			if windSpeed < 5 {
				return domain.StabilityC
			}
			return domain.StabilityD
		default: // slight insolation
			if windSpeed < 2 {
				return domain.StabilityB
			}
			if windSpeed < 3 {
				return domain.StabilityC
			}
			return domain.StabilityD
		}
	}

	// Night: clear skies radiate heat away and stabilize the surface layer.
	if cloudCover >= 50 {
		if windSpeed < 3 {
			return domain.StabilityE
		}
		return domain.StabilityD
	}
	if windSpeed < 3 {
		return domain.StabilityF
	}
	return domain.StabilityE
}

// Open-Meteo API response types.

type response struct {
	Current current `json:"current"`
}

type current struct {
	Time               string  `json:"time"`
	Temperature        float64 `json:"temperature_2m"`      // °C
	RelativeHumidity   float64 `json:"relative_humidity_2m"` // %
	CloudCover         float64 `json:"cloud_cover"`          // %
	SurfacePressure    float64 `json:"surface_pressure"`     // hPa
	WindSpeed          float64 `json:"wind_speed_10m"`       // m/s
	WindDirection      float64 `json:"wind_direction_10m"`   // degrees
	ShortwaveRadiation float64 `json:"shortwave_radiation"`  // W/m²
}
