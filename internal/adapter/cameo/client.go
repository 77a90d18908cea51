// Package cameo looks up chemical properties from a CAMEO-style chemical
// directory service.
package cameo

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

// Client implements domain.ChemicalDirectory over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a chemical directory client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// ChemicalProperties fetches the property record for one chemical.
// Returned records may be partial; callers fill gaps with WithDefaults.
func (c *Client) ChemicalProperties(ctx context.Context, id string) (domain.ChemicalProperties, error) {
	fullURL := fmt.Sprintf("%s/chemicals/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ChemicalProperties{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChemicalProperties{}, fmt.Errorf("chemical request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.ChemicalProperties{}, fmt.Errorf("chemical directory error: status %d: %s", resp.StatusCode, body)
	}

	var record chemicalRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return domain.ChemicalProperties{}, fmt.Errorf("decode response: %w", err)
	}

	return mapToProperties(id, record), nil
}

func mapToProperties(id string, rec chemicalRecord) domain.ChemicalProperties {
	return domain.ChemicalProperties{
		ID:                      id,
		Name:                    rec.Name,
		CASNumber:               rec.CASNumber,
		MolecularWeight:         rec.MolecularWeight,
		LiquidDensity:           rec.LiquidDensity,
		VaporPressure:           rec.VaporPressure,
		BoilingPoint:            rec.BoilingPoint,
		HeatOfVaporization:      rec.HeatOfVaporization,
		MolarHeatOfVaporization: rec.MolarHeatOfVaporization,
		Toxicity: domain.ToxicityThresholds{
			IDLH: rec.IDLH,
			TWA:  rec.TWA,
			STEL: rec.STEL,
			LC50: rec.LC50,
		},
	}
}

// Directory response record. Units match the engine's conventions: Kelvin,
// Pascal, kg/m³, J/kg, J/mol.
type chemicalRecord struct {
	Name                    string  `json:"name"`
	CASNumber               string  `json:"cas_number"`
	MolecularWeight         float64 `json:"molecular_weight"`
	LiquidDensity           float64 `json:"liquid_density"`
	VaporPressure           float64 `json:"vapor_pressure"`
	BoilingPoint            float64 `json:"boiling_point"`
	HeatOfVaporization      float64 `json:"heat_of_vaporization"`
	MolarHeatOfVaporization float64 `json:"molar_heat_of_vaporization"`
	IDLH                    float64 `json:"idlh"`
	TWA                     float64 `json:"twa"`
	STEL                    float64 `json:"stel"`
	LC50                    float64 `json:"lc50"`
}
