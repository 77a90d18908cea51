package cameo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ChemicalProperties_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chemicals/chlorine", r.URL.Path)

		rec := chemicalRecord{
			Name:                    "Chlorine",
			CASNumber:               "7782-50-5",
			MolecularWeight:         70.9,
			LiquidDensity:           1468,
			VaporPressure:           687000,
			BoilingPoint:            239.1,
			HeatOfVaporization:      2.88e5,
			MolarHeatOfVaporization: 2.04e4,
			IDLH:                    29,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rec))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	props, err := c.ChemicalProperties(context.Background(), "chlorine")
	require.NoError(t, err)

	assert.Equal(t, "chlorine", props.ID)
	assert.Equal(t, "Chlorine", props.Name)
	assert.Equal(t, "7782-50-5", props.CASNumber)
	assert.Equal(t, 70.9, props.MolecularWeight)
	assert.Equal(t, 239.1, props.BoilingPoint)
	assert.Equal(t, 29.0, props.Toxicity.IDLH)
}

func TestClient_ChemicalProperties_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such chemical", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ChemicalProperties(context.Background(), "unobtainium")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
