package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 10, 0, 0, time.UTC)
	update := domain.CalculationUpdate{
		Type:      domain.UpdateDispersion,
		ReleaseID: "rel-1",
		Result: &domain.DispersionResult{
			ID:        "calc-1",
			ReleaseID: "rel-1",
			Model:     domain.ModelGaussianPlume,
		},
		Timestamp: now,
	}

	msg, err := serializeToMessage("rel-1", update)
	require.NoError(t, err)

	assert.Equal(t, []byte("rel-1"), msg.Key, "messages are keyed by release for per-partition ordering")
	assert.Contains(t, string(msg.Value), `"type":"dispersion_update"`)
	assert.Contains(t, string(msg.Value), `"gaussian_plume"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "update_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.UpdateDispersion), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_UnavailableUpdate(t *testing.T) {
	update := domain.CalculationUpdate{
		Type:      domain.UpdateCalculationUnavailable,
		ReleaseID: "rel-2",
		Error:     "wind speed below modeling floor",
		Timestamp: time.Date(2026, 8, 29, 15, 10, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage("rel-2", update)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), "wind speed below modeling floor")
	assert.NotContains(t, string(msg.Value), `"calculation"`, "failed updates carry no result payload")
}
