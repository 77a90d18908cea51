package dispersion_test

import (
	"testing"

	"github.com/couchcryptid/chem-dispersion-service/internal/dispersion"
	"github.com/stretchr/testify/assert"
)

func TestGreatCircleDistance(t *testing.T) {
	// One degree of longitude on the equator is ~111.2 km.
	d := dispersion.GreatCircleDistance(0, 0, 0, 1)
	assert.InDelta(t, 111195, d, 200)

	assert.Zero(t, dispersion.GreatCircleDistance(40, -100, 40, -100))
}

func TestInitialBearing(t *testing.T) {
	assert.InDelta(t, 90, dispersion.InitialBearing(0, 0, 0, 1), 0.5)
	assert.InDelta(t, 0, dispersion.InitialBearing(40, -100, 41, -100), 0.5)
	assert.InDelta(t, 180, dispersion.InitialBearing(41, -100, 40, -100), 0.5)
}
