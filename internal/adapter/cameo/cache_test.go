package cameo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
	"github.com/couchcryptid/chem-dispersion-service/internal/observability"
)

type countingDirectory struct {
	calls int
	props domain.ChemicalProperties
	err   error
}

func (d *countingDirectory) ChemicalProperties(context.Context, string) (domain.ChemicalProperties, error) {
	d.calls++
	if d.err != nil {
		return domain.ChemicalProperties{}, d.err
	}
	return d.props, nil
}

func TestCachedDirectory_CachesLookups(t *testing.T) {
	inner := &countingDirectory{props: domain.ChemicalProperties{ID: "chem-1", Name: "Chlorine", MolecularWeight: 70.9}}
	dir := NewCachedDirectory(inner, time.Hour, observability.NewMetricsForTesting())

	first, err := dir.ChemicalProperties(context.Background(), "chem-1")
	require.NoError(t, err)
	second, err := dir.ChemicalProperties(context.Background(), "chem-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "the second lookup must come from the cache")
}

func TestCachedDirectory_DoesNotCacheErrors(t *testing.T) {
	inner := &countingDirectory{err: errors.New("directory down")}
	dir := NewCachedDirectory(inner, time.Hour, observability.NewMetricsForTesting())

	_, err := dir.ChemicalProperties(context.Background(), "chem-1")
	require.Error(t, err)
	_, err = dir.ChemicalProperties(context.Background(), "chem-1")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failed lookups must be retried, not cached")
}
