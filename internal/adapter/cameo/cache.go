package cameo

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
	"github.com/couchcryptid/chem-dispersion-service/internal/observability"
)

// CachedDirectory wraps a ChemicalDirectory with a TTL cache. Chemical
// properties change rarely, so a long TTL spares the upstream directory a
// lookup every calculation cycle.
type CachedDirectory struct {
	inner   domain.ChemicalDirectory
	cache   *gocache.Cache
	metrics *observability.Metrics
}

// NewCachedDirectory creates a cache decorator around a directory.
func NewCachedDirectory(inner domain.ChemicalDirectory, ttl time.Duration, metrics *observability.Metrics) *CachedDirectory {
	return &CachedDirectory{
		inner:   inner,
		cache:   gocache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedDirectory) ChemicalProperties(ctx context.Context, id string) (domain.ChemicalProperties, error) {
	if cached, ok := c.cache.Get(id); ok {
		c.metrics.ChemicalCache.WithLabelValues("hit").Inc()
		return cached.(domain.ChemicalProperties), nil
	}
	c.metrics.ChemicalCache.WithLabelValues("miss").Inc()

	props, err := c.inner.ChemicalProperties(ctx, id)
	if err != nil {
		return props, err
	}
	c.cache.SetDefault(id, props)
	return props, nil
}
