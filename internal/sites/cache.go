package sites

import (
	"context"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/rs/zerolog"
)

// DefaultRefreshTTL is how long a fetched site list is reused before the
// backing directory is consulted again.
const DefaultRefreshTTL = 5 * time.Minute

// CachingDirectory decorates a Directory so each punch does not hit the
// database. Sites are stored in a concurrent map keyed by id; the ordered id
// list on top of it preserves the directory's first-fit ordering. SiteByID
// reads the map without touching the snapshot lock.
type CachingDirectory struct {
	inner  Directory
	ttl    time.Duration
	logger zerolog.Logger

	byID cmap.ConcurrentMap[string, geofence.Site]

	mu        sync.RWMutex
	order     []string
	fetchedAt time.Time
	now       func() time.Time
}

// NewCachingDirectory wraps inner with a refresh TTL; non-positive ttl uses
// DefaultRefreshTTL.
func NewCachingDirectory(inner Directory, ttl time.Duration, logger zerolog.Logger) *CachingDirectory {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &CachingDirectory{
		inner:  inner,
		ttl:    ttl,
		logger: logger,
		byID:   cmap.New[geofence.Site](),
		now:    time.Now,
	}
}

// Sites serves the cached site set while it is fresh, refreshing from the
// backing directory otherwise. When a refresh fails and a previous snapshot
// exists, the stale snapshot is served: punches should not be blocked by a
// transient database outage.
func (d *CachingDirectory) Sites(ctx context.Context) ([]geofence.Site, error) {
	d.mu.RLock()
	if d.order != nil && d.now().Sub(d.fetchedAt) < d.ttl {
		out := d.collectLocked()
		d.mu.RUnlock()
		return out, nil
	}
	d.mu.RUnlock()

	fetched, err := d.inner.Sites(ctx)
	if err != nil {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.order != nil {
			d.logger.Warn().Err(err).Msg("Site refresh failed, serving stale snapshot")
			return d.collectLocked(), nil
		}
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID.Clear()
	order := make([]string, 0, len(fetched))
	for _, s := range fetched {
		d.byID.Set(s.ID, s)
		order = append(order, s.ID)
	}
	d.order = order
	d.fetchedAt = d.now()
	return d.collectLocked(), nil
}

// collectLocked rebuilds the ordered site list from the map. Callers hold
// d.mu, so the order and the map entries are consistent.
func (d *CachingDirectory) collectLocked() []geofence.Site {
	out := make([]geofence.Site, 0, len(d.order))
	for _, id := range d.order {
		if s, ok := d.byID.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// SiteByID returns the cached site with the given id.
func (d *CachingDirectory) SiteByID(id string) (geofence.Site, bool) {
	return d.byID.Get(id)
}

// Invalidate drops the cached set so the next call refreshes.
func (d *CachingDirectory) Invalidate() {
	d.mu.Lock()
	d.order = nil
	d.mu.Unlock()
	d.byID.Clear()
}
