package sites

import (
	"context"
	"fmt"

	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
)

// StaticSite is one site entry in the agent configuration file.
type StaticSite struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	RadiusM float64 `yaml:"radius_m"`
	Active  bool    `yaml:"active"`
}

// StaticDirectory serves a fixed site list from configuration. Small
// single-office deployments use this instead of a database.
type StaticDirectory struct {
	sites []geofence.Site
}

// NewStaticDirectory validates and converts the configured entries,
// preserving their order. Negative radii are clamped to zero; invalid
// coordinates are a configuration error.
func NewStaticDirectory(entries []StaticSite) (*StaticDirectory, error) {
	sites := make([]geofence.Site, 0, len(entries))
	for _, e := range entries {
		coord := geo.Coordinate{Latitude: e.Lat, Longitude: e.Lng}
		if !coord.IsValid() {
			return nil, fmt.Errorf("site %q has invalid coordinates (%f, %f)", e.ID, e.Lat, e.Lng)
		}
		radius := e.RadiusM
		if radius < 0 {
			radius = 0
		}
		sites = append(sites, geofence.Site{
			ID:                  e.ID,
			Name:                e.Name,
			Coordinate:          coord,
			NominalRadiusMeters: radius,
			Active:              e.Active,
		})
	}
	return &StaticDirectory{sites: sites}, nil
}

// Sites returns a copy of the configured site list.
func (d *StaticDirectory) Sites(ctx context.Context) ([]geofence.Site, error) {
	out := make([]geofence.Site, len(d.sites))
	copy(out, d.sites)
	return out, nil
}
