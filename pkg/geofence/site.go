package geofence

import "github.com/pontolabs/ponto-agent/pkg/geo"

// Site is an authorized clock-in location. Sites are maintained by an
// administrative backend and are read-only here.
type Site struct {
	ID                  string
	Name                string
	Coordinate          geo.Coordinate
	NominalRadiusMeters float64
	Active              bool
}

// ActiveSites filters a site list down to the active entries, preserving
// input order. Matching order is significant, see Match.
func ActiveSites(sites []Site) []Site {
	active := make([]Site, 0, len(sites))
	for _, s := range sites {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}
