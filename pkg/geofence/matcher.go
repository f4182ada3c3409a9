package geofence

import "github.com/pontolabs/ponto-agent/pkg/geo"

// MatchResult describes how one position sample relates to the authorized
// site set. NearestSite and DistanceMeters are populated whenever at least
// one active site exists, regardless of the match outcome, so rejection
// messages can tell the user how far off they are.
type MatchResult struct {
	Matched bool

	// Site is the matched site, nil when no site contains the sample.
	Site *Site

	// NearestSite is the closest active site by raw distance.
	NearestSite *Site

	// DistanceMeters is the raw distance to NearestSite.
	DistanceMeters float64

	// EffectiveRadiusMeters is the adaptive radius of the matched site, or of
	// the nearest site when unmatched.
	EffectiveRadiusMeters float64

	// Confidence is the classifier confidence of the sample's accuracy when
	// matched, 0 otherwise.
	Confidence float64
}

// Match tests one coordinate against the site set using the given accuracy
// radius. Inactive sites are skipped. The first site in input order whose
// adaptive radius contains the sample wins; sites are not sorted by
// distance, so a farther site listed earlier can win over a nearer one.
// Pure function, no side effects.
func Match(sample geo.Coordinate, sites []Site, accuracyRadius float64) MatchResult {
	active := ActiveSites(sites)
	if len(active) == 0 {
		return MatchResult{}
	}

	var result MatchResult
	for i := range active {
		site := &active[i]
		distance := geo.DistanceMeters(sample, site.Coordinate)
		effective := AdaptiveRadius(site.NominalRadiusMeters, accuracyRadius)

		if result.NearestSite == nil || distance < result.DistanceMeters {
			result.NearestSite = site
			result.DistanceMeters = distance
			if !result.Matched {
				result.EffectiveRadiusMeters = effective
			}
		}

		if !result.Matched && distance <= effective {
			result.Matched = true
			result.Site = site
			result.EffectiveRadiusMeters = effective
			result.Confidence = Classify(accuracyRadius).Confidence
		}
	}

	return result
}
