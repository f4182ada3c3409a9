package geofence

import "math"

// Tuning constants for the adaptive acceptance radius. A tight nominal
// geofence is unusable when the device itself reports more uncertainty than
// the fence is wide, so the effective radius grows with the accuracy radius.
const (
	minEffectiveRadiusMeters = 50.0

	// Accuracy above this switches to the wider inflation factor.
	wideFactorAboveMeters = 50.0
	inflationFactorTight  = 1.5
	inflationFactorWide   = 2.5

	// Accuracy above this earns extra slack on top of the inflated radius.
	extraBufferAboveMeters = 100.0
	extraBufferFraction    = 0.3
)

// AdaptiveRadius derives the effective acceptance radius in meters around a
// site from its nominal radius and the current reading's accuracy radius.
// The result never drops below the floor and is rounded to the nearest
// meter. Negative inputs are treated as zero.
func AdaptiveRadius(nominalRadius, accuracyRadius float64) float64 {
	if nominalRadius < 0 {
		nominalRadius = 0
	}
	if accuracyRadius < 0 {
		accuracyRadius = 0
	}

	factor := inflationFactorTight
	if accuracyRadius > wideFactorAboveMeters {
		factor = inflationFactorWide
	}

	extraBuffer := 0.0
	if accuracyRadius > extraBufferAboveMeters {
		extraBuffer = (accuracyRadius - extraBufferAboveMeters) * extraBufferFraction
	}

	radius := math.Max(nominalRadius, math.Max(accuracyRadius*factor, minEffectiveRadiusMeters))
	return math.Round(radius + extraBuffer)
}
