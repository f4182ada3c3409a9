package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Coordinate represents a geographical point in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. The result is symmetric and zero for equal
// points; callers are expected to pass latitudes in [-90,90] and longitudes
// in [-180,180].
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// IsValid reports whether the coordinate lies within the valid
// latitude/longitude ranges and contains no NaN or infinite components.
func (c Coordinate) IsValid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
