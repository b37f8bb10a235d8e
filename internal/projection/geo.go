package projection

import "math"

const (
	earthRadiusKm = 6371.0
	// Signal speed used for the latency estimate, in km/s.
	signalSpeedKmPerSec = 300000.0
)

// GreatCircleKm returns the haversine distance between a and b in kilometres.
func GreatCircleKm(a, b GeoCoordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// RoundTripMillis estimates the round-trip propagation delay over distanceKm.
func RoundTripMillis(distanceKm float64) float64 {
	return distanceKm / signalSpeedKmPerSec * 1000 * 2
}

// Region is a coarse continental label derived from longitude bands.
func Region(c GeoCoordinate) string {
	lon := c.Longitude
	switch {
	case lon >= -130 && lon <= -60:
		return "North America"
	case lon >= -20 && lon <= 50:
		return "Europe/Africa"
	case lon >= 50 && lon <= 180:
		return "Asia/Oceania"
	case lon >= -90 && lon <= -30:
		return "South America"
	default:
		return "Unknown Region"
	}
}
