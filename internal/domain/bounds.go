package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ServiceRegion is the bounding box of the serviceable area (Jabodetabek).
// orb points are [lon, lat].
var ServiceRegion = orb.Bound{
	Min: orb.Point{106.4, -6.8},
	Max: orb.Point{107.3, -5.9},
}

// InRegion reports whether (lat, lon) lies strictly inside b.
// Unlike orb.Bound.Contains, points on an edge are outside.
func InRegion(b orb.Bound, lat, lon float64) bool {
	return lat > b.Min.Lat() && lat < b.Max.Lat() &&
		lon > b.Min.Lon() && lon < b.Max.Lon()
}

// ValidateCoordinates returns ErrOutOfBounds unless the coordinates lie
// strictly inside ServiceRegion.
func ValidateCoordinates(lat, lon float64) error {
	if !InRegion(ServiceRegion, lat, lon) {
		return fmt.Errorf("%w: lat=%g lon=%g", ErrOutOfBounds, lat, lon)
	}
	return nil
}
