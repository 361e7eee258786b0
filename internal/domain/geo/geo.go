// Package geo holds coordinate helpers for the location facet.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6_371_000.0

// ErrOutOfRange is returned for a latitude outside [-90,90] or a longitude
// outside [-180,180].
var ErrOutOfRange = errors.New("geo: coordinates out of range")

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Parse reads a point from its query string form.
func Parse(lat, lng string) (Point, error) {
	la, errLat := strconv.ParseFloat(lat, 64)
	ln, errLng := strconv.ParseFloat(lng, 64)
	if err := errors.Join(errLat, errLng); err != nil {
		return Point{}, fmt.Errorf("geo: parse %q,%q: %w", lat, lng, err)
	}
	p := Point{Lat: la, Lng: ln}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %s", ErrOutOfRange, p)
	}
	return p, nil
}

// Valid reports whether both components are in range.
func (p Point) Valid() bool {
	return ValidateCoordinates(p.Lat, p.Lng)
}

// String renders the point as "lat, lng" with the shortest exact decimals.
func (p Point) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// DistanceTo returns the Haversine distance to q in meters.
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lng, q.Lat, q.Lng)
}

// Within reports whether p lies at most radius meters from center.
func (p Point) Within(center Point, radius int) bool {
	return p.DistanceTo(center) <= float64(radius)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in meters between two points
// given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	sinLat := math.Sin(radians(lat2-lat1) / 2)
	sinLng := math.Sin(radians(lng2-lng1) / 2)
	h := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLng*sinLng
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ValidateCoordinates checks that lat is in [-90,90] and lng in [-180,180].
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
