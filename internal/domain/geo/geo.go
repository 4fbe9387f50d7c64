package geo

import (
	"context"
	"fmt"
	"math"
)

// Location is the best-effort place resolution for one pair of
// coordinates.
type Location struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"location_name"`
	MapsLink     string  `json:"maps_link"`
}

// Geocoder port (interface for the external reverse-geocoding
// collaborator). ReverseGeocode never fails: implementations degrade to a
// formatted coordinate string.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// ValidCoordinates reports whether lat/lon fall inside the valid ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// FormatCoordinates renders coordinates as a human-readable fallback
// location name, e.g. "48.8566° N, 2.3522° E".
func FormatCoordinates(lat, lon float64) string {
	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f° %s, %.4f° %s", math.Abs(lat), ns, math.Abs(lon), ew)
}

// NewLocation builds a Location with rounded coordinates and a maps link.
func NewLocation(lat, lon float64, name string) Location {
	return Location{
		Latitude:     math.Round(lat*1e6) / 1e6,
		Longitude:    math.Round(lon*1e6) / 1e6,
		LocationName: name,
		MapsLink:     fmt.Sprintf("https://www.google.com/maps?q=%v,%v", lat, lon),
	}
}
