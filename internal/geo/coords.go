package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Nassau is the fallback location shown before anything better is known.
var Nassau = orb.Point{-77.3963, 25.0343}

// bahamas covers the archipelago from Grand Bahama and Bimini to Inagua.
var bahamas = orb.Bound{
	Min: orb.Point{-80.6, 20.8},
	Max: orb.Point{-72.6, 27.4},
}

// defaultRadius is how close to Nassau a pin counts as "not moved".
const defaultRadius = 15.0 // meters

// NormalizeLongitude flips a positive longitude in the 70..80 band to west.
// People in the Bahamas commonly drop the minus sign.
func NormalizeLongitude(lon float64) float64 {
	if lon >= 70 && lon <= 80 {
		return -lon
	}
	return lon
}

// IsDefault reports whether lat/lon is still the Nassau fallback.
func IsDefault(lat, lon float64) bool {
	return orbgeo.Distance(orb.Point{lon, lat}, Nassau) < defaultRadius
}

// InBahamas reports whether lat/lon falls inside the archipelago's bounding box.
func InBahamas(lat, lon float64) bool {
	return bahamas.Contains(orb.Point{lon, lat})
}

// Links are map URLs for a coordinate.
type Links struct {
	Google        string `json:"google"`
	OpenStreetMap string `json:"openstreetmap"`
	Apple         string `json:"apple"`
}

func MapLinks(lat, lon float64) Links {
	return Links{
		Google:        fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", lat, lon),
		OpenStreetMap: fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=17/%.6f/%.6f", lat, lon, lat, lon),
		Apple:         fmt.Sprintf("http://maps.apple.com/?ll=%.6f,%.6f", lat, lon),
	}
}

// Warnings returns non-blocking notes about a chosen location.
func Warnings(lat, lon float64) []string {
	var w []string
	if IsDefault(lat, lon) {
		w = append(w, "The pin is still at the default Nassau location. Move it to your address if you can.")
	}
	if !InBahamas(lat, lon) {
		w = append(w, "This location is outside The Bahamas.")
	}
	return w
}
