// Package geo resolves free-text locations against a static gazetteer and
// measures great-circle distance.
package geo

import (
	"math"
	"strings"
)

// EarthRadiusMiles is the mean Earth radius used by Haversine.
const EarthRadiusMiles = 3959.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Place is one named gazetteer entry.
type Place struct {
	Name  string // lower-case match text
	Point Point
}

// Result is the outcome of a lookup.
type Result struct {
	Point Point
	Found bool
}

// Gazetteer maps location text to coordinates by substring match.
type Gazetteer struct {
	places   []Place
	fallback Point
}

// NewGazetteer builds a gazetteer. Entries are tried in the given order; the
// first whose name occurs in the location wins. fallback is returned for
// locations that mention California but no listed place.
func NewGazetteer(places []Place, fallback Point) *Gazetteer {
	ps := make([]Place, len(places))
	for i, p := range places {
		ps[i] = Place{Name: strings.ToLower(p.Name), Point: p.Point}
	}
	return &Gazetteer{places: ps, fallback: fallback}
}

// Lookup resolves location. There is no longest-match precedence.
func (g *Gazetteer) Lookup(location string) Result {
	if location == "" {
		return Result{}
	}
	lower := strings.ToLower(location)

	for _, p := range g.places {
		if strings.Contains(lower, p.Name) {
			return Result{Point: p.Point, Found: true}
		}
	}

	if strings.Contains(lower, "california") || strings.Contains(lower, ", ca") {
		return Result{Point: g.fallback, Found: true}
	}

	return Result{}
}

// Haversine returns the great-circle distance in miles between two points.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

// RoundTenth rounds to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
