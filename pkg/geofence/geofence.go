package geofence

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog/log"
)

// Point is a WGS84 coordinate in GeoJSON order.
type Point struct {
	Lon float64
	Lat float64
}

// Polygon is a single restricted-area polygon. The first ring is the outer
// shell, any further rings are holes. Rings are closed: the last vertex
// repeats the first.
type Polygon struct {
	Name  string
	rings [][]Point
}

type geoJSONGeometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   geoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// Load reads a restricted-area polygon from a GeoJSON FeatureCollection.
// The first feature must carry a valid Polygon geometry; anything else is a
// startup failure.
func Load(path string) (*Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geofence file: %w", err)
	}

	polygon, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load geofence %s: %w", path, err)
	}

	log.Info().Str("name", polygon.Name).Int("rings", len(polygon.rings)).Msg("Loaded geofence")
	return polygon, nil
}

// Parse decodes and validates a GeoJSON FeatureCollection polygon.
func Parse(data []byte) (*Polygon, error) {
	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	if fc.Type != "FeatureCollection" || len(fc.Features) == 0 {
		return nil, fmt.Errorf("expected a FeatureCollection with at least one feature")
	}

	feature := fc.Features[0]
	if feature.Geometry.Type != "Polygon" {
		return nil, fmt.Errorf("expected Polygon geometry, got %q", feature.Geometry.Type)
	}

	if len(feature.Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}

	polygon := &Polygon{Name: "Unknown"}
	if name, ok := feature.Properties["name"].(string); ok && name != "" {
		polygon.Name = name
	}

	for i, rawRing := range feature.Geometry.Coordinates {
		ring := make([]Point, 0, len(rawRing))
		for _, coord := range rawRing {
			if len(coord) < 2 {
				return nil, fmt.Errorf("ring %d has a malformed coordinate", i)
			}
			ring = append(ring, Point{Lon: coord[0], Lat: coord[1]})
		}

		if err := validateRing(ring); err != nil {
			return nil, fmt.Errorf("ring %d invalid: %w", i, err)
		}

		polygon.rings = append(polygon.rings, ring)
	}

	return polygon, nil
}

func validateRing(ring []Point) error {
	if len(ring) < 4 {
		return fmt.Errorf("ring must have at least 4 coordinates, got %d", len(ring))
	}

	first, last := ring[0], ring[len(ring)-1]
	if first != last {
		return fmt.Errorf("ring is not closed")
	}

	// Pairwise segment intersection check; adjacent segments share a vertex
	// and are allowed to touch there.
	n := len(ring) - 1
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if adjacent {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return fmt.Errorf("ring is self-intersecting near vertex %d", i)
			}
		}
	}

	return nil
}

// Contains reports whether the point lies inside the polygon. Points on any
// ring boundary count as inside; points strictly inside a hole are outside.
func (p *Polygon) Contains(lon, lat float64) bool {
	pt := Point{Lon: lon, Lat: lat}

	for _, ring := range p.rings {
		if onRing(pt, ring) {
			return true
		}
	}

	if !inRing(pt, p.rings[0]) {
		return false
	}

	for _, hole := range p.rings[1:] {
		if inRing(pt, hole) {
			return false
		}
	}

	return true
}

// Rings returns the polygon coordinates in GeoJSON nesting order.
func (p *Polygon) Rings() [][][]float64 {
	out := make([][][]float64, 0, len(p.rings))
	for _, ring := range p.rings {
		coords := make([][]float64, 0, len(ring))
		for _, pt := range ring {
			coords = append(coords, []float64{pt.Lon, pt.Lat})
		}
		out = append(out, coords)
	}
	return out
}

// inRing is the even-odd crossing rule.
func inRing(pt Point, ring []Point) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat

		if (yi > pt.Lat) != (yj > pt.Lat) &&
			pt.Lon < (xj-xi)*(pt.Lat-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}

func onRing(pt Point, ring []Point) bool {
	for i := 0; i < len(ring)-1; i++ {
		if onSegment(pt, ring[i], ring[i+1]) {
			return true
		}
	}
	return false
}

const epsilon = 1e-12

func onSegment(pt, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lon-a.Lon)
	if math.Abs(cross) > epsilon {
		return false
	}

	return pt.Lon >= math.Min(a.Lon, b.Lon)-epsilon && pt.Lon <= math.Max(a.Lon, b.Lon)+epsilon &&
		pt.Lat >= math.Min(a.Lat, b.Lat)-epsilon && pt.Lat <= math.Max(a.Lat, b.Lat)+epsilon
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := direction(q1, q2, p1)
	d2 := direction(q1, q2, p2)
	d3 := direction(p1, p2, q1)
	d4 := direction(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(p1, q1, q2) {
		return true
	}
	if d2 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	if d3 == 0 && onSegment(q1, p1, p2) {
		return true
	}
	if d4 == 0 && onSegment(q2, p1, p2) {
		return true
	}

	return false
}

func direction(a, b, c Point) float64 {
	return (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
}
