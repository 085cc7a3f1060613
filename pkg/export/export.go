package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/trails"
)

// FeatureCollection is the GeoJSON document shape written to disk.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// ReferencePoint is a fixed landmark exported alongside the live picture,
// e.g. the Keri lighthouse.
type ReferencePoint struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Writer serializes the situational picture into GeoJSON files for the
// downstream map.
type Writer struct {
	dir              string
	restrictedSource string
	refPoints        []ReferencePoint
}

func NewWriter(dir, restrictedSource string, refPoints []ReferencePoint) *Writer {
	return &Writer{
		dir:              dir,
		restrictedSource: restrictedSource,
		refPoints:        refPoints,
	}
}

// Export writes vessels.geojson, trails.geojson, restricted.geojson and
// reference.geojson into the export directory.
func (w *Writer) Export(observations []ais.VesselObservation, trailList []trails.Trail) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := w.writeCollection("vessels.geojson", vesselFeatures(observations)); err != nil {
		return err
	}

	if err := w.writeCollection("trails.geojson", trailFeatures(trailList)); err != nil {
		return err
	}

	if err := w.writeCollection("reference.geojson", referenceFeatures(w.refPoints)); err != nil {
		return err
	}

	// The restricted area is static; copy the source definition verbatim.
	// Failure here only degrades the map, it never fails the cycle.
	if data, err := os.ReadFile(w.restrictedSource); err != nil {
		log.Debug().Err(err).Msg("Could not export restricted area")
	} else if err := os.WriteFile(filepath.Join(w.dir, "restricted.geojson"), data, 0644); err != nil {
		log.Debug().Err(err).Msg("Could not export restricted area")
	}

	log.Info().
		Str("dir", w.dir).
		Int("vessels", len(observations)).
		Int("trails", len(trailList)).
		Msg("Exported GeoJSON")

	return nil
}

func (w *Writer) writeCollection(name string, features []Feature) error {
	if features == nil {
		features = []Feature{}
	}

	fc := FeatureCollection{Type: "FeatureCollection", Features: features}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

func vesselFeatures(observations []ais.VesselObservation) []Feature {
	features := make([]Feature, 0, len(observations))
	for _, obs := range observations {
		timestamp := ""
		if !obs.ObservedAt.IsZero() {
			timestamp = obs.ObservedAt.UTC().Format(time.RFC3339)
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{obs.Longitude, obs.Latitude},
			},
			Properties: map[string]interface{}{
				"mmsi":      obs.MMSI,
				"name":      obs.Name,
				"sog":       obs.Sog,
				"cog":       obs.Cog,
				"heading":   obs.Heading,
				"timestamp": timestamp,
			},
		})
	}
	return features
}

func trailFeatures(trailList []trails.Trail) []Feature {
	features := make([]Feature, 0, len(trailList))
	for _, trail := range trailList {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: trail.Coordinates,
			},
			Properties: map[string]interface{}{
				"mmsi":   trail.MMSI,
				"points": trail.Points,
				"start":  trail.Start.UTC().Format(time.RFC3339),
				"end":    trail.End.UTC().Format(time.RFC3339),
			},
		})
	}
	return features
}

func referenceFeatures(refPoints []ReferencePoint) []Feature {
	features := make([]Feature, 0, len(refPoints))
	for _, ref := range refPoints {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{ref.Longitude, ref.Latitude},
			},
			Properties: map[string]interface{}{
				"name": ref.Name,
			},
		})
	}
	return features
}
