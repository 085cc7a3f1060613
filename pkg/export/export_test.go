package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/trails"
)

func readCollection(t *testing.T, path string) FeatureCollection {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return fc
}

func TestExportWritesAllCollections(t *testing.T) {
	dir := t.TempDir()

	restricted := filepath.Join(dir, "source.geojson")
	if err := os.WriteFile(restricted, []byte(`{"type":"FeatureCollection","features":[]}`), 0644); err != nil {
		t.Fatalf("failed to write restricted source: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	writer := NewWriter(outDir, restricted, []ReferencePoint{
		{Name: "Keri lighthouse", Latitude: 59.7003, Longitude: 25.0211},
	})

	observedAt := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	observations := []ais.VesselObservation{
		{
			MMSI: 230123000, Name: "KONTIO",
			Latitude: 59.7178, Longitude: 25.0164,
			Sog: 5.0, Cog: 90.0, Heading: 92,
			ObservedAt: observedAt,
		},
	}

	trailList := []trails.Trail{
		{
			MMSI:        230123000,
			Coordinates: [][2]float64{{25.00, 59.70}, {25.0164, 59.7178}},
			Points:      2,
			Start:       observedAt.Add(-5 * time.Minute),
			End:         observedAt,
		},
	}

	if err := writer.Export(observations, trailList); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	vessels := readCollection(t, filepath.Join(outDir, "vessels.geojson"))
	if len(vessels.Features) != 1 {
		t.Fatalf("expected 1 vessel feature, got %d", len(vessels.Features))
	}

	feature := vessels.Features[0]
	if feature.Geometry.Type != "Point" {
		t.Errorf("expected Point geometry, got %q", feature.Geometry.Type)
	}

	coords, ok := feature.Geometry.Coordinates.([]interface{})
	if !ok || len(coords) != 2 {
		t.Fatalf("malformed coordinates: %v", feature.Geometry.Coordinates)
	}
	// GeoJSON coordinate order is lon, lat.
	if coords[0].(float64) != 25.0164 || coords[1].(float64) != 59.7178 {
		t.Errorf("coordinates not in lon/lat order: %v", coords)
	}

	if feature.Properties["name"] != "KONTIO" {
		t.Errorf("vessel name missing from properties: %v", feature.Properties)
	}

	trailsFC := readCollection(t, filepath.Join(outDir, "trails.geojson"))
	if len(trailsFC.Features) != 1 {
		t.Fatalf("expected 1 trail feature, got %d", len(trailsFC.Features))
	}
	if trailsFC.Features[0].Geometry.Type != "LineString" {
		t.Errorf("expected LineString trail, got %q", trailsFC.Features[0].Geometry.Type)
	}

	reference := readCollection(t, filepath.Join(outDir, "reference.geojson"))
	if len(reference.Features) != 1 || reference.Features[0].Properties["name"] != "Keri lighthouse" {
		t.Errorf("unexpected reference collection: %+v", reference.Features)
	}

	if _, err := os.Stat(filepath.Join(outDir, "restricted.geojson")); err != nil {
		t.Errorf("restricted area was not copied: %v", err)
	}
}

func TestExportEmptyPictureWritesEmptyCollections(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	writer := NewWriter(outDir, "does-not-exist.geojson", nil)

	if err := writer.Export(nil, nil); err != nil {
		t.Fatalf("export of empty picture failed: %v", err)
	}

	vessels := readCollection(t, filepath.Join(outDir, "vessels.geojson"))
	if vessels.Features == nil || len(vessels.Features) != 0 {
		t.Errorf("expected empty features array, got %v", vessels.Features)
	}

	// A missing restricted source degrades the export but never fails it.
	if _, err := os.Stat(filepath.Join(outDir, "restricted.geojson")); !os.IsNotExist(err) {
		t.Errorf("restricted.geojson should not exist, stat err: %v", err)
	}
}
