package ais

import (
	"testing"
	"time"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
)

var testBBox = config.BBoxConfig{
	LatMin: 59.0,
	LatMax: 60.5,
	LonMin: 24.0,
	LonMax: 27.0,
}

func pointFeature(mmsi int, lon, lat float64) Feature {
	return Feature{
		Type: "Feature",
		MMSI: mmsi,
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
		Properties: FeatureProperties{MMSI: mmsi},
	}
}

func TestNormalizeDropsMalformedGeometry(t *testing.T) {
	now := time.Now()
	normalizer := NewNormalizer(testBBox, 10*time.Minute)

	features := []Feature{
		{
			MMSI:     230111000,
			Geometry: Geometry{Type: "LineString", Coordinates: []float64{25.0, 59.7}},
		},
		{
			MMSI:     230222000,
			Geometry: Geometry{Type: "Point", Coordinates: []float64{25.0}},
		},
		pointFeature(230333000, 25.0, 59.7),
	}

	observations := normalizer.Normalize(features, nil, now)
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}

	if observations[0].MMSI != 230333000 {
		t.Errorf("kept the wrong record: %+v", observations[0])
	}
}

func TestNormalizeDropsOutsideBoundingBox(t *testing.T) {
	now := time.Now()
	normalizer := NewNormalizer(testBBox, 10*time.Minute)

	features := []Feature{
		pointFeature(1, 25.0, 58.5),  // south of the box
		pointFeature(2, 28.0, 59.7),  // east of the box
		pointFeature(3, 25.0, 59.7),  // inside
		pointFeature(4, 24.0, 59.0),  // on the corner, inclusive
	}

	observations := normalizer.Normalize(features, nil, now)
	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}
}

func TestNormalizeFreshness(t *testing.T) {
	now := time.Now()
	normalizer := NewNormalizer(testBBox, 10*time.Minute)

	fresh := pointFeature(1, 25.0, 59.7)
	fresh.Properties.TimestampExternal = now.Add(-5 * time.Minute).UnixMilli()

	stale := pointFeature(2, 25.0, 59.7)
	stale.Properties.TimestampExternal = now.Add(-20 * time.Minute).UnixMilli()

	// Zero timestamp is treated as always fresh.
	unstamped := pointFeature(3, 25.0, 59.7)

	observations := normalizer.Normalize([]Feature{fresh, stale, unstamped}, nil, now)
	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}

	for _, obs := range observations {
		if obs.MMSI == 2 {
			t.Error("stale observation survived the freshness filter")
		}
		if obs.MMSI == 3 && !obs.ObservedAt.IsZero() {
			t.Error("unstamped observation should carry a zero ObservedAt")
		}
	}
}

func TestNormalizeResolvesNames(t *testing.T) {
	now := time.Now()
	normalizer := NewNormalizer(testBBox, 10*time.Minute)

	fromLookup := pointFeature(230123000, 25.0, 59.7)
	fromLookup.Properties.Name = "OLD FEED NAME"

	fromFeed := pointFeature(230456000, 25.0, 59.7)
	fromFeed.Properties.Name = "BALTIC TRADER"

	synthesized := pointFeature(230789000, 25.0, 59.7)

	names := map[int]string{230123000: "KONTIO"}

	observations := normalizer.Normalize([]Feature{fromLookup, fromFeed, synthesized}, names, now)
	if len(observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(observations))
	}

	want := map[int]string{
		230123000: "KONTIO",
		230456000: "BALTIC TRADER",
		230789000: "MMSI-230789000",
	}

	for _, obs := range observations {
		if obs.Name != want[obs.MMSI] {
			t.Errorf("MMSI %d: got name %q, want %q", obs.MMSI, obs.Name, want[obs.MMSI])
		}
	}
}

func TestNormalizeCopiesKinematics(t *testing.T) {
	now := time.Now()
	normalizer := NewNormalizer(testBBox, 10*time.Minute)

	feature := pointFeature(230123000, 25.0164, 59.7178)
	feature.Properties.Sog = 5.2
	feature.Properties.Cog = 271.5
	feature.Properties.Heading = HeadingUnavailable

	observations := normalizer.Normalize([]Feature{feature}, nil, now)
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}

	obs := observations[0]
	if obs.Sog != 5.2 || obs.Cog != 271.5 || obs.Heading != HeadingUnavailable {
		t.Errorf("kinematics not carried over: %+v", obs)
	}
}
