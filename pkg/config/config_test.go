package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Feed.LocationsURL != "https://meri.digitraffic.fi/api/ais/v1/locations" {
		t.Errorf("unexpected default locations URL: %s", cfg.Feed.LocationsURL)
	}
	if cfg.Geofence.MinSpeedKnots != 0.5 {
		t.Errorf("default min speed = %v, want 0.5", cfg.Geofence.MinSpeedKnots)
	}
	if cfg.Trails.Retention != 3*time.Hour {
		t.Errorf("default retention = %v, want 3h", cfg.Trails.Retention)
	}
	if cfg.Email.Cooldown != time.Hour {
		t.Errorf("default cooldown = %v, want 1h", cfg.Email.Cooldown)
	}
	if cfg.Monitor.Interval != 5*time.Minute {
		t.Errorf("default interval = %v, want 5m", cfg.Monitor.Interval)
	}
	if cfg.BBox.LatMin != 59.0 || cfg.BBox.LonMax != 27.0 {
		t.Errorf("unexpected default bounding box: %+v", cfg.BBox)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
geofence:
  path: keri.geojson
  min_speed_knots: 1.5
trails:
  retention: 6h
monitor:
  interval: 2m
export:
  reference_points:
    - name: Keri lighthouse
      latitude: 59.7178
      longitude: 25.0164
`
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Geofence.Path != "keri.geojson" {
		t.Errorf("geofence path = %s, want keri.geojson", cfg.Geofence.Path)
	}
	if cfg.Geofence.MinSpeedKnots != 1.5 {
		t.Errorf("min speed = %v, want 1.5", cfg.Geofence.MinSpeedKnots)
	}
	if cfg.Trails.Retention != 6*time.Hour {
		t.Errorf("retention = %v, want 6h", cfg.Trails.Retention)
	}
	if cfg.Monitor.Interval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", cfg.Monitor.Interval)
	}
	if len(cfg.Export.ReferencePoints) != 1 || cfg.Export.ReferencePoints[0].Name != "Keri lighthouse" {
		t.Errorf("unexpected reference points: %+v", cfg.Export.ReferencePoints)
	}

	// unset sections keep their defaults
	if cfg.Feed.RequestsPerMinute != 30 {
		t.Errorf("requests per minute = %d, want default 30", cfg.Feed.RequestsPerMinute)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	content := `
geofence:
  min_speed_knots: 1.5
`
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AIS_MIN_SPEED_KNOTS", "2.5")
	t.Setenv("AIS_EMAIL_PASSWORD", "hunter2")
	t.Setenv("AIS_CHECK_INTERVAL", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Geofence.MinSpeedKnots != 2.5 {
		t.Errorf("min speed = %v, want env override 2.5", cfg.Geofence.MinSpeedKnots)
	}
	if cfg.Email.Password != "hunter2" {
		t.Error("SMTP password should come from the environment")
	}
	if cfg.Monitor.Interval != 90*time.Second {
		t.Errorf("interval = %v, want 90s", cfg.Monitor.Interval)
	}
}

func TestPasswordNeverReadFromFile(t *testing.T) {
	content := `
email:
  password: leaked
`
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AIS_EMAIL_PASSWORD", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Email.Password != "" {
		t.Errorf("password = %q, want empty: file values must be ignored", cfg.Email.Password)
	}
}

func TestValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"inverted bbox", "bbox:\n  lat_min: 61.0\n  lat_max: 59.0\n"},
		{"negative speed", "geofence:\n  min_speed_knots: -1\n"},
		{"zero retention", "trails:\n  retention: 0s\n"},
		{"zero cooldown", "email:\n  cooldown: 0s\n"},
		{"zero interval", "monitor:\n  interval: 0s\n"},
		{"empty geofence path", "geofence:\n  path: \"\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
