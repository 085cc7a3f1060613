package trails

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/villu-ctrl/keri-ais-monitor/db"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	service, err := db.New(&db.Config{
		DBPath:         filepath.Join(t.TempDir(), "trails.db"),
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		AutoInitialize: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { service.Close() })

	if err := service.VerifySchema(); err != nil {
		t.Fatalf("schema not initialized: %v", err)
	}

	return NewStore(service.GetDB())
}

func observation(mmsi int, lat, lon float64) ais.VesselObservation {
	return ais.VesselObservation{
		MMSI:      mmsi,
		Name:      "TEST VESSEL",
		Latitude:  lat,
		Longitude: lon,
		Sog:       4.2,
		Cog:       180,
	}
}

func (s *Store) countRecords(t *testing.T) int {
	t.Helper()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM positions`).Scan(&count); err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	return count
}

func TestAppendUpsertsByIngestionInstant(t *testing.T) {
	store := newTestStore(t)
	asOf := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	obs := []ais.VesselObservation{observation(230123000, 59.70, 25.00)}
	if err := store.Append(obs, asOf); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// Re-insertion of the same instant overwrites, never duplicates.
	moved := []ais.VesselObservation{observation(230123000, 59.71, 25.01)}
	if err := store.Append(moved, asOf); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	if got := store.countRecords(t); got != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", got)
	}
}

func TestReconstructTrailsOrdersByTimestamp(t *testing.T) {
	store := newTestStore(t)
	first := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Minute)

	// Append the later cycle first to prove ordering comes from the store,
	// not insertion order.
	if err := store.Append([]ais.VesselObservation{observation(230123000, 59.72, 25.02)}, second); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Append([]ais.VesselObservation{observation(230123000, 59.70, 25.00)}, first); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// A vessel with a single record produces no trail.
	if err := store.Append([]ais.VesselObservation{observation(230999000, 59.60, 24.50)}, second); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	trails, err := store.ReconstructTrails()
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}

	if len(trails) != 1 {
		t.Fatalf("expected exactly 1 trail, got %d", len(trails))
	}

	trail := trails[0]
	if trail.MMSI != 230123000 || trail.Points != 2 {
		t.Fatalf("unexpected trail: %+v", trail)
	}

	if trail.Coordinates[0] != [2]float64{25.00, 59.70} ||
		trail.Coordinates[1] != [2]float64{25.02, 59.72} {
		t.Errorf("trail not in timestamp order: %v", trail.Coordinates)
	}

	if !trail.Start.Equal(first) || !trail.End.Equal(second) {
		t.Errorf("trail metadata wrong: start=%v end=%v", trail.Start, trail.End)
	}
}

func TestPruneRemovesOnlyExpiredRecords(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	old := now.Add(-4 * time.Hour)
	recent := now.Add(-1 * time.Hour)

	if err := store.Append([]ais.VesselObservation{observation(1, 59.7, 25.0)}, old); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Append([]ais.VesselObservation{observation(1, 59.71, 25.01)}, recent); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	deleted, err := store.Prune(3*time.Hour, now)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	if deleted != 1 {
		t.Errorf("expected 1 deleted record, got %d", deleted)
	}

	if got := store.countRecords(t); got != 1 {
		t.Errorf("expected 1 surviving record, got %d", got)
	}
}
