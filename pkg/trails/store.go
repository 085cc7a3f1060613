package trails

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
)

// Timestamps are stored as RFC3339 UTC strings so lexicographic comparison
// in SQL matches chronological order.
const timeLayout = time.RFC3339

// Store owns the persisted position history. All mutation goes through
// Append and Prune; ReconstructTrails never mutates.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// Trail is one vessel's ordered path within the retention horizon.
type Trail struct {
	MMSI        int
	Coordinates [][2]float64 // lon, lat order
	Points      int
	Start       time.Time
	End         time.Time
}

// Append upserts one position record per observation, keyed by
// (mmsi, asOf). The ingestion instant is the key, not the feed timestamp,
// so observations ingested in the same cycle collapse to one record per
// vessel per cycle.
func (s *Store) Append(observations []ais.VesselObservation, asOf time.Time) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO positions (mmsi, timestamp, lat, lon, sog, cog)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := asOf.UTC().Format(timeLayout)
	for _, obs := range observations {
		if _, err := stmt.Exec(obs.MMSI, ts, obs.Latitude, obs.Longitude, obs.Sog, obs.Cog); err != nil {
			return fmt.Errorf("failed to save position for MMSI %d: %w", obs.MMSI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit positions: %w", err)
	}

	return nil
}

// Prune deletes every record older than now - retention and returns the
// number of deleted records.
func (s *Store) Prune(retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention).UTC().Format(timeLayout)

	result, err := s.db.Exec(`DELETE FROM positions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune positions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned positions: %w", err)
	}

	if deleted > 0 {
		log.Debug().Int64("deleted", deleted).Str("cutoff", cutoff).Msg("Pruned old positions")
	}

	return deleted, nil
}

// ReconstructTrails returns an ordered path for every vessel with more than
// one stored record. A single point cannot form a path, so vessels with one
// record are excluded.
func (s *Store) ReconstructTrails() ([]Trail, error) {
	rows, err := s.db.Query(
		`SELECT mmsi FROM positions GROUP BY mmsi HAVING COUNT(*) > 1 ORDER BY mmsi`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trail vessels: %w", err)
	}
	defer rows.Close()

	var mmsis []int
	for rows.Next() {
		var mmsi int
		if err := rows.Scan(&mmsi); err != nil {
			return nil, fmt.Errorf("failed to scan mmsi: %w", err)
		}
		mmsis = append(mmsis, mmsi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trail vessels: %w", err)
	}

	trails := make([]Trail, 0, len(mmsis))
	for _, mmsi := range mmsis {
		trail, err := s.reconstructTrail(mmsi)
		if err != nil {
			return nil, err
		}
		trails = append(trails, trail)
	}

	return trails, nil
}

func (s *Store) reconstructTrail(mmsi int) (Trail, error) {
	rows, err := s.db.Query(
		`SELECT lat, lon, timestamp FROM positions WHERE mmsi = ? ORDER BY timestamp`,
		mmsi,
	)
	if err != nil {
		return Trail{}, fmt.Errorf("failed to query trail for MMSI %d: %w", mmsi, err)
	}
	defer rows.Close()

	trail := Trail{MMSI: mmsi}
	for rows.Next() {
		var lat, lon float64
		var ts string
		if err := rows.Scan(&lat, &lon, &ts); err != nil {
			return Trail{}, fmt.Errorf("failed to scan position for MMSI %d: %w", mmsi, err)
		}

		instant, err := time.Parse(timeLayout, ts)
		if err != nil {
			return Trail{}, fmt.Errorf("corrupt timestamp %q for MMSI %d: %w", ts, mmsi, err)
		}

		if trail.Points == 0 {
			trail.Start = instant
		}
		trail.End = instant
		trail.Coordinates = append(trail.Coordinates, [2]float64{lon, lat})
		trail.Points++
	}
	if err := rows.Err(); err != nil {
		return Trail{}, fmt.Errorf("failed to iterate trail for MMSI %d: %w", mmsi, err)
	}

	return trail, nil
}
