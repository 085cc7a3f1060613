package ais

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
)

// Normalizer converts raw feed records into canonical vessel observations,
// dropping malformed, out-of-area and stale records.
type Normalizer struct {
	bbox   config.BBoxConfig
	maxAge time.Duration
}

func NewNormalizer(bbox config.BBoxConfig, maxAge time.Duration) *Normalizer {
	return &Normalizer{
		bbox:   bbox,
		maxAge: maxAge,
	}
}

// Normalize filters and converts a raw position batch. names is the
// MMSI to display-name lookup, possibly incomplete. Per-record problems are
// skipped silently; they never abort the batch.
func (n *Normalizer) Normalize(features []Feature, names map[int]string, now time.Time) []VesselObservation {
	observations := make([]VesselObservation, 0, len(features))
	var malformed, outOfArea, stale int

	for _, feature := range features {
		if feature.Geometry.Type != "Point" || len(feature.Geometry.Coordinates) < 2 {
			malformed++
			continue
		}

		lon := feature.Geometry.Coordinates[0]
		lat := feature.Geometry.Coordinates[1]

		if lat < n.bbox.LatMin || lat > n.bbox.LatMax ||
			lon < n.bbox.LonMin || lon > n.bbox.LonMax {
			outOfArea++
			continue
		}

		mmsi := feature.MMSI
		if mmsi == 0 {
			mmsi = feature.Properties.MMSI
		}

		// A zero feed timestamp means the feed omitted per-record freshness;
		// such records are treated as always fresh.
		var observedAt time.Time
		if feature.Properties.TimestampExternal > 0 {
			observedAt = time.UnixMilli(feature.Properties.TimestampExternal)
			if now.Sub(observedAt) > n.maxAge {
				stale++
				continue
			}
		}

		observations = append(observations, VesselObservation{
			MMSI:       mmsi,
			Name:       resolveName(mmsi, feature.Properties.Name, names),
			Latitude:   lat,
			Longitude:  lon,
			Sog:        feature.Properties.Sog,
			Cog:        feature.Properties.Cog,
			Heading:    feature.Properties.Heading,
			ObservedAt: observedAt,
		})
	}

	log.Info().
		Int("kept", len(observations)).
		Int("malformed", malformed).
		Int("outOfArea", outOfArea).
		Int("stale", stale).
		Msg("Normalized AIS batch")

	return observations
}

// resolveName prefers the metadata lookup, then the feed-provided name, then
// a synthesized fallback.
func resolveName(mmsi int, feedName string, names map[int]string) string {
	if name, ok := names[mmsi]; ok && name != "" {
		return name
	}
	if feedName != "" {
		return feedName
	}
	return fmt.Sprintf("MMSI-%d", mmsi)
}
