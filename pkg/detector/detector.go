package detector

import (
	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/geofence"
)

// Detector classifies observations against the restricted area. An
// observation is a breach only when it is inside the area AND moving at or
// above the minimum speed; an anchored or moored vessel inside the area is
// benign.
type Detector struct {
	area          *geofence.Polygon
	minSpeedKnots float64
}

func New(area *geofence.Polygon, minSpeedKnots float64) *Detector {
	return &Detector{
		area:          area,
		minSpeedKnots: minSpeedKnots,
	}
}

// Result partitions one cycle's observations.
type Result struct {
	Breaches []ais.VesselObservation
	Benign   []ais.VesselObservation
}

// Detect evaluates the current cycle's observations. Speed is taken from the
// same observation as the position, never from history.
func (d *Detector) Detect(observations []ais.VesselObservation) Result {
	var result Result

	for _, obs := range observations {
		if !d.area.Contains(obs.Longitude, obs.Latitude) {
			continue
		}

		if obs.Sog >= d.minSpeedKnots {
			result.Breaches = append(result.Breaches, obs)
			log.Warn().
				Int("mmsi", obs.MMSI).
				Str("name", obs.Name).
				Float64("sog", obs.Sog).
				Msg("BREACH: vessel underway in restricted area")
		} else {
			result.Benign = append(result.Benign, obs)
			log.Info().
				Int("mmsi", obs.MMSI).
				Str("name", obs.Name).
				Float64("sog", obs.Sog).
				Msg("Vessel in restricted area below speed threshold, treating as anchored")
		}
	}

	return result
}
