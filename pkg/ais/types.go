package ais

import "time"

// HeadingUnavailable is the AIS sentinel for a missing true heading.
const HeadingUnavailable = 511

// VesselObservation is one vessel's state at one reporting instant, after
// normalization. Immutable; rebuilt fresh each polling cycle.
type VesselObservation struct {
	MMSI       int
	Name       string
	Latitude   float64
	Longitude  float64
	Sog        float64   // speed over ground, knots
	Cog        float64   // course over ground, degrees
	Heading    int       // degrees 0-359, or HeadingUnavailable
	ObservedAt time.Time // feed-reported instant; zero when the feed omits it
}

// FeatureCollection is the digitraffic locations payload.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one raw position record from the feed.
type Feature struct {
	Type       string            `json:"type"`
	MMSI       int               `json:"mmsi"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type FeatureProperties struct {
	MMSI              int     `json:"mmsi"`
	Name              string  `json:"name"`
	Sog               float64 `json:"sog"`
	Cog               float64 `json:"cog"`
	Heading           int     `json:"heading"`
	NavStat           int     `json:"navStat"`
	TimestampExternal int64   `json:"timestampExternal"` // ms since epoch, 0 when absent
}

// VesselMetadata is one entry of the digitraffic vessels payload.
type VesselMetadata struct {
	MMSI     int    `json:"mmsi"`
	Name     string `json:"name"`
	ShipType int    `json:"shipType"`
	CallSign string `json:"callSign"`
	IMO      int    `json:"imo"`
}
