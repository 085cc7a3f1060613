package shared

import "time"

// AlertEvent is published on the alert stream after a breach notification
// has been dispatched successfully.
type AlertEvent struct {
	ID        string    `json:"id"`
	MMSI      int       `json:"mmsi"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Sog       float64   `json:"sog"`
	Cog       float64   `json:"cog"`
	SentAt    time.Time `json:"sent_at"`
}

// CycleEvent is published on the telemetry stream after every completed
// monitoring cycle.
type CycleEvent struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Vessels    int       `json:"vessels"`
	Breaches   int       `json:"breaches"`
	Benign     int       `json:"benign"`
	AlertsSent int       `json:"alerts_sent"`
	Trails     int       `json:"trails"`
	Pruned     int64     `json:"pruned"`
}

// CycleSummary is the latest cycle outcome, kept in memory for the status API.
type CycleSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Vessels    int       `json:"vessels"`
	Breaches   int       `json:"breaches"`
	Benign     int       `json:"benign"`
	AlertsSent int       `json:"alerts_sent"`
	Trails     int       `json:"trails"`
	Pruned     int64     `json:"pruned"`
	Error      string    `json:"error,omitempty"`
}

// Response is the envelope for all status API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthStatus is the aggregated health report served at /healthz.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details"`
}
