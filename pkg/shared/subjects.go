package shared

import "fmt"

// NATS subject patterns
const (
	// Base subject prefix
	SubjectPrefix = "keri"

	// Alert subjects
	SubjectAlerts      = "keri.alerts"
	SubjectAlertsAll   = "keri.alerts.>"
	SubjectAlertBreach = "keri.alerts.%d.breach" // mmsi

	// Telemetry subjects
	SubjectTelemetry      = "keri.telemetry"
	SubjectTelemetryAll   = "keri.telemetry.>"
	SubjectTelemetryCycle = "keri.telemetry.cycle"
)

// Stream names
const (
	StreamAlerts    = "KERI_ALERTS"
	StreamTelemetry = "KERI_TELEMETRY"
)

// Consumer names
const (
	ConsumerAlertAuditor     = "alert-auditor"
	ConsumerTelemetryAuditor = "telemetry-auditor"
)

// AlertBreachSubject returns the breach alert subject for a vessel.
func AlertBreachSubject(mmsi int) string {
	return fmt.Sprintf(SubjectAlertBreach, mmsi)
}
