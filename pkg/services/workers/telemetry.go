package workers

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
)

// TelemetryWorker audit-logs the per-cycle fleet summaries published by the
// monitor.
type TelemetryWorker struct {
	*BaseWorker
}

func NewTelemetryWorker(nc *nats.Conn, js nats.JetStreamContext) *TelemetryWorker {
	return &TelemetryWorker{
		BaseWorker: NewBaseWorker(
			"TelemetryWorker",
			nc,
			js,
			shared.StreamTelemetry,
			shared.ConsumerTelemetryAuditor,
			shared.SubjectTelemetryAll,
		),
	}
}

func (w *TelemetryWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, func(msg *nats.Msg) {
		var event shared.CycleEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().Str("worker", w.Name()).Str("data", string(msg.Data)).Msg("Unparseable cycle event")
			return
		}

		log.Info().
			Str("worker", w.Name()).
			Str("event", event.ID).
			Int("vessels", event.Vessels).
			Int("breaches", event.Breaches).
			Int("alertsSent", event.AlertsSent).
			Int64("durationMs", event.DurationMS).
			Msg("Cycle complete")
	})
}
