package workers

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
)

// AlertWorker audit-logs every dispatched breach alert so the alert history
// survives in the stream and the process log.
type AlertWorker struct {
	*BaseWorker
}

func NewAlertWorker(nc *nats.Conn, js nats.JetStreamContext) *AlertWorker {
	return &AlertWorker{
		BaseWorker: NewBaseWorker(
			"AlertWorker",
			nc,
			js,
			shared.StreamAlerts,
			shared.ConsumerAlertAuditor,
			shared.SubjectAlertsAll,
		),
	}
}

func (w *AlertWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, func(msg *nats.Msg) {
		var event shared.AlertEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().Str("worker", w.Name()).Str("data", string(msg.Data)).Msg("Unparseable alert event")
			return
		}

		log.Info().
			Str("worker", w.Name()).
			Str("event", event.ID).
			Int("mmsi", event.MMSI).
			Str("name", event.Name).
			Float64("sog", event.Sog).
			Msg("Breach alert dispatched")
	})
}
