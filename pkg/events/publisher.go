package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	embeddednats "github.com/villu-ctrl/keri-ais-monitor/pkg/services/embedded-nats"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
)

// Publisher writes monitor events onto the JetStream bus. Event IDs double
// as NATS message IDs so redeliveries deduplicate inside the stream's
// duplicate window.
type Publisher struct {
	bus *embeddednats.EmbeddedNATS
}

func NewPublisher(bus *embeddednats.EmbeddedNATS) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) PublishAlert(event shared.AlertEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	return p.bus.PublishWithDedup(shared.AlertBreachSubject(event.MMSI), data, event.ID)
}

func (p *Publisher) PublishCycle(event shared.CycleEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle event: %w", err)
	}

	return p.bus.PublishWithDedup(shared.SubjectTelemetryCycle, data, event.ID)
}

// NoopSink satisfies the monitor's event sink when the bus is disabled,
// e.g. in single-run mode.
type NoopSink struct{}

func (NoopSink) PublishAlert(shared.AlertEvent) error { return nil }
func (NoopSink) PublishCycle(shared.CycleEvent) error { return nil }
