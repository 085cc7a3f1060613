package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/alerting"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/detector"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/trails"
)

// Feed delivers raw AIS data from the upstream provider.
type Feed interface {
	FetchLocations(ctx context.Context) ([]ais.Feature, error)
	FetchVesselNames(ctx context.Context) (map[int]string, error)
}

// TrailStore persists position history and reconstructs movement trails.
type TrailStore interface {
	Append(observations []ais.VesselObservation, asOf time.Time) error
	Prune(retention time.Duration, now time.Time) (int64, error)
	ReconstructTrails() ([]trails.Trail, error)
}

// Exporter writes the current traffic picture to disk.
type Exporter interface {
	Export(observations []ais.VesselObservation, trailList []trails.Trail) error
}

// EventSink receives alert and cycle events for downstream consumers.
type EventSink interface {
	PublishAlert(event shared.AlertEvent) error
	PublishCycle(event shared.CycleEvent) error
}

// Monitor runs the fetch, persist, detect, alert, export cycle.
type Monitor struct {
	cfg        config.MonitorConfig
	retention  time.Duration
	feed       Feed
	normalizer *ais.Normalizer
	store      TrailStore
	detector   *detector.Detector
	gate       *alerting.CooldownGate
	notifier   alerting.Notifier
	exporter   Exporter
	events     EventSink

	// vessel names change rarely, so the lookup is fetched once and kept.
	names map[int]string

	now func() time.Time

	mu       sync.Mutex
	last     shared.CycleSummary
	hasCycle bool
}

func New(
	cfg config.MonitorConfig,
	retention time.Duration,
	feed Feed,
	normalizer *ais.Normalizer,
	store TrailStore,
	det *detector.Detector,
	gate *alerting.CooldownGate,
	notifier alerting.Notifier,
	exporter Exporter,
	events EventSink,
) *Monitor {
	return &Monitor{
		cfg:        cfg,
		retention:  retention,
		feed:       feed,
		normalizer: normalizer,
		store:      store,
		detector:   det,
		gate:       gate,
		notifier:   notifier,
		exporter:   exporter,
		events:     events,
		now:        time.Now,
	}
}

// LastCycle returns the most recent cycle summary, if any cycle has run.
func (m *Monitor) LastCycle() (shared.CycleSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasCycle
}

// RunOnce executes a single monitoring cycle. An unreachable feed ends the
// cycle early without error; anything else is reported to the caller.
func (m *Monitor) RunOnce(ctx context.Context) error {
	started := m.now()

	features, err := m.feed.FetchLocations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Feed unavailable, skipping cycle")
		m.record(shared.CycleSummary{
			StartedAt:  started,
			FinishedAt: m.now(),
			Error:      err.Error(),
		})
		return nil
	}

	if m.names == nil {
		names, err := m.feed.FetchVesselNames(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Vessel name lookup unavailable")
		} else {
			m.names = names
		}
	}

	observations := m.normalizer.Normalize(features, m.names, started)

	if len(observations) == 0 {
		log.Info().Msg("No vessels in the monitored area")
		m.record(shared.CycleSummary{
			StartedAt:  started,
			FinishedAt: m.now(),
		})
		return nil
	}

	if err := m.store.Append(observations, started); err != nil {
		return fmt.Errorf("failed to save positions: %w", err)
	}

	pruned, err := m.store.Prune(m.retention, started)
	if err != nil {
		return fmt.Errorf("failed to prune positions: %w", err)
	}

	result := m.detector.Detect(observations)

	trailList, err := m.store.ReconstructTrails()
	if err != nil {
		return fmt.Errorf("failed to reconstruct trails: %w", err)
	}

	if err := m.exporter.Export(observations, trailList); err != nil {
		return fmt.Errorf("failed to export traffic picture: %w", err)
	}

	alertsSent := m.dispatchAlerts(ctx, result.Breaches)

	finished := m.now()
	summary := shared.CycleSummary{
		StartedAt:  started,
		FinishedAt: finished,
		Vessels:    len(observations),
		Breaches:   len(result.Breaches),
		Benign:     len(result.Benign),
		AlertsSent: alertsSent,
		Trails:     len(trailList),
		Pruned:     pruned,
	}
	m.record(summary)

	if err := m.events.PublishCycle(shared.CycleEvent{
		StartedAt:  started,
		DurationMS: finished.Sub(started).Milliseconds(),
		Vessels:    summary.Vessels,
		Breaches:   summary.Breaches,
		Benign:     summary.Benign,
		AlertsSent: summary.AlertsSent,
		Trails:     summary.Trails,
		Pruned:     summary.Pruned,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish cycle event")
	}

	log.Info().
		Int("vessels", summary.Vessels).
		Int("breaches", summary.Breaches).
		Int("alertsSent", summary.AlertsSent).
		Int("trails", summary.Trails).
		Int64("pruned", summary.Pruned).
		Dur("duration", finished.Sub(started)).
		Msg("Cycle complete")

	return nil
}

// dispatchAlerts sends a notification per breaching vessel, honoring the
// cooldown. The cooldown is recorded only after a successful send so a
// failed notification is retried on the next cycle.
func (m *Monitor) dispatchAlerts(ctx context.Context, breaches []ais.VesselObservation) int {
	sent := 0

	for _, breach := range breaches {
		now := m.now()

		if !m.gate.ShouldAlert(breach.MMSI, now) {
			log.Debug().Int("mmsi", breach.MMSI).Str("name", breach.Name).Msg("Alert suppressed by cooldown")
			continue
		}

		if err := m.notifier.Notify(ctx, breach); err != nil {
			log.Error().Int("mmsi", breach.MMSI).Str("name", breach.Name).Err(err).Msg("Failed to send alert")
			continue
		}

		sentAt := m.now()
		m.gate.RecordSent(breach.MMSI, sentAt)
		sent++

		if err := m.events.PublishAlert(shared.AlertEvent{
			MMSI:      breach.MMSI,
			Name:      breach.Name,
			Latitude:  breach.Latitude,
			Longitude: breach.Longitude,
			Sog:       breach.Sog,
			Cog:       breach.Cog,
			SentAt:    sentAt,
		}); err != nil {
			log.Warn().Int("mmsi", breach.MMSI).Err(err).Msg("Failed to publish alert event")
		}
	}

	return sent
}

// Run executes cycles until the context is cancelled. Failed cycles back off
// exponentially starting from the configured error backoff; a successful
// cycle resets the schedule to the normal interval.
func (m *Monitor) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.cfg.ErrorBackoff
	bo.MaxInterval = 15 * time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		var wait time.Duration

		if err := m.safeRunOnce(ctx); err != nil {
			wait = bo.NextBackOff()
			log.Error().Err(err).Dur("retryIn", wait).Msg("Cycle failed")
		} else {
			bo.Reset()
			wait = m.cfg.Interval
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Monitor stopping")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// safeRunOnce converts a panicking cycle into an error so one bad payload
// cannot take the whole monitor down.
func (m *Monitor) safeRunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	return m.RunOnce(ctx)
}

func (m *Monitor) record(summary shared.CycleSummary) {
	m.mu.Lock()
	m.last = summary
	m.hasCycle = true
	m.mu.Unlock()
}
