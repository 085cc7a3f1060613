package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	embeddednats "github.com/villu-ctrl/keri-ais-monitor/pkg/services/embedded-nats"
)

type Manager struct {
	workers []Worker
	nc      *nats.Conn
	js      nats.JetStreamContext
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewManager(natsClient *embeddednats.EmbeddedNATS) (*Manager, error) {
	nc := natsClient.Connection()
	if nc == nil {
		return nil, fmt.Errorf("NATS connection not initialized")
	}

	js := natsClient.JetStream()
	if js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		nc:     nc,
		js:     js,
		ctx:    ctx,
		cancel: cancel,
		workers: []Worker{
			NewAlertWorker(nc, js),
			NewTelemetryWorker(nc, js),
		},
	}, nil
}

func (m *Manager) Start() error {
	for _, worker := range m.workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			if err := w.Start(m.ctx); err != nil && err != context.Canceled {
				log.Error().Str("worker", w.Name()).Err(err).Msg("Worker error")
			}
			log.Debug().Str("worker", w.Name()).Msg("Worker stopped")
		}(worker)
	}

	log.Info().Int("count", len(m.workers)).Msg("Started workers")
	return nil
}

func (m *Manager) Stop() error {
	m.cancel()

	for _, worker := range m.workers {
		if err := worker.Stop(); err != nil {
			log.Error().Str("worker", worker.Name()).Err(err).Msg("Error stopping worker")
		}
	}

	m.wg.Wait()

	log.Info().Msg("All workers stopped")
	return nil
}
