package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/villu-ctrl/keri-ais-monitor/api"
	"github.com/villu-ctrl/keri-ais-monitor/api/middleware"
	"github.com/villu-ctrl/keri-ais-monitor/db"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/alerting"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/detector"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/events"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/export"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/geofence"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/monitor"
	embeddednats "github.com/villu-ctrl/keri-ais-monitor/pkg/services/embedded-nats"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/services/workers"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/trails"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded configuration from .env file")
	}

	if os.Getenv("AIS_LOG_FORMAT") != "JSON" {
		output := zerolog.ConsoleWriter{Out: os.Stdout}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	if os.Getenv("AIS_DEBUG") == "YES" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:  "ais-monitor",
		Usage: "watches AIS traffic around the Keri restricted area and alerts on breaches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the monitor as a long lived service",
				Action: runService,
			},
			{
				Name:   "check",
				Usage:  "run a single monitoring cycle and exit",
				Action: runOnce,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func runService(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	dbService, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer dbService.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink monitor.EventSink = events.NoopSink{}
	var bus *embeddednats.EmbeddedNATS
	var workerManager *workers.Manager

	if cfg.Bus.Enabled {
		bus, workerManager, err = startBus(cfg)
		if err != nil {
			return err
		}
		sink = events.NewPublisher(bus)
	}

	mon, err := buildMonitor(cfg, dbService, sink)
	if err != nil {
		return err
	}

	var server *http.Server
	if cfg.API.Enabled {
		server = startStatusServer(cfg, dbService, bus, mon)
	}

	log.Info().
		Str("geofence", cfg.Geofence.Path).
		Dur("interval", cfg.Monitor.Interval).
		Msg("Monitor starting")

	err = mon.Run(ctx)
	if err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Monitor exited")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down status server gracefully")
		}
	}

	if workerManager != nil {
		if err := workerManager.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop workers")
		}
	}

	if bus != nil {
		if err := bus.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down event bus")
		}
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

func runOnce(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	dbService, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer dbService.Close()

	mon, err := buildMonitor(cfg, dbService, events.NoopSink{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mon.RunOnce(ctx)
}

func openDatabase(cfg *config.Config) (*db.Service, error) {
	dbConfig := db.DefaultConfig()
	dbConfig.DBPath = cfg.Trails.DBPath

	dbService, err := db.New(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := dbService.VerifySchema(); err != nil {
		if err := dbService.InitializeSchema(); err != nil {
			dbService.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return dbService, nil
}

func startBus(cfg *config.Config) (*embeddednats.EmbeddedNATS, *workers.Manager, error) {
	busConfig := embeddednats.DefaultConfig()
	busConfig.Port = cfg.Bus.Port
	busConfig.DataDir = cfg.Bus.DataDir

	bus, err := embeddednats.New(busConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedded event bus: %w", err)
	}

	if err := bus.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded event bus: %w", err)
	}

	if err := bus.CreateMonitorStreams(); err != nil {
		return nil, nil, fmt.Errorf("failed to create streams: %w", err)
	}

	consumers := []struct {
		stream   string
		consumer string
		filter   string
	}{
		{shared.StreamAlerts, shared.ConsumerAlertAuditor, shared.SubjectAlertsAll},
		{shared.StreamTelemetry, shared.ConsumerTelemetryAuditor, shared.SubjectTelemetryAll},
	}

	for _, c := range consumers {
		if err := bus.CreateDurableConsumer(c.stream, c.consumer, c.filter); err != nil {
			return nil, nil, fmt.Errorf("failed to create consumer %s: %w", c.consumer, err)
		}
	}

	workerManager, err := workers.NewManager(bus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create worker manager: %w", err)
	}

	if err := workerManager.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start workers: %w", err)
	}

	return bus, workerManager, nil
}

func buildMonitor(cfg *config.Config, dbService *db.Service, sink monitor.EventSink) (*monitor.Monitor, error) {
	area, err := geofence.Load(cfg.Geofence.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load geofence: %w", err)
	}

	refPoints := make([]export.ReferencePoint, 0, len(cfg.Export.ReferencePoints))
	for _, p := range cfg.Export.ReferencePoints {
		refPoints = append(refPoints, export.ReferencePoint{
			Name:      p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
	}

	return monitor.New(
		cfg.Monitor,
		cfg.Trails.Retention,
		ais.NewClient(cfg.Feed),
		ais.NewNormalizer(cfg.BBox, cfg.Feed.FreshnessMaxAge),
		trails.NewStore(dbService.GetDB()),
		detector.New(area, cfg.Geofence.MinSpeedKnots),
		alerting.NewCooldownGate(cfg.Email.Cooldown),
		alerting.NewMailer(cfg.Email),
		export.NewWriter(cfg.Export.Directory, cfg.Geofence.Path, refPoints),
		sink,
	), nil
}

func startStatusServer(cfg *config.Config, dbService *db.Service, bus *embeddednats.EmbeddedNATS, mon *monitor.Monitor) *http.Server {
	mux := http.NewServeMux()

	handlers := api.NewHandlers(dbService, bus, mon, cfg.Export.Directory)
	handlers.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      middleware.CORS(middleware.RequestLogger(mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.API.ListenAddr).Msg("Status server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()

	return server
}
