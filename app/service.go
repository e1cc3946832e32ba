package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridsync/gridsync/auth"
	"github.com/gridsync/gridsync/config"
	"github.com/gridsync/gridsync/core/health"
	coremetrics "github.com/gridsync/gridsync/core/metrics"
	coremon "github.com/gridsync/gridsync/core/monitoring"
	"github.com/gridsync/gridsync/core/pipeline"
	"github.com/gridsync/gridsync/infra/logger"
	"github.com/gridsync/gridsync/infra/metrics"
	"github.com/gridsync/gridsync/infra/monitoring"
	"github.com/gridsync/gridsync/infra/mqtt"
	"github.com/gridsync/gridsync/infra/store"
	"github.com/gridsync/gridsync/market"
)

// Service wires the extraction client, the store and the ingestion pipeline.
type Service struct {
	Pipeline *pipeline.Pipeline
	Store    *store.Postgres
	Recorder *health.Recorder

	db          *sql.DB
	publisher   *mqtt.Publisher
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	db, err := store.Open(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := store.New(db, logger.New("store"))

	tokens := auth.NewTokenManager(auth.Conf{
		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
		TokenURL:     cfg.API.TokenURL,
	}, time.Duration(cfg.API.TokenMarginSeconds)*time.Second, logger.New("auth"))
	client := market.NewClient(cfg.API, tokens, logger.New("market"))

	sources := []pipeline.Source{
		market.NewPriceSource(market.NewPricesExtractor(client, cfg.API), repo),
		market.NewPlantSource(market.NewPlantExtractor(client), repo),
		market.NewSignalSource(market.NewSignalsExtractor(client, cfg.API), repo),
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	recorder := health.NewRecorder(repo, logger.New("health"))
	pipe := pipeline.New(pipeline.Config{
		Interval:     time.Duration(cfg.ETL.PollIntervalSeconds) * time.Second,
		CycleTimeout: time.Duration(cfg.ETL.CycleTimeoutSeconds) * time.Second,
	}, sources, recorder, sink, logger.New("pipeline"))

	svc := &Service{
		Pipeline:    pipe,
		Store:       repo,
		Recorder:    recorder,
		db:          db,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			// The broker is a convenience surface, never a startup dependency.
			logg.Errorf("mqtt publisher disabled: %v", err)
		} else {
			svc.publisher = pub
			pipe.OnCycleDone(pub.PublishCycle)
		}
	}
	return svc, nil
}

// Run starts the ingestion loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	return s.Pipeline.Run(ctx)
}

// RunOnce executes a single ingestion cycle and reports which sources, if
// any, failed.
func (s *Service) RunOnce(ctx context.Context) error {
	res := s.Pipeline.RunCycle(ctx)
	var errs []error
	for _, sr := range res.Results {
		if sr.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sr.Source, sr.Err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cycle %s finished degraded: %w", res.ID, errors.Join(errs...))
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	coremon.Flush(2 * time.Second)
	return s.db.Close()
}
