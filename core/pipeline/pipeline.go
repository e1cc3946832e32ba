package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsync/gridsync/core/logger"
	"github.com/gridsync/gridsync/core/metrics"
	"github.com/gridsync/gridsync/core/model"
	"github.com/gridsync/gridsync/core/monitoring"
)

// Source is one upstream data feed: extraction yields a normalized batch
// ready for persistence.
type Source interface {
	Name() string
	Endpoint() string
	Extract(ctx context.Context) (Batch, error)
}

// Batch is a normalized set of rows whose persistence is deferred until the
// source's health outcome has been recorded.
type Batch interface {
	Len() int
	Persist(ctx context.Context) (int, error)
}

// Recorder receives one health record per logical upstream call.
type Recorder interface {
	Record(ctx context.Context, rec model.HealthRecord)
}

// Classifier is implemented by errors that carry an upstream failure
// classification.
type Classifier interface {
	Classification() string
	HTTPStatus() int
}

// Config defines the cycle cadence.
type Config struct {
	Interval time.Duration
	// CycleTimeout abandons still-pending calls once exceeded so a slow
	// cycle never blocks the next tick indefinitely.
	CycleTimeout time.Duration
	// TokenEndpoint is attributed on health records when the credential
	// exchange itself fails.
	TokenEndpoint string
}

// Pipeline drives ingestion cycles across the configured sources. Cycles
// never overlap: a tick that arrives while a cycle is running is skipped.
type Pipeline struct {
	cfg      Config
	sources  []Source
	recorder Recorder
	sink     metrics.Sink
	log      logger.Logger

	// notify, when set, receives the summary of every completed cycle.
	notify func(metrics.CycleEvent)

	cycleMu sync.Mutex
}

// New creates a Pipeline. A nil sink defaults to NopSink.
func New(cfg Config, sources []Source, recorder Recorder, sink metrics.Sink, log logger.Logger) *Pipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = "/oauth/token"
	}
	return &Pipeline{cfg: cfg, sources: sources, recorder: recorder, sink: sink, log: log}
}

// OnCycleDone registers a callback invoked after every completed cycle.
func (p *Pipeline) OnCycleDone(fn func(metrics.CycleEvent)) { p.notify = fn }

// SourceResult is the outcome of one source within a cycle.
type SourceResult struct {
	Source string
	Rows   int
	Err    error
}

// CycleResult is the outcome of one cycle.
type CycleResult struct {
	ID       string
	Skipped  bool
	Duration time.Duration
	Results  []SourceResult
}

// Run executes one cycle immediately, then one per interval until the
// context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Infof("starting ingestion loop, interval %s", p.cfg.Interval)
	p.RunCycle(ctx)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Infof("ingestion loop stopped")
			return nil
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle executes a single ingestion cycle: all sources run concurrently,
// each isolated from the others' failures. If a cycle is already in
// progress the call is skipped.
func (p *Pipeline) RunCycle(ctx context.Context) CycleResult {
	if !p.cycleMu.TryLock() {
		p.log.Warnf("previous cycle still running, tick skipped")
		return CycleResult{Skipped: true}
	}
	defer p.cycleMu.Unlock()

	id := uuid.NewString()
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, p.cfg.CycleTimeout)
	defer cancel()

	p.log.Infof("cycle %s started, %d sources", id, len(p.sources))

	results := make([]SourceResult, len(p.sources))
	var wg sync.WaitGroup
	for i, src := range p.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			// recover must run directly in this deferred func to contain
			// a panicking source without taking the process down.
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("source %s panicked: %v", src.Name(), r)
					monitoring.CaptureException(err, map[string]string{"source": src.Name()})
					p.log.Errorf("source %s panicked: %v", src.Name(), r)
					results[i] = SourceResult{Source: src.Name(), Err: err}
				}
			}()
			results[i] = p.runSource(cctx, src)
		}(i, src)
	}
	wg.Wait()

	elapsed := time.Since(start)
	ev := metrics.CycleEvent{CycleID: id, Sources: len(p.sources), Duration: elapsed, Time: start.UTC()}
	for _, res := range results {
		ev.Rows += res.Rows
		if res.Err != nil {
			ev.Failures++
		}
	}
	if err := p.sink.RecordCycle(ev); err != nil {
		p.log.Errorf("record cycle metrics: %v", err)
	}
	if p.notify != nil {
		p.notify(ev)
	}
	p.log.Infof("cycle %s done in %s: %d rows, %d/%d sources failed",
		id, elapsed.Round(time.Millisecond), ev.Rows, ev.Failures, ev.Sources)
	return CycleResult{ID: id, Duration: elapsed, Results: results}
}

// runSource performs extract, health recording and persistence for one
// source. Persistence runs after the health record because the record
// describes the upstream call, not the store write; a failed write leaves
// the rows eligible for re-submission on the next cycle.
func (p *Pipeline) runSource(ctx context.Context, src Source) SourceResult {
	res := SourceResult{Source: src.Name()}

	start := time.Now()
	batch, err := src.Extract(ctx)
	elapsed := time.Since(start)

	rec := model.HealthRecord{
		Endpoint:       src.Endpoint(),
		ResponseTimeMS: elapsed.Milliseconds(),
		CheckedAt:      time.Now().UTC(),
	}
	if err != nil {
		class, code := classify(err)
		if class == "auth_error" {
			// The token endpoint itself failed, not the source endpoint.
			rec.Endpoint = p.cfg.TokenEndpoint
		}
		rec.StatusCode = code
		rec.ErrorMessage = class + ": " + err.Error()
		p.recorder.Record(ctx, rec)
		p.sink.RecordExtraction(metrics.ExtractionEvent{
			Endpoint: rec.Endpoint, StatusCode: code, ErrorClass: class, Duration: elapsed, Time: rec.CheckedAt,
		})
		monitoring.CaptureException(err, map[string]string{"source": src.Name()})
		p.log.Errorf("source %s failed after %s: %v", src.Name(), elapsed.Round(time.Millisecond), err)
		res.Err = err
		return res
	}

	rec.Success = true
	rec.StatusCode = 200
	p.recorder.Record(ctx, rec)
	p.sink.RecordExtraction(metrics.ExtractionEvent{
		Endpoint: rec.Endpoint, StatusCode: 200, Success: true, Duration: elapsed, Time: rec.CheckedAt,
	})

	rows, err := batch.Persist(ctx)
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"source": src.Name()})
		p.log.Errorf("source %s: persisting %d rows failed, deferred to next cycle: %v", src.Name(), batch.Len(), err)
		res.Err = err
		return res
	}
	res.Rows = rows
	p.sink.RecordRowsLoaded(metrics.RowsLoadedEvent{Source: src.Name(), Rows: rows, Time: time.Now().UTC()})
	p.log.Infof("source %s: %d rows loaded in %s", src.Name(), rows, elapsed.Round(time.Millisecond))
	return res
}

// classify extracts the failure classification and status code from a
// terminal extraction error.
func classify(err error) (string, int) {
	var cls Classifier
	if errors.As(err, &cls) {
		return cls.Classification(), cls.HTTPStatus()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", 0
	}
	return "error", 0
}
