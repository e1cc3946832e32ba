package metrics

import "time"

// ExtractionEvent captures the terminal outcome of one logical upstream call,
// after all retries for that call have run.
type ExtractionEvent struct {
	Endpoint   string
	StatusCode int
	Success    bool
	// ErrorClass carries the terminal failure classification, empty on success.
	ErrorClass string
	Duration   time.Duration
	Time       time.Time
}

// RowsLoadedEvent records a persisted batch for one source.
type RowsLoadedEvent struct {
	Source string
	Rows   int
	Time   time.Time
}

// CycleEvent summarizes one ingestion cycle across all sources.
type CycleEvent struct {
	CycleID  string        `json:"cycle_id"`
	Sources  int           `json:"sources"`
	Failures int           `json:"failures"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
	Time     time.Time     `json:"time"`
}

// Sink records ingestion events for observability purposes.
type Sink interface {
	RecordExtraction(ev ExtractionEvent) error
	RecordRowsLoaded(ev RowsLoadedEvent) error
	RecordCycle(ev CycleEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordExtraction(ExtractionEvent) error { return nil }
func (NopSink) RecordRowsLoaded(RowsLoadedEvent) error { return nil }
func (NopSink) RecordCycle(CycleEvent) error           { return nil }
