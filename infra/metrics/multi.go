package metrics

import coremetrics "github.com/gridsync/gridsync/core/metrics"

// MultiSink fans ingestion events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordExtraction forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordExtraction(ev coremetrics.ExtractionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordExtraction(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRowsLoaded forwards the event to all sinks.
func (m *MultiSink) RecordRowsLoaded(ev coremetrics.RowsLoadedEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRowsLoaded(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycle forwards the event to all sinks.
func (m *MultiSink) RecordCycle(ev coremetrics.CycleEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycle(ev); err != nil {
			return err
		}
	}
	return nil
}
