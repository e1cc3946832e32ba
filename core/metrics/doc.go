// Package metrics defines the events emitted by the ingestion pipeline and
// the Sink interface used to record them. Implementations live under
// infra/metrics: PromSink exposes Prometheus counters and histograms,
// InfluxSink writes line-protocol points, and MultiSink fans events out to
// several sinks at once.
package metrics
