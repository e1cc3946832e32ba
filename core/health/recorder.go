package health

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gridsync/gridsync/core/logger"
	"github.com/gridsync/gridsync/core/model"
)

// Store persists health records and serves the rolling window.
type Store interface {
	InsertHealthRecord(ctx context.Context, rec model.HealthRecord) error
	HealthRecordsSince(ctx context.Context, since time.Time) ([]model.HealthRecord, error)
}

// Recorder appends one outcome record per logical upstream call and derives
// rolling per-endpoint summaries from the persisted log.
type Recorder struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(store Store, log logger.Logger) *Recorder {
	return &Recorder{store: store, log: log, now: time.Now}
}

// Record persists the outcome. A failed insert is logged but never fails
// the cycle: health recording must not take the ingestion path down.
func (r *Recorder) Record(ctx context.Context, rec model.HealthRecord) {
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = r.now().UTC()
	}
	if rec.Success {
		r.log.Debugf("%s: %d in %dms", rec.Endpoint, rec.StatusCode, rec.ResponseTimeMS)
	} else {
		r.log.Warnf("%s failed in %dms: %s", rec.Endpoint, rec.ResponseTimeMS, rec.ErrorMessage)
	}
	if err := r.store.InsertHealthRecord(ctx, rec); err != nil {
		r.log.Errorf("insert health record for %s: %v", rec.Endpoint, err)
	}
}

// EndpointSummary aggregates the health of one endpoint over a window.
type EndpointSummary struct {
	Endpoint          string
	TotalChecks       int
	SuccessfulChecks  int
	SuccessRate       float64
	AvgResponseTimeMS float64
}

// Summary computes the per-endpoint success rate (percent) and mean
// response time over the given rolling window, purely from the persisted
// records. Results are sorted by endpoint.
func (r *Recorder) Summary(ctx context.Context, window time.Duration) ([]EndpointSummary, error) {
	records, err := r.store.HealthRecordsSince(ctx, r.now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}

	type bucket struct {
		total     int
		succeeded int
		latencies []float64
	}
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		b := buckets[rec.Endpoint]
		if b == nil {
			b = &bucket{}
			buckets[rec.Endpoint] = b
		}
		b.total++
		if rec.Success {
			b.succeeded++
		}
		b.latencies = append(b.latencies, float64(rec.ResponseTimeMS))
	}

	summaries := make([]EndpointSummary, 0, len(buckets))
	for endpoint, b := range buckets {
		summaries = append(summaries, EndpointSummary{
			Endpoint:          endpoint,
			TotalChecks:       b.total,
			SuccessfulChecks:  b.succeeded,
			SuccessRate:       100 * float64(b.succeeded) / float64(b.total),
			AvgResponseTimeMS: stat.Mean(b.latencies, nil),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Endpoint < summaries[j].Endpoint })
	return summaries, nil
}
