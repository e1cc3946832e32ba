package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/core/model"
)

type fakeStore struct {
	records   []model.HealthRecord
	insertErr error
}

func (s *fakeStore) InsertHealthRecord(_ context.Context, rec model.HealthRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) HealthRecordsSince(_ context.Context, since time.Time) ([]model.HealthRecord, error) {
	var out []model.HealthRecord
	for _, rec := range s.records {
		if !rec.CheckedAt.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type nopLog struct{}

func (nopLog) Debugf(string, ...any)         {}
func (nopLog) Debugw(string, map[string]any) {}
func (nopLog) Infof(string, ...any)          {}
func (nopLog) Warnf(string, ...any)          {}
func (nopLog) Errorf(string, ...any)         {}

func TestRecordStampsCheckedAt(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nopLog{})
	fixed := time.Date(2025, 12, 3, 14, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Record(context.Background(), model.HealthRecord{Endpoint: "/api/v1/plant/live", Success: true, StatusCode: 200})
	require.Len(t, store.records, 1)
	assert.Equal(t, fixed, store.records[0].CheckedAt)
}

func TestRecordSurvivesInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("db down")}
	r := NewRecorder(store, nopLog{})
	// must not panic or propagate
	r.Record(context.Background(), model.HealthRecord{Endpoint: "/api/v1/plant/live"})
}

func TestSummary(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nopLog{})
	now := time.Date(2025, 12, 3, 14, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		store.records = append(store.records, model.HealthRecord{
			Endpoint:       "/api/v1/energy/prices",
			Success:        i < 8,
			ResponseTimeMS: int64(100 + i*10),
			CheckedAt:      now.Add(-time.Duration(i) * time.Minute),
		})
	}
	store.records = append(store.records, model.HealthRecord{
		Endpoint:       "/api/v1/plant/live",
		Success:        true,
		ResponseTimeMS: 40,
		CheckedAt:      now.Add(-25 * time.Hour), // outside the window
	})

	summaries, err := r.Summary(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "/api/v1/energy/prices", s.Endpoint)
	assert.Equal(t, 10, s.TotalChecks)
	assert.Equal(t, 8, s.SuccessfulChecks)
	assert.InDelta(t, 80.0, s.SuccessRate, 1e-9)
	assert.InDelta(t, 145.0, s.AvgResponseTimeMS, 1e-9)
}

func TestSummarySortsByEndpoint(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nopLog{})
	now := time.Now().UTC()
	for _, ep := range []string{"/api/v1/plant/live", "/api/v1/control/signals", "/api/v1/energy/prices"} {
		store.records = append(store.records, model.HealthRecord{Endpoint: ep, Success: true, CheckedAt: now})
	}
	summaries, err := r.Summary(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "/api/v1/control/signals", summaries[0].Endpoint)
	assert.Equal(t, "/api/v1/energy/prices", summaries[1].Endpoint)
	assert.Equal(t, "/api/v1/plant/live", summaries[2].Endpoint)
}
