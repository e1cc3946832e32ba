package market

import (
	"context"

	"github.com/gridsync/gridsync/core/model"
	"github.com/gridsync/gridsync/core/pipeline"
)

// PriceWriter persists normalized price rows.
type PriceWriter interface {
	UpsertPriceSlots(ctx context.Context, rows []model.PriceSlot) (int, error)
}

// PlantWriter persists plant telemetry rows.
type PlantWriter interface {
	InsertPlantReadings(ctx context.Context, rows []model.PlantReading) (int, error)
}

// SignalWriter persists control-signal rows.
type SignalWriter interface {
	UpsertControlSignals(ctx context.Context, rows []model.ControlSignal) (int, error)
}

// NewPriceSource binds the prices extractor to its writer.
func NewPriceSource(ex *PricesExtractor, w PriceWriter) pipeline.Source {
	return pipeline.NewSource("prices", PricesEndpoint, func(ctx context.Context) (pipeline.Batch, error) {
		rows, err := ex.Extract(ctx)
		if err != nil {
			return nil, err
		}
		return pipeline.NewBatch(len(rows), func(ctx context.Context) (int, error) {
			return w.UpsertPriceSlots(ctx, rows)
		}), nil
	})
}

// NewPlantSource binds the plant extractor to its writer.
func NewPlantSource(ex *PlantExtractor, w PlantWriter) pipeline.Source {
	return pipeline.NewSource("plant", PlantEndpoint, func(ctx context.Context) (pipeline.Batch, error) {
		rows, err := ex.Extract(ctx)
		if err != nil {
			return nil, err
		}
		return pipeline.NewBatch(len(rows), func(ctx context.Context) (int, error) {
			return w.InsertPlantReadings(ctx, rows)
		}), nil
	})
}

// NewSignalSource binds the signals extractor to its writer. The health
// endpoint stays the base signals path regardless of the day selector.
func NewSignalSource(ex *SignalsExtractor, w SignalWriter) pipeline.Source {
	return pipeline.NewSource("signals", SignalsEndpoint, func(ctx context.Context) (pipeline.Batch, error) {
		rows, err := ex.Extract(ctx)
		if err != nil {
			return nil, err
		}
		return pipeline.NewBatch(len(rows), func(ctx context.Context) (int, error) {
			return w.UpsertControlSignals(ctx, rows)
		}), nil
	})
}
