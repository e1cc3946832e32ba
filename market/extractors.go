package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gridsync/gridsync/config"
	"github.com/gridsync/gridsync/core/model"
)

// Endpoint paths of the three data sources.
const (
	PricesEndpoint  = "/api/v1/energy/prices"
	PlantEndpoint   = "/api/v1/plant/live"
	SignalsEndpoint = "/api/v1/control/signals"
)

// PricesExtractor fetches the dynamic tariff feed and normalizes it into
// flat price rows.
type PricesExtractor struct {
	client     *Client
	tariffName string
	horizon    time.Duration
}

// NewPricesExtractor creates the prices extractor.
func NewPricesExtractor(client *Client, cfg config.APIConfig) *PricesExtractor {
	return &PricesExtractor{
		client:     client,
		tariffName: cfg.TariffName,
		horizon:    time.Duration(cfg.PriceHorizonHours) * time.Hour,
	}
}

// Extract fetches and normalizes the price payload.
func (e *PricesExtractor) Extract(ctx context.Context) ([]model.PriceSlot, error) {
	now := time.Now().UTC().Truncate(15 * time.Minute)
	query := url.Values{}
	query.Set("tariff_name", e.tariffName)
	query.Set("start_timestamp", now.Format(time.RFC3339))
	query.Set("end_timestamp", now.Add(e.horizon).Format(time.RFC3339))

	var resp PricesResponse
	if err := e.client.fetch(ctx, PricesEndpoint, query, &resp); err != nil {
		return nil, err
	}
	rows, err := resp.Rows(e.tariffName)
	if err != nil {
		return nil, &FetchError{Endpoint: PricesEndpoint, Class: Malformed, StatusCode: http.StatusOK, Err: err}
	}
	return rows, nil
}

// PlantExtractor fetches the live plant-telemetry snapshot.
type PlantExtractor struct {
	client *Client
}

// NewPlantExtractor creates the plant extractor.
func NewPlantExtractor(client *Client) *PlantExtractor {
	return &PlantExtractor{client: client}
}

// Extract fetches and normalizes the telemetry payload into a single row.
func (e *PlantExtractor) Extract(ctx context.Context) ([]model.PlantReading, error) {
	var resp PlantResponse
	if err := e.client.fetch(ctx, PlantEndpoint, nil, &resp); err != nil {
		return nil, err
	}
	reading, err := resp.Reading()
	if err != nil {
		return nil, &FetchError{Endpoint: PlantEndpoint, Class: Malformed, StatusCode: http.StatusOK, Err: err}
	}
	return []model.PlantReading{reading}, nil
}

// SignalsExtractor fetches demand-side control signals for the configured
// day selector (an ISO date or "last").
type SignalsExtractor struct {
	client   *Client
	selector string
}

// NewSignalsExtractor creates the signals extractor.
func NewSignalsExtractor(client *Client, cfg config.APIConfig) *SignalsExtractor {
	return &SignalsExtractor{client: client, selector: cfg.SignalDate}
}

// Extract fetches and normalizes the signal payload, zero or more rows.
func (e *SignalsExtractor) Extract(ctx context.Context) ([]model.ControlSignal, error) {
	endpoint := SignalsEndpoint + "/" + e.selector
	var payload []SignalPayload
	if err := e.client.fetch(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	rows := make([]model.ControlSignal, 0, len(payload))
	for i, s := range payload {
		row, err := s.Row()
		if err != nil {
			return nil, &FetchError{
				Endpoint:   endpoint,
				Class:      Malformed,
				StatusCode: http.StatusOK,
				Err:        fmt.Errorf("signal %d: %w", i, err),
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
