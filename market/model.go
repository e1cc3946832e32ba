package market

import (
	"fmt"
	"time"
)

// PricesResponse mirrors the prices endpoint payload. Each slot nests every
// tariff type as a single-element list of unit/value pairs under its own key.
type PricesResponse struct {
	PublicationTimestamp string      `json:"publication_timestamp"`
	Prices               []PriceSlot `json:"prices"`
}

// PriceSlot is one 15-minute slot of the prices payload.
type PriceSlot struct {
	StartTimestamp string       `json:"start_timestamp"`
	EndTimestamp   string       `json:"end_timestamp"`
	Grid           []PriceValue `json:"grid"`
	Electricity    []PriceValue `json:"electricity"`
	Integrated     []PriceValue `json:"integrated"`
	GridUsage      []PriceValue `json:"grid_usage"`
}

// PriceValue carries one priced component. Value is a pointer so a missing
// field is distinguishable from zero.
type PriceValue struct {
	Unit  string   `json:"unit"`
	Value *float64 `json:"value"`
}

// PlantResponse mirrors the plant-telemetry endpoint payload.
type PlantResponse struct {
	Timestamp         string            `json:"timestamp"`
	PlantID           string            `json:"plant_id"`
	OperationalStatus string            `json:"operational_status"`
	VoltageKV         float64           `json:"voltage_kv"`
	ActivePowerMW     float64           `json:"active_power_mw"`
	ReactivePowerMVAR float64           `json:"reactive_power_mvar"`
	WindSpeedKMH      float64           `json:"wind_speed_kmh"`
	Units             map[string]string `json:"units"`
}

// SignalPayload mirrors one element of the control-signals endpoint payload.
type SignalPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// timestampLayouts lists accepted upstream timestamp formats. The plant feed
// omits seconds ("2025-12-03T14:40+01:00").
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable %s: %q", field, value)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable %s: %q", field, value)
	}
	return ts, nil
}
