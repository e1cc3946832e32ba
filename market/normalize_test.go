package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/core/model"
)

const pricesPayload = `{
  "publication_timestamp": "2025-12-03T13:00:00+01:00",
  "prices": [
    {
      "start_timestamp": "2025-12-03T14:00:00+01:00",
      "end_timestamp": "2025-12-03T14:15:00+01:00",
      "grid": [{"unit": "CHF_kWh", "value": 0.082}],
      "electricity": [{"unit": "CHF_kWh", "value": 0.114}],
      "integrated": [{"unit": "CHF_kWh", "value": 0.196}],
      "grid_usage": [{"value": 0.051}]
    }
  ]
}`

func TestPricesRowsFlattenTariffTypes(t *testing.T) {
	var resp PricesResponse
	require.NoError(t, json.Unmarshal([]byte(pricesPayload), &resp))

	rows, err := resp.Rows("home_dynamic")
	require.NoError(t, err)
	require.Len(t, rows, 4, "one row per tariff type")

	byType := make(map[string]model.PriceSlot, len(rows))
	for _, r := range rows {
		byType[r.TariffType] = r
	}
	for _, tt := range model.TariffTypes {
		row, ok := byType[tt]
		require.True(t, ok, "missing tariff type %s", tt)
		assert.Equal(t, "home_dynamic", row.TariffName)
		assert.Equal(t, 15*time.Minute, row.End.Sub(row.Start))
		assert.False(t, row.PublishedAt.IsZero())
	}
	assert.InDelta(t, 0.196, byType[model.TariffIntegrated].Value, 1e-9)
	// unit omitted upstream falls back to the default
	assert.Equal(t, "CHF_kWh", byType[model.TariffGridUsage].Unit)
}

func TestPricesRowsMissingValue(t *testing.T) {
	var resp PricesResponse
	require.NoError(t, json.Unmarshal([]byte(pricesPayload), &resp))
	resp.Prices[0].Electricity[0].Value = nil

	_, err := resp.Rows("home_dynamic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "electricity")
}

func TestPricesRowsBadTimestamp(t *testing.T) {
	var resp PricesResponse
	require.NoError(t, json.Unmarshal([]byte(pricesPayload), &resp))
	resp.Prices[0].StartTimestamp = "yesterday"

	_, err := resp.Rows("home_dynamic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_timestamp")
}

func TestPlantReadingLenientTimestamp(t *testing.T) {
	resp := PlantResponse{
		// the live feed omits seconds
		Timestamp:         "2025-12-03T14:40+01:00",
		OperationalStatus: "producing",
		VoltageKV:         110.2,
		ActivePowerMW:     4.7,
		WindSpeedKMH:      31.5,
	}
	reading, err := resp.Reading()
	require.NoError(t, err)
	assert.Equal(t, "lutersarni", reading.PlantID, "plant id falls back to the default")
	assert.Equal(t, 40, reading.Timestamp.Minute())
	assert.Equal(t, 0, reading.Timestamp.Second())
	assert.Equal(t, "producing", reading.OperationalStatus)
}

func TestPlantReadingMissingStatus(t *testing.T) {
	resp := PlantResponse{Timestamp: "2025-12-03T14:40+01:00"}
	_, err := resp.Reading()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operational_status")
}

func TestSignalRow(t *testing.T) {
	payload := SignalPayload{
		Name:        "peak_shaving",
		Description: "reduce load",
		Date:        "2025-12-03",
		Start:       "2025-12-03T17:00:00+01:00",
		End:         "2025-12-03T19:00:00+01:00",
	}
	row, err := payload.Row()
	require.NoError(t, err)
	assert.Equal(t, "peak_shaving", row.Name)
	assert.Equal(t, time.December, row.Date.Month())
	assert.True(t, row.End.After(row.Start))

	payload.Name = ""
	_, err = payload.Row()
	require.Error(t, err)
}

func TestSignalRowBadDate(t *testing.T) {
	payload := SignalPayload{Name: "x", Date: "03.12.2025", Start: "2025-12-03T17:00:00+01:00", End: "2025-12-03T19:00:00+01:00"}
	_, err := payload.Row()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}
