package model

import "time"

// Tariff types priced for every 15-minute slot.
const (
	TariffGrid        = "grid"
	TariffElectricity = "electricity"
	TariffIntegrated  = "integrated"
	TariffGridUsage   = "grid_usage"
)

// TariffTypes lists the four priced components of an energy rate, in the
// order they appear in the upstream payload.
var TariffTypes = []string{TariffGrid, TariffElectricity, TariffIntegrated, TariffGridUsage}

// PriceSlot is one tariff price for one 15-minute slot. Rows are unique per
// (Start, End, TariffType, TariffName).
type PriceSlot struct {
	Start       time.Time
	End         time.Time
	TariffType  string
	TariffName  string
	Unit        string
	Value       float64
	PublishedAt time.Time
}

// PlantReading is a single telemetry snapshot of a power plant. Readings are
// appended as a time-series log without a uniqueness key; re-extraction for
// the same timestamp may legitimately duplicate rows.
type PlantReading struct {
	PlantID           string
	Timestamp         time.Time
	OperationalStatus string
	VoltageKV         float64
	ActivePowerMW     float64
	ReactivePowerMVAR float64
	WindSpeedKMH      float64
}

// ControlSignal is a scheduled demand-side activation window. Rows are
// unique per (Name, Date, Start).
type ControlSignal struct {
	Name        string
	Description string
	Date        time.Time
	Start       time.Time
	End         time.Time
}

// HealthRecord is the logged outcome of one logical upstream call, covering
// the whole retry sequence. StatusCode is zero when no response was received.
type HealthRecord struct {
	Endpoint       string
	StatusCode     int
	ResponseTimeMS int64
	Success        bool
	ErrorMessage   string
	CheckedAt      time.Time
}
