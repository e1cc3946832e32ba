package market

import (
	"fmt"

	"github.com/gridsync/gridsync/core/model"
)

const (
	defaultUnit    = "CHF_kWh"
	defaultPlantID = "lutersarni"
)

// Rows flattens the payload into one PriceSlot row per (slot, tariff type)
// pair. The slot's shared start, end and publication timestamp are copied
// onto every emitted row. Missing required fields fail the whole payload.
func (r PricesResponse) Rows(tariffName string) ([]model.PriceSlot, error) {
	published, err := parseTimestamp("publication_timestamp", r.PublicationTimestamp)
	if err != nil {
		return nil, err
	}
	var rows []model.PriceSlot
	for i, slot := range r.Prices {
		start, err := parseTimestamp("start_timestamp", slot.StartTimestamp)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		end, err := parseTimestamp("end_timestamp", slot.EndTimestamp)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		for _, tt := range model.TariffTypes {
			for _, v := range slot.values(tt) {
				if v.Value == nil {
					return nil, fmt.Errorf("slot %d: missing %s value", i, tt)
				}
				unit := v.Unit
				if unit == "" {
					unit = defaultUnit
				}
				rows = append(rows, model.PriceSlot{
					Start:       start,
					End:         end,
					TariffType:  tt,
					TariffName:  tariffName,
					Unit:        unit,
					Value:       *v.Value,
					PublishedAt: published,
				})
			}
		}
	}
	return rows, nil
}

func (s PriceSlot) values(tariffType string) []PriceValue {
	switch tariffType {
	case model.TariffGrid:
		return s.Grid
	case model.TariffElectricity:
		return s.Electricity
	case model.TariffIntegrated:
		return s.Integrated
	case model.TariffGridUsage:
		return s.GridUsage
	}
	return nil
}

// Reading maps the payload to exactly one PlantReading row.
func (r PlantResponse) Reading() (model.PlantReading, error) {
	ts, err := parseTimestamp("timestamp", r.Timestamp)
	if err != nil {
		return model.PlantReading{}, err
	}
	if r.OperationalStatus == "" {
		return model.PlantReading{}, fmt.Errorf("missing operational_status")
	}
	plantID := r.PlantID
	if plantID == "" {
		plantID = defaultPlantID
	}
	return model.PlantReading{
		PlantID:           plantID,
		Timestamp:         ts,
		OperationalStatus: r.OperationalStatus,
		VoltageKV:         r.VoltageKV,
		ActivePowerMW:     r.ActivePowerMW,
		ReactivePowerMVAR: r.ReactivePowerMVAR,
		WindSpeedKMH:      r.WindSpeedKMH,
	}, nil
}

// Row maps the payload to one ControlSignal row.
func (s SignalPayload) Row() (model.ControlSignal, error) {
	if s.Name == "" {
		return model.ControlSignal{}, fmt.Errorf("missing signal name")
	}
	date, err := parseDate("date", s.Date)
	if err != nil {
		return model.ControlSignal{}, err
	}
	start, err := parseTimestamp("start", s.Start)
	if err != nil {
		return model.ControlSignal{}, err
	}
	end, err := parseTimestamp("end", s.End)
	if err != nil {
		return model.ControlSignal{}, err
	}
	return model.ControlSignal{
		Name:        s.Name,
		Description: s.Description,
		Date:        date,
		Start:       start,
		End:         end,
	}, nil
}
