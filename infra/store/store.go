package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gridsync/gridsync/core/logger"
	"github.com/gridsync/gridsync/core/model"
)

// PersistError reports a failed batch write. The batch has been rolled back
// in full and its rows are eligible for re-submission on the next cycle.
type PersistError struct {
	Table string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Postgres persists normalized rows and health records. Each batch write
// runs in a single transaction: all rows commit or none do.
type Postgres struct {
	db  *sql.DB
	log logger.Logger
}

// New creates a Postgres store on an open pool.
func New(db *sql.DB, log logger.Logger) *Postgres {
	return &Postgres{db: db, log: log}
}

// UpsertPriceSlots writes a price batch. Conflicting rows (same start, end,
// tariff type and tariff name) are overwritten with the incoming value and
// publication timestamp, so corrected re-publications take effect.
func (p *Postgres) UpsertPriceSlots(ctx context.Context, rows []model.PriceSlot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	const query = `
		INSERT INTO energy_prices
			(publication_timestamp, start_timestamp, end_timestamp,
			 tariff_type, tariff_name, unit, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (start_timestamp, end_timestamp, tariff_type, tariff_name)
		DO UPDATE SET
			publication_timestamp = EXCLUDED.publication_timestamp,
			unit = EXCLUDED.unit,
			value = EXCLUDED.value,
			ingested_at = NOW()
	`
	n, err := p.inTx(ctx, "energy_prices", func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.PublishedAt, r.Start, r.End, r.TariffType, r.TariffName, r.Unit, r.Value,
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
	if err != nil {
		return 0, err
	}
	p.log.Infof("loaded %d price rows", n)
	return n, nil
}

// InsertPlantReadings appends telemetry rows. The table has no uniqueness
// key; a retried cycle may duplicate a timestamp, which is accepted.
func (p *Postgres) InsertPlantReadings(ctx context.Context, rows []model.PlantReading) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	const query = `
		INSERT INTO plant_status
			(plant_id, timestamp, operational_status,
			 voltage_kv, active_power_mw, reactive_power_mvar, wind_speed_kmh)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	n, err := p.inTx(ctx, "plant_status", func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.PlantID, r.Timestamp, r.OperationalStatus,
				r.VoltageKV, r.ActivePowerMW, r.ReactivePowerMVAR, r.WindSpeedKMH,
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
	if err != nil {
		return 0, err
	}
	p.log.Infof("loaded %d plant reading(s)", n)
	return n, nil
}

// UpsertControlSignals writes a signal batch. Conflicting rows (same name,
// date and start) are left untouched; the returned count covers newly
// inserted rows only.
func (p *Postgres) UpsertControlSignals(ctx context.Context, rows []model.ControlSignal) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	const query = `
		INSERT INTO control_signals
			(signal_name, description, signal_date, start_timestamp, end_timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (signal_name, signal_date, start_timestamp)
		DO NOTHING
	`
	n, err := p.inTx(ctx, "control_signals", func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		inserted := 0
		for _, r := range rows {
			res, err := stmt.ExecContext(ctx, r.Name, r.Description, r.Date, r.Start, r.End)
			if err != nil {
				return 0, err
			}
			if affected, err := res.RowsAffected(); err == nil {
				inserted += int(affected)
			}
		}
		return inserted, nil
	})
	if err != nil {
		return 0, err
	}
	p.log.Infof("loaded %d control signal(s)", n)
	return n, nil
}

// InsertHealthRecord appends one call outcome to the health log.
func (p *Postgres) InsertHealthRecord(ctx context.Context, rec model.HealthRecord) error {
	const query = `
		INSERT INTO api_health_logs
			(endpoint, status_code, response_time_ms, success, error_message, checked_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, NULLIF($5, ''), $6)
	`
	if _, err := p.db.ExecContext(ctx, query,
		rec.Endpoint, rec.StatusCode, rec.ResponseTimeMS, rec.Success, rec.ErrorMessage, rec.CheckedAt,
	); err != nil {
		return &PersistError{Table: "api_health_logs", Err: err}
	}
	return nil
}

// HealthRecordsSince returns the health log within the rolling window.
func (p *Postgres) HealthRecordsSince(ctx context.Context, since time.Time) ([]model.HealthRecord, error) {
	const query = `
		SELECT endpoint, COALESCE(status_code, 0), response_time_ms,
		       success, COALESCE(error_message, ''), checked_at
		FROM api_health_logs
		WHERE checked_at >= $1
		ORDER BY checked_at
	`
	rows, err := p.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.HealthRecord
	for rows.Next() {
		var rec model.HealthRecord
		if err := rows.Scan(&rec.Endpoint, &rec.StatusCode, &rec.ResponseTimeMS,
			&rec.Success, &rec.ErrorMessage, &rec.CheckedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestPrices returns the most recent price row per tariff type, the query
// behind the dashboard's latest-price view.
func (p *Postgres) LatestPrices(ctx context.Context) ([]model.PriceSlot, error) {
	const query = `
		SELECT DISTINCT ON (tariff_type)
			start_timestamp, end_timestamp, tariff_type, tariff_name,
			unit, value, publication_timestamp
		FROM energy_prices
		ORDER BY tariff_type, start_timestamp DESC
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.PriceSlot
	for rows.Next() {
		var s model.PriceSlot
		if err := rows.Scan(&s.Start, &s.End, &s.TariffType, &s.TariffName,
			&s.Unit, &s.Value, &s.PublishedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// LatestPlantReading returns the most recent telemetry row, the query
// behind the dashboard's latest-status view.
func (p *Postgres) LatestPlantReading(ctx context.Context) (model.PlantReading, error) {
	const query = `
		SELECT plant_id, timestamp, operational_status,
		       voltage_kv, active_power_mw, reactive_power_mvar, wind_speed_kmh
		FROM plant_status
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var r model.PlantReading
	err := p.db.QueryRowContext(ctx, query).Scan(&r.PlantID, &r.Timestamp, &r.OperationalStatus,
		&r.VoltageKV, &r.ActivePowerMW, &r.ReactivePowerMVAR, &r.WindSpeedKMH)
	if err != nil {
		return model.PlantReading{}, err
	}
	return r, nil
}

// inTx runs fn in a transaction, rolling back in full on any error.
func (p *Postgres) inTx(ctx context.Context, table string, fn func(tx *sql.Tx) (int, error)) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistError{Table: table, Err: err}
	}
	n, err := fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.log.Errorf("rollback %s: %v", table, rbErr)
		}
		return 0, &PersistError{Table: table, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &PersistError{Table: table, Err: err}
	}
	return n, nil
}
