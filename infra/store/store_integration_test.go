package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gridsync/gridsync/core/model"
	"github.com/gridsync/gridsync/infra/logger"
)

// TestPostgresIntegration exercises the upsert policies against a real
// PostgreSQL instance.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "etl",
			"POSTGRES_PASSWORD": "etl",
			"POSTGRES_DB":       "energy",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://etl:etl@%s:%s/energy?sslmode=disable", host, port.Port())

	db, err := Open(dsn)
	for i := 0; err != nil && i < 5; i++ {
		time.Sleep(time.Second)
		db, err = Open(dsn)
	}
	require.NoError(t, err)
	defer db.Close()

	ddl, err := os.ReadFile("../../migrations/schema.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(ddl))
	require.NoError(t, err)

	repo := New(db, logger.NopLogger{})

	t.Run("prices upsert overwrites on conflict", func(t *testing.T) {
		start := time.Date(2025, 12, 3, 14, 0, 0, 0, time.UTC)
		row := model.PriceSlot{
			Start: start, End: start.Add(15 * time.Minute),
			TariffType: model.TariffGrid, TariffName: "home_dynamic",
			Unit: "CHF_kWh", Value: 0.08, PublishedAt: start.Add(-time.Hour),
		}
		n, err := repo.UpsertPriceSlots(ctx, []model.PriceSlot{row})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		row.Value = 0.09
		row.PublishedAt = start.Add(-30 * time.Minute)
		_, err = repo.UpsertPriceSlots(ctx, []model.PriceSlot{row})
		require.NoError(t, err)

		var count int
		var value float64
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*), MAX(value) FROM energy_prices`).Scan(&count, &value))
		assert.Equal(t, 1, count, "re-publication must not duplicate the slot")
		assert.InDelta(t, 0.09, value, 1e-9)
	})

	t.Run("signals ignore duplicates", func(t *testing.T) {
		date := time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC)
		row := model.ControlSignal{
			Name: "peak_shaving", Description: "reduce load",
			Date:  date,
			Start: date.Add(17 * time.Hour), End: date.Add(19 * time.Hour),
		}
		n, err := repo.UpsertControlSignals(ctx, []model.ControlSignal{row})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = repo.UpsertControlSignals(ctx, []model.ControlSignal{row})
		require.NoError(t, err)
		assert.Zero(t, n, "replayed signal must not count as loaded")
	})

	t.Run("plant readings append and read back", func(t *testing.T) {
		ts := time.Date(2025, 12, 3, 14, 40, 0, 0, time.UTC)
		n, err := repo.InsertPlantReadings(ctx, []model.PlantReading{{
			PlantID: "lutersarni", Timestamp: ts, OperationalStatus: "producing",
			VoltageKV: 110.2, ActivePowerMW: 4.7, WindSpeedKMH: 31.5,
		}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		latest, err := repo.LatestPlantReading(ctx)
		require.NoError(t, err)
		assert.Equal(t, "lutersarni", latest.PlantID)
		assert.Equal(t, "producing", latest.OperationalStatus)
		assert.True(t, latest.Timestamp.Equal(ts))
	})

	t.Run("health records round trip", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, repo.InsertHealthRecord(ctx, model.HealthRecord{
			Endpoint: "/api/v1/energy/prices", StatusCode: 200,
			ResponseTimeMS: 120, Success: true, CheckedAt: now,
		}))
		require.NoError(t, repo.InsertHealthRecord(ctx, model.HealthRecord{
			Endpoint: "/api/v1/plant/live", StatusCode: 0,
			ResponseTimeMS: 5000, Success: false, ErrorMessage: "timeout: context deadline exceeded",
			CheckedAt: now,
		}))

		records, err := repo.HealthRecordsSince(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, rec := range records {
			if rec.Endpoint == "/api/v1/plant/live" {
				assert.Zero(t, rec.StatusCode, "NULL status reads back as zero")
				assert.Contains(t, rec.ErrorMessage, "timeout")
			}
		}
	})
}
