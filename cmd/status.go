package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusWindowHours int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest loaded data and endpoint health",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusWindowHours, "window", 24, "health window in hours")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	reading, err := svc.Store.LatestPlantReading(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fmt.Println("plant: no readings loaded yet")
	case err != nil:
		return fmt.Errorf("latest plant reading: %w", err)
	default:
		fmt.Printf("plant %s at %s: %s, %.1f MW, %.1f kV, wind %.1f km/h\n",
			reading.PlantID, reading.Timestamp.Format(time.RFC3339), reading.OperationalStatus,
			reading.ActivePowerMW, reading.VoltageKV, reading.WindSpeedKMH)
	}

	prices, err := svc.Store.LatestPrices(ctx)
	if err != nil {
		return fmt.Errorf("latest prices: %w", err)
	}
	for _, p := range prices {
		fmt.Printf("price %-16s %s..%s %.4f %s\n",
			p.TariffType, p.Start.Format("15:04"), p.End.Format("15:04"), p.Value, p.Unit)
	}

	summaries, err := svc.Recorder.Summary(ctx, time.Duration(statusWindowHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("health summary: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Printf("health: no checks in the last %dh\n", statusWindowHours)
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("health %-28s %5.1f%% ok (%d/%d), avg %.0fms\n",
			s.Endpoint, s.SuccessRate, s.SuccessfulChecks, s.TotalChecks, s.AvgResponseTimeMS)
	}
	return nil
}
