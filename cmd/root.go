package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridsync/gridsync/app"
	"github.com/gridsync/gridsync/config"
	"github.com/gridsync/gridsync/infra/logger"
)

var (
	cfgPath         string
	intervalSeconds int
)

var rootCmd = &cobra.Command{
	Use:   "gridsync",
	Short: "Energy-market ingestion service",
	Long:  "Polls the energy-market API for prices, plant telemetry and control signals and loads them into PostgreSQL.",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().IntVar(&intervalSeconds, "interval", 0, "override the poll interval in seconds")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	return svc.Run(ctx)
}

func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if intervalSeconds > 0 {
		cfg.ETL.PollIntervalSeconds = intervalSeconds
		if cfg.ETL.CycleTimeoutSeconds > intervalSeconds {
			cfg.ETL.CycleTimeoutSeconds = intervalSeconds
		}
	}
	return app.New(cfg)
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
