package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetsense/fuelwatch/internal/adapters/http/api"
	app "github.com/fleetsense/fuelwatch/internal/app"
	"github.com/fleetsense/fuelwatch/internal/config"
	"github.com/fleetsense/fuelwatch/internal/seed"
	"github.com/fleetsense/fuelwatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second // batch establishment runs synchronously
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuelwatch",
		Short: "Fleet fuel-efficiency baselines and deviation detection",
		Long: `FuelWatch computes per-vehicle fuel-efficiency baselines from trip
history, classifies per-trip deviations against them, and rolls up
trends and fleet-wide baseline coverage.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(establishCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, initializes logging, and builds the service.
func setup() (*config.Config, *app.Service, error) {
	if err := logger.Init(); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithDBPath(cfg.DBPath),
		app.WithMinSamples(cfg.MinSamples),
		app.WithTolerancePercent(cfg.TolerancePercent),
		app.WithRecencyRamp(cfg.RecencyRamp),
		app.WithWindows(cfg.BaselineWindowDays, cfg.TrendWindowDays, cfg.ShortTrendWindowDays),
		app.WithTrendBand(cfg.TrendBandPercent),
		app.WithStaleness(cfg.StaleAfterDays, cfg.MinConfidence),
		app.WithSeverityThresholds(cfg.SeverityMediumPercent, cfg.SeverityHighPercent),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithShardCount(cfg.ShardCount),
	)
	return cfg, svc, nil
}

// serveCmd starts the HTTP API server.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the baseline HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, svc, err := setup()
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			log := logger.Get()
			apiServer := api.NewServer(svc, svc)
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           apiServer.Router(),
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error(ctx, "HTTP server failed", logger.Error(err))
					stop()
				}
			}()

			<-ctx.Done()
			log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			log.Info(ctx, "server stopped")
			return nil
		},
	}
}

// establishCmd runs one batch baseline-establishment pass and prints the
// report as JSON.
func establishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "establish",
		Short: "Run batch baseline establishment once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, svc, err := setup()
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			report, err := svc.EstablishBaselines(ctx)
			if err != nil {
				return fmt.Errorf("batch establishment: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// seedCmd fills the trip log with a reproducible demo fleet.
func seedCmd() *cobra.Command {
	var vehicles, trips, spanDays int
	var randomSeed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a demo fleet into the trip log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, svc, err := setup()
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("seed needs FUELWATCH_DB_PATH; in-memory data would vanish on exit")
			}
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			gen := seed.NewGenerator(
				seed.WithVehicleCount(vehicles),
				seed.WithTripCount(trips),
				seed.WithSpanDays(spanDays),
				seed.WithSeed(randomSeed),
			)
			ids, err := gen.Generate(ctx, svc.TripLog())
			if err != nil {
				return fmt.Errorf("seed fleet: %w", err)
			}
			fmt.Printf("seeded %d vehicles with %d trips each into %s\n", len(ids), trips, cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&vehicles, "vehicles", "n", 10, "Number of vehicles to create")
	cmd.Flags().IntVarP(&trips, "trips", "t", 40, "Trips per vehicle")
	cmd.Flags().IntVarP(&spanDays, "span", "s", 90, "Days of history to cover")
	cmd.Flags().Int64Var(&randomSeed, "seed", 42, "Random seed for reproducible fleets")
	return cmd
}
