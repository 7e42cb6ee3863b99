// Command pipeline runs the settlement and snapshot jobs against a running
// API using the pipeline API key.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igudar/internal/config"
	"igudar/internal/logger"
	"igudar/internal/pipeline"
)

// errPartialFailure marks a run that finished but left some work undone.
var errPartialFailure = errors.New("some investments could not be confirmed")

func main() {
	os.Exit(run())
}

// run executes the command line and returns the process exit code: 0 on
// success, 2 when a settlement run left investments unconfirmed, 1 otherwise.
func run() int {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errPartialFailure):
		logger.Get().Warn(err.Error())
		return 2
	default:
		logger.Get().Errorf("Pipeline error: %v", err)
		return 1
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pipeline",
		Short:         "Igudar settlement and portfolio snapshot jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		snapshotCmd(),
		confirmCmd(),
		refundCmd(),
	)
	return rootCmd
}

// newClient builds an API client from PIPELINE_API_URL, PIPELINE_API_KEY and
// PIPELINE_TIMEOUT.
func newClient() (*pipeline.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.PipelineAPIKey == "" {
		return nil, errors.New("PIPELINE_API_KEY is required")
	}
	httpClient := &http.Client{Timeout: cfg.PipelineTimeout}
	return pipeline.NewClient(cfg.PipelineAPIURL, cfg.PipelineAPIKey, httpClient), nil
}

func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: expected RFC3339", raw)
	}
	return at, nil
}

func snapshotCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record a portfolio snapshot for every investor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recordedAt, err := parseAt(at)
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			result, err := client.RecordSnapshots(cmd.Context(), recordedAt)
			if err != nil {
				return err
			}
			logger.Get().Infow("Snapshots recorded",
				"snapshots_recorded", result.SnapshotsRecorded,
				"recorded_at", result.RecordedAt.Format(time.RFC3339),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "snapshot time in RFC3339 (defaults to the server clock)")
	return cmd
}

func confirmCmd() *cobra.Command {
	var (
		at          string
		concurrency int
		noSnapshot  bool
	)

	cmd := &cobra.Command{
		Use:   "confirm <investment-id>...",
		Short: "Confirm pending investments, then refresh portfolio snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordedAt, err := parseAt(at)
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}

			log := logger.Get()
			settler := pipeline.NewSettler(client, concurrency, !noSnapshot, log)
			result, err := settler.Run(cmd.Context(), args, recordedAt)
			if err != nil {
				return err
			}

			for _, settleErr := range result.Errors {
				log.Warnw("Investment not confirmed",
					"investment_id", settleErr.InvestmentID,
					"error", settleErr.Err.Error(),
				)
			}
			if result.Failed() {
				return fmt.Errorf("%w: %d of %d", errPartialFailure, len(result.Errors), result.Requested)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "snapshot time in RFC3339 (defaults to the server clock)")
	cmd.Flags().IntVar(&concurrency, "concurrency", pipeline.DefaultConcurrency, "maximum confirmations in flight")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "skip recording snapshots after confirming")
	return cmd
}

func refundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <investment-id>",
		Short: "Refund a confirmed investment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			investment, err := client.RefundInvestment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			logger.Get().Infow("Investment refunded",
				"investment_id", investment.ID,
				"property_id", investment.PropertyID,
				"amount", investment.InvestmentAmount,
			)
			return nil
		},
	}
}
