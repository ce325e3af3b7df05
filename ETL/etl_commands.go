package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// cliOptions are the flags shared by every command
type cliOptions struct {
	configPath  string
	inputDir    string
	metricsAddr string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "etl_runner",
		Short: "Reconcile the shuttle ticket, service and validation exports",
		Long: `etl_runner reads the tickets*, servicios* and validaciones* exports of an
input directory, reconciles them into combined records and stores the result.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&opts.inputDir, "input-dir", "", "input directory, overrides input_dir")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		&cobra.Command{
			Use:   "once",
			Short: "Run the pipeline once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), opts, func(ctx context.Context, r *ETLRunner) error {
					_, err := r.ExecuteETL(ctx)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "scheduled",
			Short: "Run the pipeline every run_interval",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), opts, func(ctx context.Context, r *ETLRunner) error {
					return r.StartScheduler(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Run the pipeline whenever the input directory changes",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), opts, func(ctx context.Context, r *ETLRunner) error {
					return r.Watch(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the run log summary as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), opts, func(ctx context.Context, r *ETLRunner) error {
					state, err := r.Status()
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(state)
				})
			},
		},
	)
	return root
}

// withRunner loads the configuration, builds a runner and calls fn with it
func withRunner(ctx context.Context, opts *cliOptions, fn func(ctx context.Context, r *ETLRunner) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.inputDir != "" {
		cfg.InputDir = opts.inputDir
	}

	logger, err := utils.NewETLLogger(utils.LoggerOptions{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Verbose: cfg.EnableDetailedLogging,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Close()

	runner, err := NewETLRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.metricsAddr != "" {
		srv := &http.Server{Addr: opts.metricsAddr, Handler: runner.metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	return fn(ctx, runner)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
