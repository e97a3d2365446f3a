// Package main is the rto command line tool: run return-to-origin batches from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rtoflow/internal/app"
	"rtoflow/internal/config"
	"rtoflow/internal/domain/rto"
	"rtoflow/pkg/logger"
)

var Version = "dev"

// errJobFailed reports a finished run whose outcome should set a non-zero exit code.
var errJobFailed = errors.New("job did not create a return")

// jobRunner is implemented by rto.BatchRunner.
type jobRunner interface {
	Run(ctx context.Context, jobs []rto.ReturnJob) []rto.JobResult
	RunSingle(ctx context.Context, job rto.ReturnJob) (rto.JobResult, bool)
}

// environment is what a subcommand needs to run jobs.
type environment struct {
	runner jobRunner
	config *config.Config
	close  func()
}

// setupFunc builds the environment; workers overrides RTO_WORKERS when positive.
type setupFunc func(ctx context.Context, envFile string, workers int) (*environment, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(setup)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errJobFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd(setup setupFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rto",
		Short:         "rto - return undelivered orders to origin and restock them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before the environment")

	rootCmd.AddCommand(batchCmd(setup))
	rootCmd.AddCommand(singleCmd(setup))

	return rootCmd
}

// setup wires the real runtime. Logs go to stderr so stdout stays machine readable.
func setup(ctx context.Context, envFile string, workers int) (*environment, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt, err := app.NewRuntime(cfg, app.Options{Workers: workers})
	if err != nil {
		return nil, err
	}

	return &environment{
		runner: loggingRunner{rt.Runner, log},
		config: cfg,
		close: func() {
			if err := rt.Close(); err != nil {
				log.Warnw("runtime close", "error", err)
			}
			_ = log.Sync()
		},
	}, nil
}

// loggingRunner attaches the configured logger to every run.
type loggingRunner struct {
	runner *rto.BatchRunner
	log    *logger.Logger
}

func (r loggingRunner) Run(ctx context.Context, jobs []rto.ReturnJob) []rto.JobResult {
	return r.runner.Run(logger.WithLogger(ctx, r.log), jobs)
}

func (r loggingRunner) RunSingle(ctx context.Context, job rto.ReturnJob) (rto.JobResult, bool) {
	return r.runner.RunSingle(logger.WithLogger(ctx, r.log), job)
}
