package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"creditregister/internal/backend"
	"creditregister/internal/cli"
	"creditregister/internal/export"
	"creditregister/internal/log"
	"creditregister/internal/report"
	"creditregister/internal/services"

	"github.com/spf13/cobra"
)

// registerApp holds the services every subcommand works on. They are built once in the
// root pre-run hook, unless a test has already filled them in.
type registerApp struct {
	ledger  *services.LedgerService
	reports *report.Engine
	cleanup func() error
}

// preRun loads configuration and opens the configured backend.
func preRun(app *registerApp) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if app.ledger != nil {
			return nil
		}
		cli.LoadEnvFile()
		logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)

		cfg, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}

		opts := []services.Option{
			services.WithLogger(logger),
			services.WithClock(func() time.Time { return time.Now().In(loc) }),
		}
		if res.Publisher != nil {
			opts = append(opts, services.WithPublisher(res.Publisher))
		}
		app.ledger = services.NewLedgerService(res.Backend, opts...)
		app.reports = report.NewEngine(res.Backend, export.NewRenderer(export.DefaultLayout), logger)
		app.cleanup = res.Cleanup
		return nil
	}
}

// newRootCmd builds the registerctl command tree around app.
func newRootCmd(app *registerApp) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "registerctl",
		Short:         "Operate the store credit register from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentPreRunE = preRun(app)

	rootCmd.AddCommand(addCommand(app))
	rootCmd.AddCommand(todayCommand(app))
	rootCmd.AddCommand(listCommand(app))
	rootCmd.AddCommand(updateCommand(app))
	rootCmd.AddCommand(deleteCommand(app))
	rootCmd.AddCommand(summaryCommand(app))
	rootCmd.AddCommand(exportCommand(app))
	return rootCmd
}

// execute runs the command tree and then releases whatever preRun opened, also when the
// command failed (cobra skips post-run hooks after an error).
func execute(ctx context.Context, app *registerApp, args []string) error {
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if app.cleanup != nil {
		if cerr := app.cleanup(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close backend: %w", cerr))
		}
		app.cleanup = nil
	}
	return err
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := execute(ctx, &registerApp{}, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
