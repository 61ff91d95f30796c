// Command horizon runs Wealth Horizon queries from the terminal or starts
// the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/di"
	"github.com/alschell/wealthhorizonai/internal/server"
	"github.com/alschell/wealthhorizonai/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	verbose bool
	cfg     *config.Config
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "horizon",
		Short: "Wealth Horizon portfolio assistant",
		Long: `horizon answers free-text portfolio questions against a seeded session:
performance, scenarios, trade ideas, trades, reports and more.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = logger.Nop()
			if opts.verbose {
				opts.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: cmd.ErrOrStderr()})
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newQueryCmd(opts), newScenariosCmd(opts), newServeCmd(opts))
	return root
}

func newQueryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "query [text]",
		Short: "Run one free-text query and print the result",
		Example: `  horizon query show holdings
  horizon query "Sell half Apple and deposit"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, err := di.Wire(ctx, opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer container.Close()

			res, err := container.Coordinator.ProcessQuery(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res.Value)
		},
	}
}

func newScenariosCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List macro scenarios by probability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.Wire(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer container.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tPROBABILITY\tHEDGE")
			for _, sc := range container.State.ScenariosByProbability() {
				fmt.Fprintf(tw, "%s\t%.2f\t%s\n", sc.Name, sc.Probability, sc.Hedge)
			}
			return tw.Flush()
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.verbose {
				opts.log = logger.New(logger.Config{Level: opts.cfg.LogLevel, Pretty: opts.cfg.DevMode})
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, opts.cfg, opts.log)
		},
	}
}

// printResult prints strings as is and everything else as indented JSON.
func printResult(w io.Writer, v any) error {
	switch val := v.(type) {
	case string:
		_, err := fmt.Fprintln(w, val)
		return err
	case []string:
		for _, line := range val {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(val)
	}
}

// executeContext runs the root command with ctx; split out for tests.
func executeContext(ctx context.Context, out io.Writer, args ...string) error {
	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
