// Package main provides the toolpilot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/toolpilot/cli"
	"github.com/richinex/toolpilot/config"
	"github.com/richinex/toolpilot/internal/logging"
)

var (
	// Global flags
	configPath  string
	logLevel    string
	metricsAddr string
	jsonOutput  bool
	verbose     bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "toolpilot",
		Short: "Retrieve, rerank and plan tool calls for natural-language requests",
		Long: `toolpilot maps a natural-language request to a structured tool-call plan.

A request is split into sub-intents, each sub-intent retrieves candidate
tools from a vector index, the candidates are reranked, and a planner
turns the best of them into steps with named arguments.

Build the index once from a dataset, then plan or run queries against it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Settings file (.json, .jsonc, .yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while the command runs")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(historyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads settings, configures logging and starts the optional
// metrics listener. The returned function releases what setup started.
func setup() (cli.Options, func(), error) {
	settings, err := config.New(configPath)
	if err != nil {
		return cli.Options{}, nil, err
	}
	if logLevel != "" {
		settings.Log.Level = logLevel
	}
	logging.Init(settings.Log.Level, settings.Log.Format)

	done := func() {}
	if metricsAddr != "" {
		done = cli.ServeMetrics(metricsAddr, logging.Component("metrics"))
	}

	opts := cli.Options{
		Settings: settings,
		Out:      os.Stdout,
		JSON:     jsonOutput,
		Verbose:  verbose,
	}
	return opts, done, nil
}

func buildCmd() *cobra.Command {
	var datasets []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Ingest datasets and build the vector index",
		Long: `Ingest tool definitions from dataset files (JSON array or NDJSON) and
write the vector index and its metadata. Without --dataset the configured
dataset paths are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			return cli.Build(cmd.Context(), datasets, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&datasets, "dataset", "d", nil, "Dataset file (repeatable)")

	return cmd
}

func planCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "plan [query]",
		Short: "Plan tool calls for a query without executing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			return cli.Plan(cmd.Context(), args[0], count, opts)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Candidates kept after reranking (default: response_count)")

	return cmd
}

func runCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Plan a query and execute the plan",
		Long: `Plan a query and execute the plan against the demo registry, in which
every indexed tool echoes back the arguments it was called with.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			return cli.Run(cmd.Context(), args[0], count, opts)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Candidates kept after reranking (default: response_count)")

	return cmd
}

func toolsCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List indexed tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			return cli.ListTools(prefix, opts)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list tools whose name starts with this prefix")

	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded requests, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			return cli.History(cmd.Context(), limit, opts)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of requests (0 for all)")

	return cmd
}
