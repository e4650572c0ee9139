// Command execution for CLI commands.
//
// Information Hiding:
// - Index, history and pipeline setup hidden
// - Demo tool registry hidden
// - Output formatting hidden

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/catalog"
	"github.com/richinex/toolpilot/config"
	"github.com/richinex/toolpilot/index"
	"github.com/richinex/toolpilot/internal/logging"
	"github.com/richinex/toolpilot/metrics"
	"github.com/richinex/toolpilot/model"
	"github.com/richinex/toolpilot/pipeline"
	"github.com/richinex/toolpilot/storage"
	"github.com/richinex/toolpilot/tools"
)

// Options holds CLI execution options.
type Options struct {
	Settings config.Settings
	Out      io.Writer
	JSON     bool
	Verbose  bool
}

// Build ingests the datasets (the configured ones when none are given)
// and writes a fresh artifact pair.
func Build(ctx context.Context, datasets []string, opts Options) error {
	if len(datasets) == 0 {
		datasets = opts.Settings.Paths.Datasets
	}
	if len(datasets) == 0 {
		return fmt.Errorf("no dataset given")
	}

	logger := logging.Component("build")
	entries, err := catalog.Load(logger, datasets...)
	if err != nil {
		return err
	}

	store, err := newStore(opts.Settings)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := store.Add(ctx, e.ToolID, e.Text, e.Info); err != nil {
			return err
		}
	}
	if err := store.Build(ctx); err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "Indexed %d tools from %d dataset(s)\n", store.Len(), len(datasets))
	fmt.Fprintf(opts.Out, "  vectors:  %s\n", opts.Settings.Paths.Index)
	fmt.Fprintf(opts.Out, "  metadata: %s\n", opts.Settings.Paths.Metadata)
	return nil
}

// Plan answers a query with a plan, without executing it.
func Plan(ctx context.Context, query string, count int, opts Options) error {
	client, cleanup, err := newClient(opts.Settings, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.PlanQuery(ctx, pipeline.Request{Query: query, Count: count})
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(opts.Out, resp)
	}
	printResponse(opts.Out, resp, opts.Verbose)
	return nil
}

// Run plans a query and executes the plan against the demo registry, in
// which every indexed tool echoes its arguments.
func Run(ctx context.Context, query string, count int, opts Options) error {
	store, err := loadStore(opts.Settings)
	if err != nil {
		return err
	}
	registry, err := demoRegistry(store)
	if err != nil {
		return err
	}

	client, cleanup, err := newClientWithStore(opts.Settings, store, registry)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.Run(ctx, pipeline.Request{Query: query, Count: count})
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(opts.Out, resp)
	}
	printResponse(opts.Out, resp.Response, opts.Verbose)
	printExecution(opts.Out, resp.Execution)
	return nil
}

// ListTools lists indexed tools whose name starts with prefix.
func ListTools(prefix string, opts Options) error {
	store, err := loadStore(opts.Settings)
	if err != nil {
		return err
	}

	records := store.WithPrefix(prefix)
	if opts.JSON {
		return writeJSON(opts.Out, records)
	}

	fmt.Fprintf(opts.Out, "Indexed tools (%d):\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(opts.Out, "  %s  [%s]\n", r.Name, r.APIName)
		if r.Description != "" {
			fmt.Fprintf(opts.Out, "    %s\n", truncateString(r.Description, maxDescriptionLen))
		}
		if opts.Verbose {
			fmt.Fprintf(opts.Out, "    id: %s\n", r.ToolID)
			printParams(opts.Out, "required", r.Parameters.Required)
			printParams(opts.Out, "optional", r.Parameters.Optional)
		}
		fmt.Fprintln(opts.Out)
	}
	return nil
}

// History lists the most recent recorded requests.
func History(ctx context.Context, limit int, opts Options) error {
	history, err := storage.OpenSqlite(opts.Settings.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer history.Close()

	records, err := history.ListRequests(ctx, limit)
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(opts.Out, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(opts.Out, "No requests recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(opts.Out, "%s  %s  %-8s steps=%d candidates=%d  %s\n",
			r.CreatedAt.Format(time.RFC3339), r.RequestID, r.Status, r.Steps, r.Candidates,
			truncateString(r.Query, maxQueryLen))
		if r.Error != "" {
			fmt.Fprintf(opts.Out, "    error: %s\n", r.Error)
		}
	}
	return nil
}

// ServeMetrics exposes the prometheus handler on addr until the returned
// stop function is called.
func ServeMetrics(addr string, logger zerolog.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// Helper functions

func newStore(settings config.Settings) (*index.Store, error) {
	embedder, err := pipeline.NewEmbedder(settings)
	if err != nil {
		return nil, err
	}
	return pipeline.NewStore(settings, embedder, logging.Component("index")), nil
}

func loadStore(settings config.Settings) (*index.Store, error) {
	store, err := newStore(settings)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w (run `toolpilot build` first)", err)
		}
		return nil, err
	}
	return store, nil
}

func newClient(settings config.Settings, registry *tools.Registry) (*pipeline.Client, func(), error) {
	store, err := loadStore(settings)
	if err != nil {
		return nil, nil, err
	}
	return newClientWithStore(settings, store, registry)
}

// newClientWithStore wires the pipeline with request history. A history
// database that cannot be opened disables history rather than failing.
func newClientWithStore(settings config.Settings, store *index.Store, registry *tools.Registry) (*pipeline.Client, func(), error) {
	logger := logging.Component("cli")
	cleanup := func() {}

	var history storage.HistoryStorage
	if settings.Paths.HistoryDB != "" {
		db, err := storage.OpenSqlite(settings.Paths.HistoryDB)
		if err != nil {
			logger.Warn().Err(err).Msg("request history disabled")
		} else {
			history = db
			cleanup = func() { _ = db.Close() }
		}
	}

	client, err := pipeline.FromSettings(settings, store, registry, history, logging.Component("pipeline"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

func demoRegistry(store *index.Store) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	for _, r := range store.WithPrefix("") {
		if err := registry.Register(r.ToolID, tools.Echo(r.ToolID)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

const (
	maxDescriptionLen = 120
	maxQueryLen       = 60
	maxOutputLen      = 200
)

func printResponse(w io.Writer, resp pipeline.Response, verbose bool) {
	fmt.Fprintf(w, "Request %s\n", resp.RequestID)
	fmt.Fprintf(w, "Query: %s\n\n", resp.Query)

	if verbose {
		fmt.Fprintln(w, "--- Candidates ---")
		for i, c := range resp.Candidates {
			fmt.Fprintf(w, "[%d] %.4f  %s  [%s]\n", i+1, c.Score, c.Name, c.APIName)
		}
		fmt.Fprintln(w, "------------------")
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Plan (%s):\n", resp.Plan.Strategy)
	if len(resp.Plan.Steps) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for i, step := range resp.Plan.Steps {
		args, _ := json.Marshal(step.Arguments)
		fmt.Fprintf(w, "  %d. %s  %s\n", i+1, step.Name, args)
	}
	if resp.Plan.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", resp.Plan.Notes)
	}

	if verbose && len(resp.Timings) > 0 {
		stages := []string{pipeline.StageSegment, pipeline.StageRetrieval, pipeline.StageRerank, pipeline.StagePlan, pipeline.StageExecute}
		var parts []string
		for _, stage := range stages {
			if ms, ok := resp.Timings[stage]; ok {
				parts = append(parts, fmt.Sprintf("%s=%.1fms", stage, ms))
			}
		}
		fmt.Fprintf(w, "Timings: %s\n", strings.Join(parts, " "))
	}
}

func printExecution(w io.Writer, result model.ExecutionResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Execution ---")
	for i, r := range result.StepResults {
		fmt.Fprintf(w, "[%d] %s: %s\n", i+1, r.ToolID, r.Status)
		switch r.Status {
		case model.StatusOK:
			out, _ := json.Marshal(r.Output)
			fmt.Fprintf(w, "    Output: %s\n", truncateString(string(out), maxOutputLen))
		case model.StatusError:
			fmt.Fprintf(w, "    Error: %s\n", r.Error)
		case model.StatusSkipped:
			fmt.Fprintf(w, "    Reason: %s\n", r.Reason)
		}
	}
	fmt.Fprintln(w, "-----------------")
}

func printParams(w io.Writer, label string, params []model.Param) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(w, "    %s:\n", label)
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = "?"
		}
		fmt.Fprintf(w, "      %s: %s", p.Name, typ)
		if p.Description != "" {
			fmt.Fprintf(w, " - %s", truncateString(p.Description, maxDescriptionLen))
		}
		fmt.Fprintln(w)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
