package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keychord/internal/harness"
	"github.com/roach88/keychord/internal/ir"
	"github.com/roach88/keychord/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID      string             `json:"run_id"`
	Scenario   string             `json:"scenario"`
	Cycles     int                `json:"cycles"`
	Deliveries int                `json:"deliveries"`
	IsComplete bool               `json:"is_complete"`
	Match      bool               `json:"match"`
	Mismatches []harness.Mismatch `json:"mismatches,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs      []ReplayRunResult `json:"runs"`
	TotalRuns int               `json:"total_runs"`
	AllMatch  bool              `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [scenario]",
		Short: "Replay recorded runs and compare every cycle",
		Long: `Replay recorded runs against the current engine.

Each run's stored catalog is rebuilt, its recorded pushes, layers and
polls are fed to a fresh engine, and every resulting cycle must equal the
recorded one.

With a scenario file, only runs of that scenario are replayed and the
scenario's fixtures must still compile to the recorded catalog hash.

Exit codes:
  0 - Every replayed cycle matches its recording
  1 - A cycle differs, or the fixtures changed since recording
  2 - Command error (database not found, run not found, etc.)

Examples:
  keychord replay --db ./keychord.db
  keychord replay --db ./keychord.db --run 0190a0c2-...
  keychord replay --db ./keychord.db ./scenarios/copy_tap.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := ""
			if len(args) == 1 {
				scenario = args[0]
			}
			return runReplay(opts, scenario, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default paths.db from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, scenarioFile string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	var scenario *harness.Scenario
	var fixtureHash string
	if scenarioFile != "" {
		s, err := harness.LoadScenario(scenarioFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		specs, err := harness.Compile(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to compile chords", err)
		}
		if fixtureHash, err = ir.CatalogHash(specs); err != nil {
			return WrapExitError(ExitCommandError, "failed to hash catalog", err)
		}
		scenario = s
	}

	st, err := store.Open(opts.dbPath(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := selectRuns(ctx, st, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	if scenario != nil {
		matching := runs[:0]
		for _, r := range runs {
			if r.Scenario == scenario.Name {
				matching = append(matching, r)
			}
		}
		runs = matching
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(runs)),
		TotalRuns: len(runs),
		AllMatch:  true,
	}

	for _, run := range runs {
		runResult, err := replayRun(ctx, st, run, fixtureHash, opts, cmd)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}

		result.Runs = append(result.Runs, runResult)
		if !runResult.Match {
			result.AllMatch = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// selectRuns returns the requested run, or every run in recording order.
func selectRuns(ctx context.Context, st *store.Store, runID string) ([]ir.Run, error) {
	if runID == "" {
		return st.ListRuns(ctx)
	}
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return []ir.Run{run}, nil
}

// replayRun replays one run. A changed fixture hash or a rejected
// catalog is reported as a mismatch, not a command error.
func replayRun(ctx context.Context, st *store.Store, run ir.Run, fixtureHash string, opts *ReplayOptions, cmd *cobra.Command) (ReplayRunResult, error) {
	state, err := st.GetRunState(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}
	cycles, err := st.ReadCycles(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	out := ReplayRunResult{
		RunID:      run.ID,
		Scenario:   run.Scenario,
		Cycles:     state.Cycles,
		Deliveries: state.Deliveries,
		IsComplete: state.IsComplete,
	}

	if fixtureHash != "" && fixtureHash != run.CatalogHash {
		out.Error = fmt.Sprintf("fixtures changed since recording: catalog hash %s, recorded %s", fixtureHash, run.CatalogHash)
		return out, nil
	}

	cfg := opts.Config()
	replayed, err := harness.Replay(run, cycles,
		harness.WithLogger(opts.Logger(cmd)),
		harness.WithEngineOptions(cfg.EngineOptions()...),
	)
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}

	out.Mismatches = replayed.Mismatches
	out.Match = replayed.Match()
	return out, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if result.AllMatch {
		return formatter.Success(result)
	}

	if err := formatter.Failure(result, ErrCodeReplayFailed, "replay differs from recording"); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "replay differs from recording")
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Match {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.Scenario)

		if formatter.Verbose {
			fmt.Fprintf(w, "  Cycles: %d\n", run.Cycles)
			fmt.Fprintf(w, "  Deliveries: %d\n", run.Deliveries)
			fmt.Fprintf(w, "  Complete: %v\n", run.IsComplete)
		} else {
			fmt.Fprintf(w, "  %d cycles, %d deliveries\n", run.Cycles, run.Deliveries)
		}

		if run.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", run.Error)
		}
		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "  cycle %d differs\n", m.Seq)
			fmt.Fprintf(w, "    recorded: %s\n", m.Recorded)
			fmt.Fprintf(w, "    replayed: %s\n", m.Replayed)
		}
		fmt.Fprintln(w)
	}

	if result.AllMatch {
		fmt.Fprintln(w, "✓ All runs replay identically")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay differs from recording")
	return NewExitError(ExitFailure, "replay differs from recording")
}
