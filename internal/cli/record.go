package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keychord/internal/harness"
	"github.com/roach88/keychord/internal/ir"
	"github.com/roach88/keychord/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - generated when empty

	ids store.RunIDGenerator
}

// RecordResult describes a recorded run.
type RecordResult struct {
	RunID       string   `json:"run_id"`
	Scenario    string   `json:"scenario"`
	CatalogHash string   `json:"catalog_hash"`
	Cycles      int      `json:"cycles"`
	Deliveries  int      `json:"deliveries"`
	Pass        bool     `json:"pass"`
	Errors      []string `json:"errors,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts, ids: store.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "record <scenario>",
		Short: "Run a scenario and record its cycles",
		Long: `Run a scenario and persist every scan cycle to the trace store.

The run stores the compiled catalog and its hash, so it can be replayed
later without the fixtures.

Exit codes:
  0 - Recorded, all assertions passed
  1 - Recorded, but assertions failed
  2 - Command error (scenario not found, database error)

Examples:
  keychord record --db ./keychord.db ./scenarios/copy_tap.yaml
  keychord record --db ./keychord.db --run-id nightly-1 ./scenarios/esc_tap.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default paths.db from config)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run ID (default: generated UUIDv7)")

	return cmd
}

func runRecord(opts *RecordOptions, scenarioFile string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	specs, err := harness.Compile(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile chords", err)
	}

	hash, err := ir.CatalogHash(specs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash catalog", err)
	}

	ignoreWindow := scenario.IgnoreWindow
	if ignoreWindow == 0 {
		ignoreWindow = opts.Config().IgnoreWindow
	}

	runID := opts.RunID
	if runID == "" {
		runID = opts.ids.Generate()
	}

	run := ir.Run{
		ID:            runID,
		Scenario:      scenario.Name,
		Catalog:       specs,
		CatalogHash:   hash,
		IgnoreWindow:  ignoreWindow,
		IRVersion:     ir.IRVersion,
		EngineVersion: ir.EngineVersion,
	}

	st, err := store.Open(opts.dbPath(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.NewRecorder(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write run", err)
	}

	runOpts := append(opts.harnessOptions(cmd),
		harness.WithIgnoreWindow(ignoreWindow),
		harness.WithRecorder(rec),
	)
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	opts.Logger(cmd).Info("run recorded", "run", rec.RunID(), "scenario", scenario.Name, "cycles", rec.Count())

	out := RecordResult{
		RunID:       rec.RunID(),
		Scenario:    scenario.Name,
		CatalogHash: hash,
		Cycles:      rec.Count(),
		Deliveries:  len(result.Deliveries()),
		Pass:        result.Pass,
		Errors:      result.Errors,
	}

	if !out.Pass {
		msg := fmt.Sprintf("run %s recorded with %d failed assertion(s)", out.RunID, len(out.Errors))
		if formatter.JSON() {
			if err := formatter.Failure(out, ErrCodeTestFailed, msg); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", msg)
			for _, e := range out.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", e)
			}
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "✓ Recorded %s: %d cycles, %d deliveries\n", out.Scenario, out.Cycles, out.Deliveries)
	fmt.Fprintf(formatter.Writer, "Run: %s\n", out.RunID)
	formatter.VerboseLog("catalog hash %s", out.CatalogHash)
	return nil
}
