package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keychord/internal/harness"
	"github.com/roach88/keychord/internal/ir"
	"github.com/roach88/keychord/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	RunID      string // optional - latest run when empty
	Chord      string // optional - only cycles delivering this chord
	Incomplete bool   // list runs with chords still held
}

// TraceCycle is one recorded cycle with its rendered trace line.
type TraceCycle struct {
	ir.Cycle
	Line string `json:"line"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	Cycles     int      `json:"cycles"`
	LastSeq    int64    `json:"last_seq"`
	Deliveries int      `json:"deliveries"`
	OpenCoords []string `json:"open_coords"`
	IsComplete bool     `json:"is_complete"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID        string                `json:"run_id"`
	Scenario     string                `json:"scenario"`
	CatalogHash  string                `json:"catalog_hash"`
	IgnoreWindow uint16                `json:"ignore_window"`
	Timeline     []TraceCycle          `json:"timeline"`
	Deliveries   []store.DeliveryCount `json:"deliveries"`
	Stats        TraceStats            `json:"stats"`
}

// IncompleteRun is a run that ended with chords still held.
type IncompleteRun struct {
	RunID      string   `json:"run_id"`
	Scenario   string   `json:"scenario"`
	Cycles     int      `json:"cycles"`
	OpenCoords []string `json:"open_coords"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the cycles of a recorded run",
		Long: `Print the recorded cycles of a run, one line per scan cycle, in the
golden trace format.

The output includes:
- Timeline: every cycle with its pushes, evictions, emitted events and delivery
- Deliveries: number of deliveries per chord
- Stats: cycle count and virtual coordinates left pressed at the end

With --incomplete, lists every run that ended with a delivered chord
whose virtual release was never emitted.

Examples:
  keychord trace --db ./keychord.db
  keychord trace --db ./keychord.db --run 0190a0c2-... --chord copy
  keychord trace --db ./keychord.db --incomplete
  keychord trace --db ./keychord.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Incomplete {
				return runIncomplete(opts, cmd)
			}
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default paths.db from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (default: latest run)")
	cmd.Flags().StringVar(&opts.Chord, "chord", "", "only show cycles delivering this chord")
	cmd.Flags().BoolVar(&opts.Incomplete, "incomplete", false, "list runs that ended with chords held")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.dbPath(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if errors.Is(err, store.ErrRunNotFound) {
			if formatter.JSON() {
				return formatter.Success(TraceResult{Timeline: []TraceCycle{}, Deliveries: []store.DeliveryCount{}})
			}
			fmt.Fprintln(formatter.Writer, "No runs found in database.")
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read latest run", err)
		}
		runID = latest.ID
	}

	state, err := st.GetRunState(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get run state", err)
	}

	cycles, err := st.ReadCycles(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read cycles", err)
	}

	deliveries, err := st.CountDeliveries(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count deliveries", err)
	}

	result := TraceResult{
		RunID:        state.Run.ID,
		Scenario:     state.Run.Scenario,
		CatalogHash:  state.Run.CatalogHash,
		IgnoreWindow: state.Run.IgnoreWindow,
		Timeline:     buildTimeline(cycles, opts.Chord),
		Deliveries:   deliveries,
		Stats: TraceStats{
			Cycles:     state.Cycles,
			LastSeq:    state.LastSeq,
			Deliveries: state.Deliveries,
			OpenCoords: state.OpenCoords,
			IsComplete: state.IsComplete,
		},
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, formatter.Verbose)
}

// buildTimeline renders cycles. When chord is set, only cycles that
// delivered it are kept.
func buildTimeline(cycles []ir.Cycle, chord string) []TraceCycle {
	timeline := []TraceCycle{}
	for _, c := range cycles {
		if chord != "" && (c.Delivery == nil || c.Delivery.Chord != chord) {
			continue
		}
		timeline = append(timeline, TraceCycle{Cycle: c, Line: harness.FormatCycle(c)})
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s (%s)\n", result.RunID, result.Scenario)
	fmt.Fprintf(w, "Status: %s\n", completeStatus(result.Stats.IsComplete))
	if verbose {
		fmt.Fprintf(w, "Catalog: %s\n", result.CatalogHash)
		fmt.Fprintf(w, "Ignore window: %d ticks\n", result.IgnoreWindow)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no cycles)")
	}
	for _, c := range result.Timeline {
		fmt.Fprintf(w, "  %s\n", c.Line)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Deliveries ===")
	if len(result.Deliveries) == 0 {
		fmt.Fprintln(w, "  (no deliveries)")
	}
	for _, d := range result.Deliveries {
		fmt.Fprintf(w, "  %-16s %d\n", d.Chord, d.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Cycles:     %d\n", result.Stats.Cycles)
	fmt.Fprintf(w, "  Deliveries: %d\n", result.Stats.Deliveries)
	if len(result.Stats.OpenCoords) > 0 {
		fmt.Fprintf(w, "  Held:       %v\n", result.Stats.OpenCoords)
	}

	return nil
}

func runIncomplete(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.dbPath(opts.Database))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	states, err := st.FindIncompleteRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find incomplete runs", err)
	}

	runs := make([]IncompleteRun, len(states))
	for i, s := range states {
		runs[i] = IncompleteRun{
			RunID:      s.Run.ID,
			Scenario:   s.Run.Scenario,
			Cycles:     s.Cycles,
			OpenCoords: s.OpenCoords,
		}
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No incomplete runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s (%s): %d cycles, held %v\n", truncateID(r.RunID), r.Scenario, r.Cycles, r.OpenCoords)
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// completeStatus returns a human-readable completion status.
func completeStatus(isComplete bool) string {
	if isComplete {
		return "Complete"
	}
	return "Incomplete (chords still held)"
}
