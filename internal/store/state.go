package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/keychord/internal/ir"
)

// RunState summarizes a recorded run.
type RunState struct {
	Run        ir.Run
	Cycles     int
	LastSeq    int64
	Deliveries int

	// OpenCoords are virtual coordinates ("row/key") that were delivered
	// but whose virtual release was never emitted, in delivery order.
	OpenCoords []string

	// IsComplete is true when the run has cycles and every delivered
	// chord was released again.
	IsComplete bool
}

// GetRunState reads a run and analyzes its cycles.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}

	cycles, err := s.ReadCycles(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}

	return analyzeRun(run, cycles), nil
}

// analyzeRun pairs each delivery with the later virtual release on the
// same coordinate. Coordinates are reused, so pairing is in order.
func analyzeRun(run ir.Run, cycles []ir.Cycle) RunState {
	state := RunState{Run: run, Cycles: len(cycles), OpenCoords: []string{}}

	for _, c := range cycles {
		if c.Seq > state.LastSeq {
			state.LastSeq = c.Seq
		}
		for _, e := range c.Emitted {
			if e.Kind != "release" {
				continue
			}
			coord := fmt.Sprintf("%d/%d", e.Row, e.Key)
			if i := slices.Index(state.OpenCoords, coord); i >= 0 {
				state.OpenCoords = slices.Delete(state.OpenCoords, i, i+1)
			}
		}
		if d := c.Delivery; d != nil {
			state.Deliveries++
			state.OpenCoords = append(state.OpenCoords, fmt.Sprintf("%d/%d", d.Row, d.Key))
		}
	}

	state.IsComplete = state.Cycles > 0 && len(state.OpenCoords) == 0
	return state
}

// FindIncompleteRuns returns every run that ended with chords still held
// or that recorded no cycles, in recording order.
func (s *Store) FindIncompleteRuns(ctx context.Context) ([]RunState, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("find incomplete runs: %w", err)
	}

	incomplete := []RunState{}
	for _, run := range runs {
		cycles, err := s.ReadCycles(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("find incomplete runs: %w", err)
		}
		if state := analyzeRun(run, cycles); !state.IsComplete {
			incomplete = append(incomplete, state)
		}
	}
	return incomplete, nil
}
