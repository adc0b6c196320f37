package store

import (
	"context"

	"github.com/roach88/keychord/internal/ir"
)

// Recorder appends cycles of one run as they are produced.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string
	count int
}

// NewRecorder writes run and returns a recorder for its cycles.
func (s *Store) NewRecorder(ctx context.Context, run ir.Run) (*Recorder, error) {
	if err := s.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	return &Recorder{ctx: ctx, store: s, runID: run.ID}, nil
}

// Record stores one cycle.
func (r *Recorder) Record(c ir.Cycle) error {
	if _, _, err := r.store.WriteCycle(r.ctx, r.runID, c); err != nil {
		return err
	}
	r.count++
	return nil
}

// RunID returns the ID of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Count returns the number of cycles recorded so far.
func (r *Recorder) Count() int { return r.count }
