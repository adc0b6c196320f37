package harness

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/keychord/internal/compiler"
	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
	"github.com/roach88/keychord/internal/testutil"
)

// Mismatch is a cycle whose replayed output differs from the recording.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayResult is the outcome of replaying a recorded run.
type ReplayResult struct {
	Cycles     []ir.Cycle `json:"cycles"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Match reports whether every replayed cycle equals its recording.
func (r *ReplayResult) Match() bool { return len(r.Mismatches) == 0 }

// Replay feeds the pushed events of recorded cycles to a fresh engine built
// from the run's catalog, polling where the recording polled, and compares
// each resulting cycle with the recorded one.
//
// The engine is deterministic, so any mismatch means the recording came
// from a different engine version or was altered.
func Replay(run ir.Run, recorded []ir.Cycle, opts ...Option) (*ReplayResult, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	hash, err := ir.CatalogHash(run.Catalog)
	if err != nil {
		return nil, fmt.Errorf("replay: hash catalog: %w", err)
	}
	if hash != run.CatalogHash {
		return nil, fmt.Errorf("replay: catalog hash mismatch: stored %s, computed %s", run.CatalogHash, hash)
	}

	cat, err := compiler.BuildCatalog(run.Catalog)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	engineOpts := append([]engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithHooks(cfg.hooks),
	}, cfg.engineOpts...)

	eng, err := engine.New(cat, run.IgnoreWindow, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("replay: create engine: %w", err)
	}

	h := &Harness{
		engine: eng,
		specs:  run.Catalog,
		clock:  testutil.NewCycleClock(),
		cfg:    cfg,
	}

	result := &ReplayResult{Cycles: []ir.Cycle{}, Mismatches: []Mismatch{}}
	for _, rec := range recorded {
		push := make([]engine.Event, len(rec.Pushed))
		for i, r := range rec.Pushed {
			ev, err := eventOf(r)
			if err != nil {
				return nil, fmt.Errorf("replay: cycle %d: %w", rec.Seq, err)
			}
			push[i] = ev
		}

		h.layer = rec.Layer
		got := h.runCycle(push, rec.Polled)
		result.Cycles = append(result.Cycles, got)

		same, err := sameCycle(rec, got)
		if err != nil {
			return nil, fmt.Errorf("replay: cycle %d: %w", rec.Seq, err)
		}
		if !same {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:      rec.Seq,
				Recorded: FormatCycle(rec),
				Replayed: FormatCycle(got),
			})
		}
	}

	return result, nil
}

// sameCycle compares two cycles by their canonical encoding.
func sameCycle(a, b ir.Cycle) (bool, error) {
	ca, err := ir.MarshalCanonical(a.IR())
	if err != nil {
		return false, err
	}
	cb, err := ir.MarshalCanonical(b.IR())
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}

// eventOf converts a trace record back to an engine event.
func eventOf(r ir.EventRecord) (engine.Event, error) {
	var kind engine.EventKind
	switch r.Kind {
	case engine.KindPress.String():
		kind = engine.KindPress
	case engine.KindRelease.String():
		kind = engine.KindRelease
	default:
		return engine.Event{}, fmt.Errorf("unknown event kind %q", r.Kind)
	}
	return engine.Event{Kind: kind, Key: engine.Key{Row: r.Row, ID: engine.KeyID(r.Key)}}, nil
}
