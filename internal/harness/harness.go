package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/keychord/internal/compiler"
	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
	"github.com/roach88/keychord/internal/testutil"
)

// DefaultIgnoreWindow is the ignore window used when neither the scenario
// nor an option sets one.
const DefaultIgnoreWindow = engine.MinIgnoreWindowTicks

// Recorder receives every cycle as it completes.
type Recorder interface {
	Record(c ir.Cycle) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(c ir.Cycle) error

// Record calls f(c).
func (f RecorderFunc) Record(c ir.Cycle) error { return f(c) }

type config struct {
	logger       *slog.Logger
	hooks        engine.Hooks
	recorder     Recorder
	engineOpts   []engine.Option
	ignoreWindow uint16
	layer        uint16
}

// Option configures Run.
type Option func(*config)

// WithLogger sets the logger for the harness and the engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithHooks installs engine lifecycle hooks, e.g. metrics.
func WithHooks(h engine.Hooks) Option {
	return func(c *config) { c.hooks = h }
}

// WithRecorder sends every cycle to r. A recorder error aborts the run.
func WithRecorder(r Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithEngineOptions passes extra options to engine.New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithIgnoreWindow sets the ignore window for scenarios that do not set
// their own.
func WithIgnoreWindow(ticks uint16) Option {
	return func(c *config) { c.ignoreWindow = ticks }
}

// WithLayer sets the active layer until a step switches it.
func WithLayer(layer uint16) Option {
	return func(c *config) { c.layer = layer }
}

// Harness drives one engine through a scenario.
type Harness struct {
	engine *engine.Engine[string]
	specs  []ir.ChordSpec
	clock  *testutil.CycleClock
	cfg    config
	layer  uint16
}

// Compile loads and validates the scenario's chord fixtures in order.
func Compile(s *Scenario) ([]ir.ChordSpec, error) {
	ctx := cuecontext.New()

	specs := []ir.ChordSpec{}
	for _, path := range s.Chords {
		compiled, err := compiler.CompileFile(ctx, path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, compiled...)
	}

	if verrs := compiler.Validate(specs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = verrs[i]
		}
		return nil, fmt.Errorf("invalid chords: %w", errors.Join(errs...))
	}
	return specs, nil
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the chord fixtures into one catalog
//  2. Run every step, one engine tick per cycle
//  3. Evaluate assertions against the recorded cycles
//
// An error is returned when the scenario cannot be executed; assertion
// failures are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		ignoreWindow: DefaultIgnoreWindow,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if scenario.IgnoreWindow != 0 {
		cfg.ignoreWindow = scenario.IgnoreWindow
	}

	specs, err := Compile(scenario)
	if err != nil {
		return nil, err
	}

	cat, err := compiler.BuildCatalog(specs)
	if err != nil {
		return nil, err
	}

	hash, err := ir.CatalogHash(specs)
	if err != nil {
		return nil, fmt.Errorf("hash catalog: %w", err)
	}

	engineOpts := append([]engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithHooks(cfg.hooks),
	}, cfg.engineOpts...)

	eng, err := engine.New(cat, cfg.ignoreWindow, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	h := &Harness{
		engine: eng,
		specs:  specs,
		clock:  testutil.NewCycleClock(),
		cfg:    cfg,
		layer:  cfg.layer,
	}

	result := NewResult()
	result.CatalogHash = hash
	result.Specs = specs

	for i, step := range scenario.Steps {
		if err := h.runStep(step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	result.Active = eng.ActiveChords()
	result.QueueLen = eng.QueueLen()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError("%s", msg)
	}

	return result, nil
}

// runStep executes the cycles of one step.
func (h *Harness) runStep(step Step, result *Result) error {
	if step.Layer != nil {
		h.layer = *step.Layer
	}

	events := make([]engine.Event, len(step.Push))
	for i, s := range step.Push {
		ev, err := ParseEvent(s)
		if err != nil {
			return err
		}
		events[i] = ev
	}

	for n, cycles := 0, step.cycles(); n < cycles; n++ {
		var push []engine.Event
		if n == 0 {
			push = events
		}
		cycle := h.runCycle(push, !step.NoPoll)

		if h.cfg.recorder != nil {
			if err := h.cfg.recorder.Record(cycle); err != nil {
				return fmt.Errorf("record cycle %d: %w", cycle.Seq, err)
			}
		}
		result.Cycles = append(result.Cycles, cycle)
	}
	return nil
}

// runCycle is one scan cycle: push, tick, then at most one poll.
func (h *Harness) runCycle(push []engine.Event, poll bool) ir.Cycle {
	cycle := ir.Cycle{
		Seq:     h.clock.Next(),
		Layer:   h.layer,
		Pushed:  []ir.EventRecord{},
		Evicted: []ir.EventRecord{},
		Emitted: []ir.EventRecord{},
		Polled:  poll,
	}

	for _, ev := range push {
		cycle.Pushed = append(cycle.Pushed, recordOf(engine.Queued{Event: ev}))
		if evicted, ok := h.engine.Push(ev); ok {
			cycle.Evicted = append(cycle.Evicted, recordOf(evicted))
		}
	}

	for _, q := range h.engine.Tick(h.layer) {
		cycle.Emitted = append(cycle.Emitted, recordOf(q))
	}

	if poll {
		if d, ok := h.engine.PollAction(); ok {
			cycle.Delivery = &ir.DeliveryRecord{
				Chord:       d.Action,
				Action:      h.specs[d.Chord].Action,
				Row:         d.Coord.Row,
				Key:         uint16(d.Coord.ID),
				Age:         d.Age,
				AlsoRelease: d.AlsoRelease,
			}
		}
	}

	h.cfg.logger.Debug("cycle",
		"seq", cycle.Seq,
		"layer", cycle.Layer,
		"pushed", len(cycle.Pushed),
		"emitted", len(cycle.Emitted),
		"delivered", cycle.Delivery != nil,
	)

	return cycle
}
