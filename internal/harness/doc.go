// Package harness runs keystroke scenarios against the chord engine.
//
// A scenario loads one or more chord fixtures, drives the engine through a
// scripted sequence of scan cycles and checks the observable output: the
// events handed to the layout engine and the chord deliveries.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: copy_tap
//	description: "Two keys pressed together deliver copy"
//	chords:
//	  - ../chords/basic.cue
//	ignore_window: 6
//	steps:
//	  - push: ["press 1", "press 2"]
//	    ticks: 6
//	  - push: ["release 1", "release 2"]
//	assertions:
//	  - type: delivered
//	    chord: copy
//	    cycle: 6
//	  - type: trace_order
//	    items: ["deliver copy", "emit release 0/61440"]
//
// Chord paths are relative to the scenario file.
//
// Each step is one or more scan cycles. The step's events are pushed in the
// first cycle only; every cycle then ticks the engine on the current layer
// and polls for at most one delivery. A step may set layer, which sticks
// for the following steps, and may set no_poll to skip polling.
//
// Events are written "press 12" for a physical key or "release 3/7" for
// key 7 on row 3.
//
// # Assertion Types
//
//   - delivered: a chord was delivered, optionally on a given cycle and
//     with a given also_release flag
//   - not_delivered: a chord was never delivered
//   - emitted: an event reached the layout engine, optionally on a cycle
//   - trace_order: deliveries and emitted events occur in the given order
//   - active_chords: the number of chords still active after the last cycle
//
// # Determinism
//
// The engine has no clock of its own: time is the cycle count. Running a
// scenario twice yields the same cycles byte for byte, so the text trace
// produced by FormatTrace is compared against golden files.
package harness
