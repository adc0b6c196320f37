package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/keychord/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It carries the cycles so the failure can be read against the trace.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Cycles   []ir.Cycle // Full run for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, c := range e.Cycles {
		fmt.Fprintf(&buf, "  %s\n", FormatCycle(c))
	}

	return buf.String()
}

// assertDelivered checks that a chord was delivered, optionally on a given
// cycle and with a given tap flag.
func assertDelivered(cycles []ir.Cycle, a Assertion) error {
	var seen []string
	for _, c := range cycles {
		d := c.Delivery
		if d == nil || d.Chord != a.Chord {
			continue
		}
		seen = append(seen, fmt.Sprintf("cycle %d (also_release=%t)", c.Seq, d.AlsoRelease))
		if a.Cycle != 0 && c.Seq != a.Cycle {
			continue
		}
		if a.AlsoRelease != nil && d.AlsoRelease != *a.AlsoRelease {
			continue
		}
		return nil
	}

	expected := "delivery of " + a.Chord
	if a.Cycle != 0 {
		expected += fmt.Sprintf(" on cycle %d", a.Cycle)
	}
	if a.AlsoRelease != nil {
		expected += fmt.Sprintf(" with also_release=%t", *a.AlsoRelease)
	}
	actual := "never delivered"
	if len(seen) > 0 {
		actual = "delivered on " + strings.Join(seen, ", ")
	}

	return &AssertionError{Type: AssertDelivered, Expected: expected, Actual: actual, Cycles: cycles}
}

// assertNotDelivered checks that a chord never reached the layout engine.
func assertNotDelivered(cycles []ir.Cycle, a Assertion) error {
	for _, c := range cycles {
		if c.Delivery != nil && c.Delivery.Chord == a.Chord {
			return &AssertionError{
				Type:     AssertNotDelivered,
				Expected: a.Chord + " never delivered",
				Actual:   fmt.Sprintf("delivered on cycle %d", c.Seq),
				Cycles:   cycles,
			}
		}
	}
	return nil
}

// assertEmitted checks that an event left the engine, optionally on a
// given cycle. Queue age is ignored.
func assertEmitted(cycles []ir.Cycle, a Assertion) error {
	want, err := ParseEvent(a.Event)
	if err != nil {
		return err
	}

	for _, c := range cycles {
		if a.Cycle != 0 && c.Seq != a.Cycle {
			continue
		}
		for _, r := range c.Emitted {
			if sameEvent(r, want) {
				return nil
			}
		}
	}

	expected := "emitted " + want.String()
	if a.Cycle != 0 {
		expected += fmt.Sprintf(" on cycle %d", a.Cycle)
	}
	return &AssertionError{Type: AssertEmitted, Expected: expected, Actual: "not found in trace", Cycles: cycles}
}

// assertTraceOrder checks that items appear in the given order.
// Items don't need to be consecutive; each one is matched after the
// previous match.
func assertTraceOrder(cycles []ir.Cycle, a Assertion) error {
	items := make([]traceItem, len(a.Items))
	for i, s := range a.Items {
		item, err := parseTraceItem(s)
		if err != nil {
			return err
		}
		items[i] = item
	}

	next := 0
	for _, c := range cycles {
		for _, r := range c.Emitted {
			if next < len(items) && items[next].emit != nil && sameEvent(r, *items[next].emit) {
				next++
			}
		}
		if d := c.Delivery; d != nil && next < len(items) && items[next].deliver == d.Chord {
			next++
		}
	}

	if next == len(items) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Items, " -> "),
		Actual:   fmt.Sprintf("matched up to %q, then not found", strings.Join(a.Items[:next], " -> ")),
		Cycles:   cycles,
	}
}

// assertActiveChords checks the size of the final active table.
func assertActiveChords(result *Result, a Assertion) error {
	if len(result.Active) == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertActiveChords,
		Expected: fmt.Sprintf("%d active chords", *a.Count),
		Actual:   fmt.Sprintf("%d active chords", len(result.Active)),
		Cycles:   result.Cycles,
	}
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDelivered:
			err = assertDelivered(result.Cycles, assertion)
		case AssertNotDelivered:
			err = assertNotDelivered(result.Cycles, assertion)
		case AssertEmitted:
			err = assertEmitted(result.Cycles, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Cycles, assertion)
		case AssertActiveChords:
			if assertion.Count == nil {
				err = fmt.Errorf("assertion[%d]: active_chords requires count", i)
			} else {
				err = assertActiveChords(result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
