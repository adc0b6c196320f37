package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/keychord/internal/ir"
)

// FormatCycle renders one cycle as a single trace line:
//
//	0002 L0 push[press 0/3] deliver[cut 0/61440 age=0]
//
// Empty sections are omitted.
func FormatCycle(c ir.Cycle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d L%d", c.Seq, c.Layer)

	section := func(label string, recs []ir.EventRecord) {
		if len(recs) == 0 {
			return
		}
		parts := make([]string, len(recs))
		for i, r := range recs {
			parts[i] = FormatEvent(r)
		}
		fmt.Fprintf(&b, " %s[%s]", label, strings.Join(parts, ", "))
	}
	section("push", c.Pushed)
	section("evict", c.Evicted)
	section("emit", c.Emitted)

	if d := c.Delivery; d != nil {
		fmt.Fprintf(&b, " deliver[%s %d/%d age=%d", d.Chord, d.Row, d.Key, d.Age)
		if d.AlsoRelease {
			b.WriteString(" tap")
		}
		b.WriteString("]")
	}

	return b.String()
}

// FormatTrace renders a whole run, one line per cycle, under a header
// naming the scenario. The output is the golden file format.
func FormatTrace(name string, cycles []ir.Cycle) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, c := range cycles {
		b.WriteString(FormatCycle(c))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file
// for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatTrace(name, result.Cycles))
}
