package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/keychord/internal/ir"
)

// OverlapWarning reports chords that interact through shared keys.
//
// Overlaps are warnings, not errors: a two-key chord inside a three-key
// chord is a normal layout, it just costs latency.
type OverlapWarning struct {
	Chords  []string `json:"chords"`
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning" or "info"
}

// AnalyzeOverlaps inspects a catalog for chords that shadow or delay each
// other:
//   - identical key sets: the later chord can never activate (warning)
//   - a key set contained in a larger one: pressing the smaller chord
//     waits up to the larger chord's pending window before firing (info)
//
// Results are in catalog order.
func AnalyzeOverlaps(specs []ir.ChordSpec) []OverlapWarning {
	warnings := []OverlapWarning{}

	sets := make([][]uint16, len(specs))
	for i, s := range specs {
		sets[i] = slices.Clone(s.Keys)
		slices.Sort(sets[i])
	}

	for i := range specs {
		for j := i + 1; j < len(specs); j++ {
			a, b := specs[i], specs[j]
			switch {
			case slices.Equal(sets[i], sets[j]):
				warnings = append(warnings, OverlapWarning{
					Chords:  []string{a.Name, b.Name},
					Message: fmt.Sprintf("%s is unreachable: same keys as %s, which comes first", b.Name, a.Name),
					Level:   "warning",
				})
			case subset(sets[i], sets[j]):
				warnings = append(warnings, delayInfo(a, b))
			case subset(sets[j], sets[i]):
				warnings = append(warnings, delayInfo(b, a))
			}
		}
	}

	return warnings
}

func delayInfo(small, large ir.ChordSpec) OverlapWarning {
	msg := fmt.Sprintf("%s waits up to %d ticks while %s can still complete",
		small.Name, large.Pending, large.Name)
	return OverlapWarning{
		Chords:  []string{small.Name, large.Name},
		Message: msg,
		Level:   "info",
	}
}

// subset reports whether sorted a is a strict subset of sorted b.
func subset(a, b []uint16) bool {
	if len(a) >= len(b) {
		return false
	}
	j := 0
	for _, k := range a {
		for j < len(b) && b[j] < k {
			j++
		}
		if j == len(b) || b[j] != k {
			return false
		}
		j++
	}
	return true
}
