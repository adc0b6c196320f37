package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/ir"
)

func recordRun(t *testing.T, name string) (ir.Run, []ir.Cycle) {
	t.Helper()
	s := loadTestScenario(t, name)
	result, err := Run(s)
	require.NoError(t, err)

	window := s.IgnoreWindow
	if window == 0 {
		window = DefaultIgnoreWindow
	}
	run := ir.Run{
		ID:           "run-" + name,
		Scenario:     name,
		Catalog:      result.Specs,
		CatalogHash:  result.CatalogHash,
		IgnoreWindow: window,
	}
	return run, result.Cycles
}

func TestReplay_Matches(t *testing.T) {
	for _, name := range []string{"copy_tap", "cut_beats_copy", "timeout_fallback", "esc_tap"} {
		t.Run(name, func(t *testing.T) {
			run, cycles := recordRun(t, name)

			result, err := Replay(run, cycles)
			require.NoError(t, err)
			assert.True(t, result.Match(), "mismatches: %v", result.Mismatches)
			assert.Len(t, result.Cycles, len(cycles))
		})
	}
}

func TestReplay_DetectsAlteredCycle(t *testing.T) {
	run, cycles := recordRun(t, "copy_tap")
	cycles[5].Delivery = nil

	result, err := Replay(run, cycles)
	require.NoError(t, err)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, int64(6), result.Mismatches[0].Seq)
	assert.Equal(t, "0006 L0", result.Mismatches[0].Recorded)
	assert.Equal(t, "0006 L0 deliver[copy 0/61440 age=0]", result.Mismatches[0].Replayed)
}

func TestReplay_RespectsPolling(t *testing.T) {
	run, cycles := recordRun(t, "esc_tap")
	require.False(t, cycles[0].Polled)

	// Polling on cycle 1 delivers esc before its release, so every later
	// cycle diverges.
	cycles[0].Polled = true
	result, err := Replay(run, cycles)
	require.NoError(t, err)
	assert.False(t, result.Match())
	assert.Equal(t, int64(1), result.Mismatches[0].Seq)
}

func TestReplay_CatalogHashMismatch(t *testing.T) {
	run, cycles := recordRun(t, "copy_tap")
	run.CatalogHash = "deadbeef"

	_, err := Replay(run, cycles)
	assert.ErrorContains(t, err, "catalog hash mismatch")
}

func TestReplay_BadEventKind(t *testing.T) {
	run, cycles := recordRun(t, "copy_tap")
	cycles[0].Pushed[0].Kind = "hold"

	_, err := Replay(run, cycles)
	assert.ErrorContains(t, err, `unknown event kind "hold"`)
}
