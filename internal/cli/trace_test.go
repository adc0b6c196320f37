package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestTraceLatestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "cut_beats_copy", "run-cut")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Run: run-tap (copy_tap)")
	assert.Contains(t, out, "Status: Complete")
	assert.Contains(t, out, "=== Timeline ===")
	assert.Contains(t, out, "  0001 L0 push[press 0/1, press 0/2]\n")
	assert.Contains(t, out, "  0006 L0 deliver[copy 0/61440 age=0]\n")
	assert.Contains(t, out, "  0007 L0 push[release 0/1, release 0/2] emit[release 0/61440]\n")
	assert.Contains(t, out, "=== Deliveries ===")
	assert.Regexp(t, `copy\s+1`, out)
	assert.Contains(t, out, "Cycles:     7")
	assert.NotContains(t, out, "Held:")
}

func TestTraceSpecificRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "cut_beats_copy", "run-cut")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--run", "run-cut")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Run: run-cut (cut_beats_copy)")
	assert.Contains(t, out, "deliver[cut 0/61440 age=0]")
	assert.NotContains(t, out, "deliver[copy")
}

func TestTraceChordFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--chord", "copy")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, int64(6), resp.Data.Timeline[0].Seq)
	assert.Equal(t, "0006 L0 deliver[copy 0/61440 age=0]", resp.Data.Timeline[0].Line)

	// Stats always cover the whole run.
	assert.Equal(t, 7, resp.Data.Stats.Cycles)
}

func TestTraceChordFilterNoMatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--chord", "esc")
	require.NoError(t, err)
	assert.Contains(t, out, "(no cycles)")
}

func TestTraceJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_hold", "run-hold")

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data
	assert.Equal(t, "run-hold", data.RunID)
	assert.Equal(t, "copy_hold", data.Scenario)
	assert.Len(t, data.CatalogHash, 64)
	assert.Equal(t, uint16(6), data.IgnoreWindow)
	assert.Len(t, data.Timeline, 6)
	require.Len(t, data.Deliveries, 1)
	assert.Equal(t, "copy", data.Deliveries[0].Chord)
	assert.Equal(t, 1, data.Deliveries[0].Count)

	assert.Equal(t, int64(6), data.Stats.LastSeq)
	assert.False(t, data.Stats.IsComplete)
	assert.Equal(t, []string{"0/61440"}, data.Stats.OpenCoords)
}

func TestTraceHeldChord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_hold", "run-hold")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Status: Incomplete (chords still held)")
	assert.Contains(t, out, "Held:       [0/61440]")
}

func TestTraceRunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run not found: missing")
}

func TestTraceIncomplete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_tap", "run-tap")
	recordScenario(t, dbPath, "copy_hold", "run-hold")

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--incomplete")
	require.NoError(t, err)

	assert.Contains(t, out, "run-hold (copy_hold): 6 cycles, held [0/61440]")
	assert.NotContains(t, out, "run-tap")
}

func TestTraceIncompleteNone(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordScenario(t, dbPath, "copy_tap", "run-tap")

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewTraceCommand(rootOpts), "--db", dbPath, "--incomplete")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   []IncompleteRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data)
}

func TestTraceRejectsArgs(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewTraceCommand(rootOpts), "extra")
	require.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"short", "short"},
		{"exactly16chars!!", "exactly16chars!!"},
		{"0190a0c2-7b3e-7f00-8000-0123456789ab", "0190a0c2...456789ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateID(tt.input))
		})
	}
}

func TestCompleteStatus(t *testing.T) {
	assert.Equal(t, "Complete", completeStatus(true))
	assert.Equal(t, "Incomplete (chords still held)", completeStatus(false))
}
