package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/ir"
)

func TestAnalyzeRun(t *testing.T) {
	run := createTestRun("run-1")

	tests := []struct {
		name     string
		cycles   []ir.Cycle
		open     []string
		complete bool
	}{
		{
			name:     "no cycles",
			cycles:   nil,
			open:     []string{},
			complete: false,
		},
		{
			name:     "no deliveries",
			cycles:   []ir.Cycle{createTestCycle(1), createTestCycle(2)},
			open:     []string{},
			complete: true,
		},
		{
			name: "delivered and released",
			cycles: []ir.Cycle{
				delivered(createTestCycle(1), "copy", 0xF000),
				releasing(createTestCycle(2), 0xF000),
			},
			open:     []string{},
			complete: true,
		},
		{
			name: "still held",
			cycles: []ir.Cycle{
				delivered(createTestCycle(1), "copy", 0xF000),
				delivered(createTestCycle(2), "esc", 0xF001),
				releasing(createTestCycle(3), 0xF000),
			},
			open:     []string{"0/61441"},
			complete: false,
		},
		{
			name: "coordinate reused",
			cycles: []ir.Cycle{
				delivered(createTestCycle(1), "copy", 0xF000),
				releasing(createTestCycle(2), 0xF000),
				delivered(createTestCycle(3), "copy", 0xF000),
			},
			open:     []string{"0/61440"},
			complete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := analyzeRun(run, tt.cycles)
			assert.Equal(t, tt.open, state.OpenCoords)
			assert.Equal(t, tt.complete, state.IsComplete)
			assert.Equal(t, len(tt.cycles), state.Cycles)
		})
	}
}

func TestGetRunState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	for _, c := range []ir.Cycle{
		delivered(createTestCycle(1), "copy", 0xF000),
		createTestCycle(2),
		releasing(createTestCycle(3), 0xF000),
	} {
		_, _, err := s.WriteCycle(ctx, "run-1", c)
		require.NoError(t, err)
	}

	state, err := s.GetRunState(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", state.Run.ID)
	assert.Equal(t, 3, state.Cycles)
	assert.Equal(t, int64(3), state.LastSeq)
	assert.Equal(t, 1, state.Deliveries)
	assert.True(t, state.IsComplete)

	_, err = s.GetRunState(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFindIncompleteRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writeTestRun(t, s, "done")
	writeTestRun(t, s, "held")
	writeTestRun(t, s, "empty")

	_, _, err := s.WriteCycle(ctx, "done", releasing(delivered(createTestCycle(1), "copy", 0xF000), 0xF000))
	require.NoError(t, err)
	_, _, err = s.WriteCycle(ctx, "done", releasing(createTestCycle(2), 0xF000))
	require.NoError(t, err)
	_, _, err = s.WriteCycle(ctx, "held", delivered(createTestCycle(1), "esc", 0xF000))
	require.NoError(t, err)

	incomplete, err := s.FindIncompleteRuns(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 2)
	assert.Equal(t, "held", incomplete[0].Run.ID)
	assert.Equal(t, []string{"0/61440"}, incomplete[0].OpenCoords)
	assert.Equal(t, "empty", incomplete[1].Run.ID)
}
