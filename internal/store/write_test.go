package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/ir"
)

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("run-1")
	require.NoError(t, s.WriteRun(ctx, run))

	changed := run
	changed.Scenario = "other"
	require.NoError(t, s.WriteRun(ctx, changed), "duplicate ID is ignored")

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "copy_tap", got.Scenario, "first write wins")
}

func TestWriteRun_StoresCanonicalCatalog(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-1")

	var catalog string
	require.NoError(t, s.db.QueryRow(`SELECT catalog FROM runs WHERE id = 'run-1'`).Scan(&catalog))
	assert.Equal(t,
		`[{"action":"C-c","disabled_layers":[],"keys":[1,2],"name":"copy","pending":5,"release":"last"},`+
			`{"action":"Esc","disabled_layers":[1],"keys":[4,5],"name":"esc","pending":4,"release":"first"}]`,
		catalog)
}

func TestWriteCycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	c := delivered(createTestCycle(6), "copy", 0xF000)
	id, inserted, err := s.WriteCycle(ctx, "run-1", c)
	require.NoError(t, err)
	assert.True(t, inserted)

	wantID, err := ir.CycleID("run-1", c)
	require.NoError(t, err)
	assert.Equal(t, wantID, id)

	var chord, payload string
	require.NoError(t, s.db.QueryRow(
		`SELECT delivered_chord, payload FROM cycles WHERE id = ?`, id,
	).Scan(&chord, &payload))
	assert.Equal(t, "copy", chord)
	assert.Contains(t, payload, `"delivery":{"action":"copy","age":0,"also_release":false,"chord":"copy","key":61440,"row":0}`)
}

func TestWriteCycle_DuplicateSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")

	_, inserted, err := s.WriteCycle(ctx, "run-1", createTestCycle(1))
	require.NoError(t, err)
	require.True(t, inserted)

	other := createTestCycle(1)
	other.Layer = 3
	_, inserted, err = s.WriteCycle(ctx, "run-1", other)
	require.NoError(t, err)
	assert.False(t, inserted, "a run has one cycle per seq")
}

func TestWriteCycle_SameContentDifferentRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1")
	writeTestRun(t, s, "run-2")

	id1, _, err := s.WriteCycle(ctx, "run-1", createTestCycle(1))
	require.NoError(t, err)
	id2, inserted, err := s.WriteCycle(ctx, "run-2", createTestCycle(1))
	require.NoError(t, err)

	assert.True(t, inserted)
	assert.NotEqual(t, id1, id2)
}

func TestWriteCycle_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.WriteCycle(context.Background(), "missing", createTestCycle(1))
	assert.Error(t, err)
}
