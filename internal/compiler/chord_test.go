package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
)

func TestCompileChordsBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		chord: copy: {
			keys: [1, 2]
			action: "C-c"
			pending: 6
		}
		chord: esc: {
			keys: [3, 4]
			action: "Esc"
			disabled_layers: [2, 3]
			release: "first"
		}
	`)

	specs, err := CompileChords(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, ir.ChordSpec{
		Name:           "copy",
		Keys:           []uint16{1, 2},
		Action:         "C-c",
		Pending:        6,
		DisabledLayers: []uint16{},
		Release:        ir.ReleaseLast,
	}, specs[0])

	assert.Equal(t, "esc", specs[1].Name)
	assert.Equal(t, uint16(DefaultPendingTicks), specs[1].Pending)
	assert.Equal(t, []uint16{2, 3}, specs[1].DisabledLayers)
	assert.Equal(t, ir.ReleaseFirst, specs[1].Release)
}

func TestCompileChordsDeclarationOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		chord: zeta: { keys: [1, 2], action: "z" }
		chord: alpha: { keys: [1, 2], action: "a" }
		chord: mid: { keys: [5, 6], action: "m" }
	`)

	specs, err := CompileChords(v)
	require.NoError(t, err)

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestCompileChordsNoChords(t *testing.T) {
	ctx := cuecontext.New()
	specs, err := CompileChords(ctx.CompileString(`other: 1`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCompileChordsSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"key out of range", `chord: a: { keys: [70000], action: "x" }`},
		{"negative key", `chord: a: { keys: [-1], action: "x" }`},
		{"zero pending", `chord: a: { keys: [1], action: "x", pending: 0 }`},
		{"bad release", `chord: a: { keys: [1], action: "x", release: "middle" }`},
		{"unknown field", `chord: a: { keys: [1], action: "x", hold: true }`},
		{"action not a string", `chord: a: { keys: [1], action: 3 }`},
		{"cue syntax", `chord: a: { keys: [1,, }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			_, err := CompileChords(ctx.CompileString(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestCompileChordMissingFields(t *testing.T) {
	ctx := cuecontext.New()

	_, err := CompileChord("a", ctx.CompileString(`action: "x"`))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "keys", ce.Field)

	_, err = CompileChord("a", ctx.CompileString(`keys: [1]`))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "action", ce.Field)
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chords.cue")
	require.NoError(t, os.WriteFile(path, []byte(`package chords

chord: copy: {
	keys: [1, 2]
	action: "C-c"
}
`), 0o644))

	specs, err := CompileFile(cuecontext.New(), path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "copy", specs[0].Name)

	_, err = CompileFile(cuecontext.New(), filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "keys", Message: "keys are required"}
	assert.Equal(t, "keys: keys are required", err.Error())
}

func TestBuildCatalog(t *testing.T) {
	specs := []ir.ChordSpec{
		{Name: "copy", Keys: []uint16{1, 2}, Action: "C-c", Pending: 5, Release: ir.ReleaseLast},
		{Name: "esc", Keys: []uint16{2, 3}, Action: "Esc", Pending: 4, DisabledLayers: []uint16{1}, Release: ir.ReleaseFirst},
	}

	cat, err := BuildCatalog(specs)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	assert.Equal(t, "copy", cat.Definition(0).Action)
	assert.Equal(t, engine.OnLastRelease, cat.Definition(0).Release)
	assert.Equal(t, engine.OnFirstRelease, cat.Definition(1).Release)
	assert.Equal(t, []engine.KeyID{2, 3}, cat.Definition(1).Keys)
	assert.Equal(t, []int{0, 1}, cat.CandidatesFor(2))
}

func TestBuildCatalogRejects(t *testing.T) {
	_, err := BuildCatalog([]ir.ChordSpec{{Name: "a", Keys: []uint16{1}, Pending: 5, Release: "sideways"}})
	assert.Error(t, err)

	_, err = BuildCatalog([]ir.ChordSpec{{Name: "a", Keys: []uint16{1, 1}, Pending: 5}})
	require.Error(t, err)
	assert.True(t, engine.IsCatalogError(err))
}
