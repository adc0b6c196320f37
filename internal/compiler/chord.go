package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"

	"github.com/roach88/keychord/internal/ir"
)

// DefaultPendingTicks is used when a chord omits pending.
const DefaultPendingTicks = 5

//go:embed schema.cue
var schemaSource string

// CompileChords compiles every chord under the top-level "chord" struct of
// v, in declaration order. Declaration order is catalog order.
//
// The value is first checked against the fixture schema, so type and range
// errors carry source positions:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`chord: copy: { keys: [1, 2], action: "C-c" }`)
//	specs, err := CompileChords(v)
func CompileChords(v cue.Value) ([]ir.ChordSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}
	if err := v.Unify(schema).Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	// Fields are read from the original value: the schema's optional
	// fields would otherwise show up as incomplete values.
	chordsVal := v.LookupPath(cue.ParsePath("chord"))
	if !chordsVal.Exists() {
		return []ir.ChordSpec{}, nil
	}

	iter, err := chordsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	specs := []ir.ChordSpec{}
	for iter.Next() {
		spec, err := CompileChord(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileChord parses a single chord struct.
func CompileChord(name string, v cue.Value) (*ir.ChordSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ChordSpec{
		Name:           name,
		Pending:        DefaultPendingTicks,
		DisabledLayers: []uint16{},
		Release:        ir.ReleaseLast,
	}

	keysVal := v.LookupPath(cue.ParsePath("keys"))
	if !keysVal.Exists() {
		return nil, &CompileError{Field: "keys", Message: "keys are required", Pos: v.Pos()}
	}
	keys, err := parseUint16List(keysVal, "keys")
	if err != nil {
		return nil, err
	}
	spec.Keys = keys

	actionVal := v.LookupPath(cue.ParsePath("action"))
	if !actionVal.Exists() {
		return nil, &CompileError{Field: "action", Message: "action is required", Pos: v.Pos()}
	}
	if spec.Action, err = actionVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	if pv := v.LookupPath(cue.ParsePath("pending")); pv.Exists() {
		if spec.Pending, err = parseUint16(pv, "pending"); err != nil {
			return nil, err
		}
	}

	if lv := v.LookupPath(cue.ParsePath("disabled_layers")); lv.Exists() {
		if spec.DisabledLayers, err = parseUint16List(lv, "disabled_layers"); err != nil {
			return nil, err
		}
	}

	if rv := v.LookupPath(cue.ParsePath("release")); rv.Exists() {
		if spec.Release, err = rv.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	return spec, nil
}

// CompileFile compiles a single fixture file.
func CompileFile(ctx *cue.Context, path string) ([]ir.ChordSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chord file: %w", err)
	}
	v := ctx.CompileBytes(data, cue.Filename(path))
	specs, err := CompileChords(v)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return specs, nil
}

func parseUint16(v cue.Value, field string) (uint16, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 || n > 0xFFFF {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value %d out of range 0..65535", n),
			Pos:     v.Pos(),
		}
	}
	return uint16(n), nil
}

func parseUint16List(v cue.Value, field string) ([]uint16, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []uint16{}
	for iter.Next() {
		n, err := parseUint16(iter.Value(), field)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
