package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/keychord/internal/ir"
)

// marshalCatalog converts chord specs to canonical JSON TEXT for storage.
func marshalCatalog(specs []ir.ChordSpec) (string, error) {
	arr := make(ir.IRArray, len(specs))
	for i, s := range specs {
		arr[i] = s.IR()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}
	return string(data), nil
}

// marshalCycle converts a cycle to canonical JSON TEXT for storage.
func marshalCycle(c ir.Cycle) (string, error) {
	data, err := ir.MarshalCanonical(c.IR())
	if err != nil {
		return "", fmt.Errorf("marshal cycle: %w", err)
	}
	return string(data), nil
}

// unmarshalCatalog parses canonical JSON TEXT to chord specs.
// The IR keys match the struct tags, so plain decoding is enough.
func unmarshalCatalog(data string) ([]ir.ChordSpec, error) {
	specs := []ir.ChordSpec{}
	if data == "" {
		return specs, nil
	}
	if err := json.Unmarshal([]byte(data), &specs); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	for i := range specs {
		if specs[i].DisabledLayers == nil {
			specs[i].DisabledLayers = []uint16{}
		}
	}
	return specs, nil
}

// unmarshalCycle parses canonical JSON TEXT to a cycle.
func unmarshalCycle(data string) (ir.Cycle, error) {
	var c ir.Cycle
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return ir.Cycle{}, fmt.Errorf("unmarshal cycle: %w", err)
	}
	// Empty arrays decode to empty slices already; a missing one (older
	// payloads) would decode to nil.
	if c.Pushed == nil {
		c.Pushed = []ir.EventRecord{}
	}
	if c.Evicted == nil {
		c.Evicted = []ir.EventRecord{}
	}
	if c.Emitted == nil {
		c.Emitted = []ir.EventRecord{}
	}
	return c, nil
}
