package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/keychord/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCatalog() []ir.ChordSpec {
	return []ir.ChordSpec{
		{Name: "copy", Keys: []uint16{1, 2}, Action: "C-c", Pending: 5, DisabledLayers: []uint16{}, Release: ir.ReleaseLast},
		{Name: "esc", Keys: []uint16{4, 5}, Action: "Esc", Pending: 4, DisabledLayers: []uint16{1}, Release: ir.ReleaseFirst},
	}
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string) ir.Run {
	catalog := testCatalog()
	return ir.Run{
		ID:            id,
		Scenario:      "copy_tap",
		Catalog:       catalog,
		CatalogHash:   ir.MustCatalogHash(catalog),
		IgnoreWindow:  6,
		IRVersion:     ir.IRVersion,
		EngineVersion: ir.EngineVersion,
	}
}

func writeTestRun(t *testing.T, s *Store, id string) ir.Run {
	t.Helper()
	run := createTestRun(id)
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// createTestCycle creates a cycle with empty event lists.
func createTestCycle(seq int64) ir.Cycle {
	return ir.Cycle{
		Seq:     seq,
		Pushed:  []ir.EventRecord{},
		Evicted: []ir.EventRecord{},
		Emitted: []ir.EventRecord{},
		Polled:  true,
	}
}

func delivered(c ir.Cycle, chord string, key uint16) ir.Cycle {
	c.Delivery = &ir.DeliveryRecord{Chord: chord, Action: chord, Key: key}
	return c
}

func releasing(c ir.Cycle, key uint16) ir.Cycle {
	c.Emitted = append(c.Emitted, ir.EventRecord{Kind: "release", Key: key})
	return c
}
