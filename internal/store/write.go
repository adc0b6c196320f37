package store

import (
	"context"
	"fmt"

	"github.com/roach88/keychord/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
//
// The catalog is serialized to canonical JSON so the run can be replayed
// without the fixture files.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	catalogJSON, err := marshalCatalog(run.Catalog)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, catalog, catalog_hash, ignore_window, ir_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Scenario,
		catalogJSON,
		run.CatalogHash,
		run.IgnoreWindow,
		run.IRVersion,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteCycle appends a cycle to a run and returns its content-addressed ID.
// Returns inserted=false when the (run, seq) pair is already stored.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteCycle(ctx context.Context, runID string, c ir.Cycle) (id string, inserted bool, err error) {
	id, err = ir.CycleID(runID, c)
	if err != nil {
		return "", false, fmt.Errorf("write cycle: %w", err)
	}

	payload, err := marshalCycle(c)
	if err != nil {
		return "", false, fmt.Errorf("write cycle: %w", err)
	}

	delivered := ""
	if c.Delivery != nil {
		delivered = c.Delivery.Chord
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
		(id, run_id, seq, layer, delivered_chord, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id,
		runID,
		c.Seq,
		c.Layer,
		delivered,
		payload,
	)
	if err != nil {
		return "", false, fmt.Errorf("write cycle: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write cycle: rows affected: %w", err)
	}

	return id, n > 0, nil
}
