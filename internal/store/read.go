package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/keychord/internal/ir"
)

// ErrRunNotFound is returned when a requested run does not exist.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, scenario, catalog, catalog_hash, ignore_window, ir_version, engine_version`

// ReadRun retrieves a single run by ID.
// Returns ErrRunNotFound if it does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun returns the most recently recorded run.
// Returns ErrRunNotFound if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns every run in recording order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCycles returns every cycle of a run in seq order.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no cycles.
func (s *Store) ReadCycles(ctx context.Context, runID string) ([]ir.Cycle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM cycles
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []ir.Cycle{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c, err := unmarshalCycle(payload)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// DeliveryCount is the number of deliveries of one chord in a run.
type DeliveryCount struct {
	Chord string `json:"chord"`
	Count int    `json:"count"`
}

// CountDeliveries summarizes a run's deliveries per chord, ordered by
// chord name.
func (s *Store) CountDeliveries(ctx context.Context, runID string) ([]DeliveryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT delivered_chord, COUNT(*)
		FROM cycles
		WHERE run_id = ? AND delivered_chord != ''
		GROUP BY delivered_chord
		ORDER BY delivered_chord COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}
	defer rows.Close()

	counts := []DeliveryCount{}
	for rows.Next() {
		var dc DeliveryCount
		if err := rows.Scan(&dc.Chord, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan delivery count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery counts: %w", err)
	}
	return counts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (ir.Run, error) {
	var run ir.Run
	var catalogJSON string
	err := sc.Scan(
		&run.ID,
		&run.Scenario,
		&catalogJSON,
		&run.CatalogHash,
		&run.IgnoreWindow,
		&run.IRVersion,
		&run.EngineVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Catalog, err = unmarshalCatalog(catalogJSON)
	if err != nil {
		return ir.Run{}, err
	}
	return run, nil
}
