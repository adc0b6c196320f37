// Package store provides SQLite-backed storage for recorded chord engine
// runs.
//
// A run is one scenario execution: the chord catalog it used, the ignore
// window and one row per scan cycle. Cycles are append-only and stored as
// canonical JSON, so a recorded run can be replayed and compared byte for
// byte.
//
// # Invariants
//
//   - Cycles are ordered by seq, the cycle number, never by timestamps.
//     Queries use ORDER BY seq ASC, id ASC COLLATE BINARY.
//   - Writes are idempotent: a run ID or (run, seq) pair is stored once.
//   - Cycle IDs are content hashes computed by ir.CycleID.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The table layout is versioned through PRAGMA user_version (see
// SchemaVersion); Open refuses files with a version it does not know.
package store
