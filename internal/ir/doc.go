// Package ir holds the serializable records shared by the keychord tooling:
// compiled chord fixtures, recorded runs and per-cycle traces.
//
// ir imports nothing internal. The compiler produces ChordSpec values, the
// harness turns them into an engine catalog and emits Cycle records, and
// the store persists Run and Cycle records as canonical JSON.
//
// Constraints:
//   - no floats anywhere; numbers are int64 in the value model
//   - JSON tags are snake_case
//   - cycles are ordered by a logical sequence number, never wall time
package ir
