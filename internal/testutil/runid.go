package testutil

// FixedRunID returns the same run ID every time.
//
// Recorded runs keyed by a fixed ID can be compared byte for byte across
// test executions. Safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator for id.
// If id is empty, Generate() returns "run-test-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "run-test-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunID) Generate() string {
	return g.id
}
