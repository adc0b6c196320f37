package harness

import (
	"fmt"

	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// CatalogHash identifies the compiled chord catalog.
	CatalogHash string `json:"catalog_hash"`

	// Specs are the compiled chords in catalog order.
	Specs []ir.ChordSpec `json:"specs"`

	// Cycles holds one entry per scan cycle, in order.
	Cycles []ir.Cycle `json:"cycles"`

	// Active is the active chord table after the last cycle.
	Active []engine.ChordState `json:"active"`

	// QueueLen is the number of events still queued after the last cycle.
	QueueLen int `json:"queue_len"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cycles: []ir.Cycle{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Deliveries returns every delivery in cycle order.
func (r *Result) Deliveries() []ir.DeliveryRecord {
	out := []ir.DeliveryRecord{}
	for _, c := range r.Cycles {
		if c.Delivery != nil {
			out = append(out, *c.Delivery)
		}
	}
	return out
}
