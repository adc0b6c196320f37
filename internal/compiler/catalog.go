package compiler

import (
	"fmt"

	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
)

// BuildCatalog turns compiled specs into an engine catalog whose actions
// are the chord names. Catalog index i is specs[i].
func BuildCatalog(specs []ir.ChordSpec) (*engine.Catalog[string], error) {
	defs := make([]engine.Definition[string], len(specs))
	for i, s := range specs {
		keys := make([]engine.KeyID, len(s.Keys))
		for j, k := range s.Keys {
			keys[j] = engine.KeyID(k)
		}

		release := engine.OnLastRelease
		switch s.Release {
		case ir.ReleaseLast, "":
		case ir.ReleaseFirst:
			release = engine.OnFirstRelease
		default:
			return nil, fmt.Errorf("chord %s: invalid release %q", s.Name, s.Release)
		}

		defs[i] = engine.Definition[string]{
			Action:          s.Name,
			Keys:            keys,
			PendingDuration: s.Pending,
			DisabledLayers:  s.DisabledLayers,
			Release:         release,
		}
	}

	cat, err := engine.NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}
