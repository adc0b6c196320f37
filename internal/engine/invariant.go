//go:build chorddebug

package engine

// invariant panics when cond is false. Only compiled with the chorddebug
// tag; release builds use the no-op in invariant_release.go.
func invariant(cond bool, msg string) {
	if !cond {
		panic("keychord: invariant violated: " + msg)
	}
}
