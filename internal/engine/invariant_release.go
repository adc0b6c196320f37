//go:build !chorddebug

package engine

func invariant(bool, string) {}
