package xref

import "github.com/pyxref/pyxref/internal/symbol"

// LocalCounter allocates monotonically increasing local symbol ids for
// things that cannot have global symbols (spec §4.6). It is reset per
// file; collisions within a file are impossible by construction, and
// cross-file local references are not meaningful (invariant 7, §8).
type LocalCounter struct {
	next int
}

// Next allocates and returns a fresh local symbol.
func (c *LocalCounter) Next() symbol.Symbol {
	s := symbol.Local(c.next)
	c.next++
	return s
}

// Reset zeroes the counter for a new file.
func (c *LocalCounter) Reset() { c.next = 0 }
