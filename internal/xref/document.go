// Package xref is the core: the semantic symbol resolver and occurrence
// emitter described by spec §2–§5. It walks an already-parsed Python
// syntax tree (internal/pytree), consults the name-resolution oracle
// (internal/oracle), and emits Documents through a sink — never parsing
// and never inferring types beyond what the oracle exposes.
package xref

import "github.com/pyxref/pyxref/internal/symbol"

// Role is a bitset: a single occurrence may carry more than one role
// (e.g. an augmented assignment target is both read and write).
type Role uint8

const (
	RoleDefinition Role = 1 << iota
	RoleReadAccess
	RoleWriteAccess
)

// Range is a source range: either single-line [line, startCol, endCol]
// or multi-line [startLine, startCol, endLine, endCol].
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// SingleLine reports whether the range starts and ends on the same line.
func (r Range) SingleLine() bool { return r.StartLine == r.EndLine }

// Occurrence is one (range, symbol, role) record in a Document.
type Occurrence struct {
	Symbol symbol.Symbol
	Roles  Role
	Range  Range
}

// SymbolInformation is a symbol's documentation record.
type SymbolInformation struct {
	Symbol        symbol.Symbol
	Documentation []string
}

// Document is the per-source-file output: an ordered sequence of
// occurrences (appended in source order as the walk proceeds) and an
// ordered sequence of symbol-information records.
type Document struct {
	RelativePath string
	Occurrences  []Occurrence
	Symbols      []SymbolInformation
	Partial      bool // set when the file's walk aborted (unbalanced scope stack, §7)
}

func (d *Document) emitOccurrence(o Occurrence) {
	d.Occurrences = append(d.Occurrences, o)
}

func (d *Document) emitSymbolInformation(si SymbolInformation) {
	d.Symbols = append(d.Symbols, si)
}
