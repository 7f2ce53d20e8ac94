package xref

import (
	"fmt"
	"strings"

	"github.com/pyxref/pyxref/internal/pytree"
	"github.com/pyxref/pyxref/internal/symbol"
)

// Emitter translates (name_node, symbol, role) into Occurrences, and
// SymbolInformation values, appending them to the Document under
// construction (spec §4.4). It enforces the well-formedness invariants:
// no whitespace-malformed symbol and no negative-length occurrence are
// ever appended; violations are logged and the offending record is
// skipped, never fatal (§7).
type Emitter struct {
	tree *pytree.Tree
	doc  *Document
	log  Logger
}

// NewEmitter builds an Emitter over tree, appending into doc.
func NewEmitter(tree *pytree.Tree, doc *Document, log Logger) *Emitter {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Emitter{tree: tree, doc: doc, log: log}
}

// rangeOf converts a node's start/end byte offsets to the line/column
// range OccurrenceEmitter's contract describes.
func (e *Emitter) rangeOf(node pytree.NodeID) Range {
	n := e.tree.Node(node)
	return Range{StartLine: n.StartLine, StartCol: n.StartCol, EndLine: n.EndLine, EndCol: n.EndCol}
}

// EmitOccurrence emits an occurrence for node with sym and roles,
// rejecting malformed symbols or negative-length ranges per §4.4/§7.
func (e *Emitter) EmitOccurrence(node pytree.NodeID, sym symbol.Symbol, roles Role) {
	r := e.rangeOf(node)
	e.emitOccurrenceAt(r, sym, roles)
}

// EmitOccurrenceAt is EmitOccurrence for a caller-supplied range, used
// for the synthetic module-definition occurrence at (0,0,1) (§4.2
// Module rule), which has no backing tree-sitter node.
func (e *Emitter) EmitOccurrenceAt(r Range, sym symbol.Symbol, roles Role) {
	e.emitOccurrenceAt(r, sym, roles)
}

func (e *Emitter) emitOccurrenceAt(r Range, sym symbol.Symbol, roles Role) {
	if !sym.WellFormed() {
		e.log("xref: skipping occurrence with malformed symbol %q", sym)
		return
	}
	length := r.EndCol - r.StartCol
	if r.SingleLine() && length < 0 {
		e.log("xref: skipping occurrence with negative length at line %d", r.StartLine)
		return
	}
	e.doc.emitOccurrence(Occurrence{Symbol: sym, Roles: roles, Range: r})
}

// EmitSymbolInformation emits a SymbolInformation for sym, dropping the
// empty-string entries from documentation so a SymbolInformation with no
// real documentation at all is still emitted (spec §4.2's Class/Function
// rules: "omit either if empty" describes the documentation slice
// contents, not suppressing the whole record).
func (e *Emitter) EmitSymbolInformation(sym symbol.Symbol, documentation ...string) {
	if !sym.WellFormed() {
		e.log("xref: skipping symbol information with malformed symbol %q", sym)
		return
	}
	var docs []string
	for _, d := range documentation {
		if strings.TrimSpace(d) != "" {
			docs = append(docs, d)
		}
	}
	e.doc.emitSymbolInformation(SymbolInformation{Symbol: sym, Documentation: docs})
}

// Logger is the ambient logging hook: a no-op by default, wired to
// fmt.Printf-style output only when verbose mode is requested, matching
// the teacher's fmt.Printf("[INDEX] ...") texture rather than
// introducing a logging library (see SPEC_FULL.md's AMBIENT STACK).
type Logger func(format string, args ...any)

// PrintfLogger adapts fmt.Printf into a Logger, for --verbose CLI runs.
func PrintfLogger() Logger {
	return func(format string, args ...any) {
		fmt.Printf("[XREF] "+format+"\n", args...)
	}
}
