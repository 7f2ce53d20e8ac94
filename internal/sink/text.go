package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/pyxref/pyxref/internal/xref"
)

// TextWriter is a Sink that renders a readable snapshot of the index:
// one line per occurrence, grouped under its document's relative path,
// followed by the document's symbol-information records. It exists for
// `pyxref snapshot`, a debugging aid rather than the canonical output
// (internal/sink.BinaryWriter), the same way the teacher keeps a plain
// text formatter alongside its primary JSON one.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter wraps w for snapshot rendering.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteMetadata renders the run's project root and tool info as a
// header line.
func (t *TextWriter) WriteMetadata(m xref.Metadata) error {
	var line strings.Builder
	line.WriteString("metadata ")
	line.WriteString(m.ProjectRootURI)
	line.WriteString(" ")
	line.WriteString(m.ToolName)
	line.WriteString(" ")
	line.WriteString(m.ToolVersion)
	line.WriteString("\n")
	_, err := t.w.Write([]byte(line.String()))
	return err
}

// WriteDocument renders one document: its relative path, then every
// occurrence as "line:startCol-endCol role symbol", then every
// symbol-information record as "  symbol <symbol>" followed by one
// "    | doc" line per documentation entry.
func (t *TextWriter) WriteDocument(d xref.Document) error {
	var b strings.Builder

	b.WriteString(d.RelativePath)
	if d.Partial {
		b.WriteString(" (partial)")
	}
	b.WriteString("\n")

	for _, o := range d.Occurrences {
		b.WriteString("  ")
		b.WriteString(rangeText(o.Range))
		b.WriteString(" ")
		b.WriteString(roleText(o.Roles))
		b.WriteString(" ")
		b.WriteString(o.Symbol.String())
		b.WriteString("\n")
	}

	for _, si := range d.Symbols {
		b.WriteString("  symbol ")
		b.WriteString(si.Symbol.String())
		for _, doc := range si.Documentation {
			b.WriteString("\n    | ")
			b.WriteString(doc)
		}
		b.WriteString("\n")
	}

	_, err := t.w.Write([]byte(b.String()))
	return err
}

func rangeText(r xref.Range) string {
	if r.SingleLine() {
		return fmt.Sprintf("%d:%d-%d", r.StartLine, r.StartCol, r.EndCol)
	}
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

func roleText(r xref.Role) string {
	var parts []string
	if r&xref.RoleDefinition != 0 {
		parts = append(parts, "definition")
	}
	if r&xref.RoleReadAccess != 0 {
		parts = append(parts, "read")
	}
	if r&xref.RoleWriteAccess != 0 {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "?"
	}
	return strings.Join(parts, "+")
}

// Flush flushes w when w has a Flush method and is a no-op otherwise,
// since TextWriter itself buffers nothing. It gives TextWriter the same
// Flush-then-Close idiom as BinaryWriter and the teacher's own formatters.
func (t *TextWriter) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// RenderSnapshot reads a persisted BinaryWriter stream from r and
// renders it to w in the same one-line-per-occurrence form WriteDocument
// produces, for `pyxref snapshot <index-file>`. It works directly off
// the wire types rather than round-tripping through xref.Document, since
// a snapshot has no in-memory Document to reuse.
func RenderSnapshot(r io.Reader, w io.Writer) error {
	reader := NewBinaryReader(r)

	meta, err := reader.ReadMetadata()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "metadata %s %s %s\n", meta.ProjectRoot, meta.ToolInfo.Name, meta.ToolInfo.Version); err != nil {
		return err
	}

	for {
		doc, err := reader.ReadDocument()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := renderSCIPDocument(w, doc); err != nil {
			return err
		}
	}
}

func renderSCIPDocument(w io.Writer, d *scip.Document) error {
	var b strings.Builder
	b.WriteString(d.RelativePath)
	b.WriteString("\n")

	for _, o := range d.Occurrences {
		b.WriteString("  ")
		b.WriteString(scipRangeText(o.Range))
		b.WriteString(" ")
		b.WriteString(scipRoleText(o.SymbolRoles))
		b.WriteString(" ")
		b.WriteString(o.Symbol)
		b.WriteString("\n")
	}

	for _, si := range d.Symbols {
		b.WriteString("  symbol ")
		b.WriteString(si.Symbol)
		for _, doc := range si.Documentation {
			b.WriteString("\n    | ")
			b.WriteString(doc)
		}
		b.WriteString("\n")
	}

	_, err := w.Write([]byte(b.String()))
	return err
}

func scipRangeText(r []int32) string {
	switch len(r) {
	case 3:
		return fmt.Sprintf("%d:%d-%d", r[0], r[1], r[2])
	case 4:
		return fmt.Sprintf("%d:%d-%d:%d", r[0], r[1], r[2], r[3])
	default:
		return "?"
	}
}

func scipRoleText(mask int32) string {
	var parts []string
	if mask&int32(scip.SymbolRole_Definition) != 0 {
		parts = append(parts, "definition")
	}
	if mask&int32(scip.SymbolRole_ReadAccess) != 0 {
		parts = append(parts, "read")
	}
	if mask&int32(scip.SymbolRole_WriteAccess) != 0 {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "?"
	}
	return strings.Join(parts, "+")
}
