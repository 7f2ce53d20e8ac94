package sink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pyxref/pyxref/internal/symbol"
	"github.com/pyxref/pyxref/internal/xref"
)

func TestTextWriterRendersOccurrencesAndSymbols(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	if err := w.WriteMetadata(xref.Metadata{ProjectRootURI: "file:///proj", ToolName: "pyxref", ToolVersion: "0.1.0"}); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	sym := symbol.Global(symbol.NewPackageInfo("myproj", "1.0.0"), symbol.NewTerm("x"))
	doc := xref.Document{
		RelativePath: "a.py",
		Occurrences: []xref.Occurrence{
			{Symbol: sym, Roles: xref.RoleDefinition | xref.RoleWriteAccess, Range: xref.Range{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 1}},
		},
		Symbols: []xref.SymbolInformation{
			{Symbol: sym, Documentation: []string{"a module-level variable"}},
		},
	}
	if err := w.WriteDocument(doc); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "metadata file:///proj pyxref 0.1.0") {
		t.Errorf("output missing metadata header, got:\n%s", out)
	}
	if !strings.Contains(out, "a.py") {
		t.Errorf("output missing document path, got:\n%s", out)
	}
	if !strings.Contains(out, "1:0-1") {
		t.Errorf("output missing range text, got:\n%s", out)
	}
	if !strings.Contains(out, "definition+write") {
		t.Errorf("output missing combined role text, got:\n%s", out)
	}
	if !strings.Contains(out, "a module-level variable") {
		t.Errorf("output missing documentation text, got:\n%s", out)
	}
}

func TestTextWriterMarksPartialDocuments(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	if err := w.WriteDocument(xref.Document{RelativePath: "broken.py", Partial: true}); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if !strings.Contains(buf.String(), "broken.py (partial)") {
		t.Errorf("expected partial marker, got:\n%s", buf.String())
	}
}

func TestRenderSnapshotRoundTripsFromBinaryWriter(t *testing.T) {
	var wire bytes.Buffer
	bw := NewBinaryWriter(&wire)

	if err := bw.WriteMetadata(xref.Metadata{ProjectRootURI: "file:///proj", ToolName: "pyxref", ToolVersion: "0.1.0"}); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}
	sym := symbol.Global(symbol.NewPackageInfo("myproj", "1.0.0"), symbol.NewTerm("x"))
	if err := bw.WriteDocument(xref.Document{
		RelativePath: "a.py",
		Occurrences: []xref.Occurrence{
			{Symbol: sym, Roles: xref.RoleReadAccess, Range: xref.Range{StartLine: 2, StartCol: 4, EndLine: 2, EndCol: 5}},
		},
	}); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var rendered bytes.Buffer
	if err := RenderSnapshot(&wire, &rendered); err != nil {
		t.Fatalf("RenderSnapshot() error = %v", err)
	}

	out := rendered.String()
	if !strings.Contains(out, "metadata file:///proj pyxref 0.1.0") {
		t.Errorf("output missing metadata header, got:\n%s", out)
	}
	if !strings.Contains(out, "a.py") {
		t.Errorf("output missing document path, got:\n%s", out)
	}
	if !strings.Contains(out, "2:4-5 read") {
		t.Errorf("output missing rendered occurrence, got:\n%s", out)
	}
}
