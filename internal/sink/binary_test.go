package sink

import (
	"bytes"
	"io"
	"testing"

	"github.com/pyxref/pyxref/internal/symbol"
	"github.com/pyxref/pyxref/internal/xref"
)

func TestBinaryWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)

	meta := xref.Metadata{
		ProjectRootURI: "file:///proj",
		ToolName:       "pyxref",
		ToolVersion:    "0.1.0",
		ToolArguments:  []string{"index", "./proj"},
	}
	if err := w.WriteMetadata(meta); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	doc := xref.Document{
		RelativePath: "a.py",
		Occurrences: []xref.Occurrence{
			{
				Symbol: symbol.Global(symbol.NewPackageInfo("myproj", "1.0.0"), symbol.NewNamespace("a.py")),
				Roles:  xref.RoleDefinition,
				Range:  xref.Range{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 5},
			},
		},
		Symbols: []xref.SymbolInformation{
			{Symbol: symbol.Global(symbol.NewPackageInfo("myproj", "1.0.0"), symbol.NewNamespace("a.py")), Documentation: []string{"a module"}},
		},
	}
	if err := w.WriteDocument(doc); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r := NewBinaryReader(&buf)
	gotMeta, err := r.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}
	if gotMeta.ProjectRoot != meta.ProjectRootURI {
		t.Errorf("ProjectRoot = %q, want %q", gotMeta.ProjectRoot, meta.ProjectRootURI)
	}
	if gotMeta.ToolInfo.Name != meta.ToolName || gotMeta.ToolInfo.Version != meta.ToolVersion {
		t.Errorf("ToolInfo = %+v, want Name=%q Version=%q", gotMeta.ToolInfo, meta.ToolName, meta.ToolVersion)
	}

	gotDoc, err := r.ReadDocument()
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if gotDoc.RelativePath != doc.RelativePath {
		t.Errorf("RelativePath = %q, want %q", gotDoc.RelativePath, doc.RelativePath)
	}
	if len(gotDoc.Occurrences) != 1 || gotDoc.Occurrences[0].Symbol != doc.Occurrences[0].Symbol.String() {
		t.Errorf("Occurrences = %+v, want one matching %q", gotDoc.Occurrences, doc.Occurrences[0].Symbol.String())
	}
	if len(gotDoc.Symbols) != 1 || gotDoc.Symbols[0].Documentation[0] != "a module" {
		t.Errorf("Symbols = %+v, want documentation %q", gotDoc.Symbols, "a module")
	}

	if _, err := r.ReadDocument(); err != io.EOF {
		t.Errorf("ReadDocument() at end of stream = %v, want io.EOF", err)
	}
}

func TestBinaryWriterMultipleDocuments(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)

	if err := w.WriteMetadata(xref.Metadata{ToolName: "pyxref"}); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}
	for _, path := range []string{"a.py", "b.py", "c.py"} {
		if err := w.WriteDocument(xref.Document{RelativePath: path}); err != nil {
			t.Fatalf("WriteDocument(%s) error = %v", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r := NewBinaryReader(&buf)
	if _, err := r.ReadMetadata(); err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}

	var paths []string
	for {
		doc, err := r.ReadDocument()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadDocument() error = %v", err)
		}
		paths = append(paths, doc.RelativePath)
	}

	want := []string{"a.py", "b.py", "c.py"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], p)
		}
	}
}
