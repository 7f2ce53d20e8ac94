package xref

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyxref/pyxref/internal/pkgresolve"
)

// memSink collects every record an Orchestrator run emits, for assertions
// against the in-memory result rather than a serialized wire format.
type memSink struct {
	meta Metadata
	docs map[string]Document
}

func newMemSink() *memSink { return &memSink{docs: make(map[string]Document)} }

func (m *memSink) WriteMetadata(meta Metadata) error {
	m.meta = meta
	return nil
}

func (m *memSink) WriteDocument(d Document) error {
	m.docs[d.RelativePath] = d
	return nil
}

func writePythonProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func runOrchestrator(t *testing.T, root string) *memSink {
	t.Helper()
	resolver := pkgresolve.New(root, "myproj", "1.0.0", "", "")
	orch := New(Config{ProjectRoot: root, ToolVersion: "test"}, resolver)
	sink := newMemSink()
	if err := orch.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return sink
}

func occurrencesWithRole(doc Document, role Role) []Occurrence {
	var out []Occurrence
	for _, o := range doc.Occurrences {
		if o.Roles&role != 0 {
			out = append(out, o)
		}
	}
	return out
}

func TestOrchestratorEmitsModuleAndFunctionDefinition(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "def greet():\n    return greet()\n",
	})
	sink := runOrchestrator(t, root)

	doc, ok := sink.docs["a.py"]
	if !ok {
		t.Fatal("expected a Document for a.py")
	}
	if doc.Partial {
		t.Error("expected a.py to walk cleanly, not partial")
	}

	defs := occurrencesWithRole(doc, RoleDefinition)
	var foundModule, foundFunc bool
	for _, o := range defs {
		s := o.Symbol.String()
		if strings.Contains(s, "__init__:") {
			foundModule = true
		}
		if strings.Contains(s, "greet(") {
			foundFunc = true
		}
	}
	if !foundModule {
		t.Error("expected a module-level __init__ definition occurrence")
	}
	if !foundFunc {
		t.Error("expected a definition occurrence for greet")
	}

	reads := occurrencesWithRole(doc, RoleReadAccess)
	var foundRecursiveCall bool
	for _, o := range reads {
		if strings.Contains(o.Symbol.String(), "greet(") {
			foundRecursiveCall = true
		}
	}
	if !foundRecursiveCall {
		t.Error("expected the recursive call to greet() to resolve to the same symbol as a read")
	}
}

func TestOrchestratorEmitsClassDefinition(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "class Widget:\n    def render(self):\n        pass\n",
	})
	sink := runOrchestrator(t, root)

	doc := sink.docs["a.py"]
	var foundClass, foundMethod bool
	for _, si := range doc.Symbols {
		if strings.Contains(si.Symbol.String(), "Widget#") {
			foundClass = true
		}
		if strings.Contains(si.Symbol.String(), "render(") {
			foundMethod = true
		}
	}
	if !foundClass {
		t.Errorf("expected a SymbolInformation record for class Widget, got %+v", doc.Symbols)
	}
	if !foundMethod {
		t.Errorf("expected a SymbolInformation record for method render, got %+v", doc.Symbols)
	}
}

func TestOrchestratorEmitsAssignmentStub(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "count = 0\n",
	})
	sink := runOrchestrator(t, root)

	doc := sink.docs["a.py"]
	var foundStub bool
	for _, si := range doc.Symbols {
		if len(si.Documentation) > 0 && strings.Contains(si.Documentation[0], "count = 0") {
			foundStub = true
		}
	}
	if !foundStub {
		t.Errorf("expected an assignment stub documenting 'count = 0', got %+v", doc.Symbols)
	}
}

func TestOrchestratorResolvesCrossFileImportFrom(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "def get():\n    return 1\n",
		"b.py": "from a import get\nget()\n",
	})
	sink := runOrchestrator(t, root)

	aDoc := sink.docs["a.py"]
	bDoc := sink.docs["b.py"]

	var aDef Occurrence
	var found bool
	for _, o := range occurrencesWithRole(aDoc, RoleDefinition) {
		if strings.Contains(o.Symbol.String(), "get(") {
			aDef = o
			found = true
		}
	}
	if !found {
		t.Fatal("expected a definition occurrence for get in a.py")
	}

	var bRead bool
	for _, o := range occurrencesWithRole(bDoc, RoleReadAccess) {
		if o.Symbol == aDef.Symbol {
			bRead = true
		}
	}
	if !bRead {
		t.Errorf("expected b.py's call to get() to resolve to a.py's get symbol %q", aDef.Symbol)
	}
}

func TestOrchestratorEmitsImportModuleReads(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "import os.path\n",
	})
	sink := runOrchestrator(t, root)

	doc := sink.docs["a.py"]
	reads := occurrencesWithRole(doc, RoleReadAccess)
	if len(reads) < 2 {
		t.Fatalf("expected a read occurrence for each dotted-path prefix of os.path, got %d", len(reads))
	}
}

func TestOrchestratorEmitsBuiltinCallableOnce(t *testing.T) {
	root := writePythonProject(t, map[string]string{
		"a.py": "x = len([1])\ny = len([2])\n",
	})
	sink := runOrchestrator(t, root)

	doc := sink.docs["a.py"]
	var count int
	for _, si := range doc.Symbols {
		if strings.Contains(si.Symbol.String(), "len.") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one SymbolInformation for len, got %d", count)
	}

	for _, o := range doc.Occurrences {
		if strings.Contains(o.Symbol.String(), "len.") {
			t.Errorf("expected no Occurrence for a builtin callable, got %+v", o)
		}
	}
}

func TestOrchestratorNoPythonFilesReturnsSentinelError(t *testing.T) {
	root := t.TempDir()
	resolver := pkgresolve.New(root, "myproj", "1.0.0", "", "")
	orch := New(Config{ProjectRoot: root, ToolVersion: "test"}, resolver)

	err := orch.Run(context.Background(), newMemSink())
	if err != ErrNoPythonFiles {
		t.Errorf("Run() error = %v, want ErrNoPythonFiles", err)
	}
}

func TestOrchestratorWritesMetadataWithProjectRoot(t *testing.T) {
	root := writePythonProject(t, map[string]string{"a.py": "x = 1\n"})
	sink := runOrchestrator(t, root)

	if sink.meta.ToolName != "pyxref" {
		t.Errorf("Metadata.ToolName = %q, want pyxref", sink.meta.ToolName)
	}
	if !strings.HasPrefix(sink.meta.ProjectRootURI, "file://") {
		t.Errorf("Metadata.ProjectRootURI = %q, want a file:// URI", sink.meta.ProjectRootURI)
	}
}
