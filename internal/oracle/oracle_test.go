package oracle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pyxref/pyxref/internal/pytree"
)

func writeProject(t *testing.T, files map[string]string) string {
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

func trackAndBind(e *Evaluator, paths ...string) {
	for _, p := range paths {
		e.TrackFile(p, true, true)
	}
	for e.MakeProgress() {
	}
}

func TestDeclarationsOfResolvesModuleFunction(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "def greet():\n    return greet()\n",
	})
	path := filepath.Join(root, "a.py")

	e := New(root)
	trackAndBind(e, path)

	fs, ok := e.FileState(path)
	if !ok {
		t.Fatal("expected a.py to be bound")
	}

	callNames := findNamesWithText(fs, "greet")
	if len(callNames) < 2 {
		t.Fatalf("expected at least 2 occurrences of 'greet', got %d", len(callNames))
	}

	for _, n := range callNames {
		decls := e.DeclarationsOf(fs, n)
		if len(decls) != 1 {
			t.Fatalf("DeclarationsOf(%v) returned %d decls, want 1", n, len(decls))
		}
		if decls[0].Kind != DeclFunction {
			t.Errorf("DeclarationsOf(%v).Kind = %v, want DeclFunction", n, decls[0].Kind)
		}
	}
}

func TestDeclarationsOfResolvesDunderIntrinsic(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "x = __name__\n",
	})
	path := filepath.Join(root, "a.py")

	e := New(root)
	trackAndBind(e, path)

	fs, _ := e.FileState(path)
	names := findNamesWithText(fs, "__name__")
	if len(names) != 1 {
		t.Fatalf("expected exactly one '__name__' occurrence, got %d", len(names))
	}

	decls := e.DeclarationsOf(fs, names[0])
	if len(decls) != 1 || !decls[0].IsIntrinsic {
		t.Fatalf("expected __name__ to resolve to an intrinsic declaration, got %+v", decls)
	}
}

// TestBuiltinCallableHasNoLocalDeclaration mirrors the walker's own
// resolution order (internal/xref/walker.go): an unbound name with no
// scope-chain binding falls through DeclarationsOf empty-handed, and
// only BuiltinType separately recognizes it as a builtin callable.
func TestBuiltinCallableHasNoLocalDeclaration(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "x = len([1, 2, 3])\n",
	})
	path := filepath.Join(root, "a.py")

	e := New(root)
	trackAndBind(e, path)

	fs, _ := e.FileState(path)
	names := findNamesWithText(fs, "len")
	if len(names) != 1 {
		t.Fatalf("expected exactly one 'len' occurrence, got %d", len(names))
	}

	if decls := e.DeclarationsOf(fs, names[0]); len(decls) != 0 {
		t.Fatalf("expected DeclarationsOf(len) to find no scope-bound declaration, got %+v", decls)
	}

	typ, ok := e.BuiltinType("len")
	if !ok {
		t.Fatal("expected BuiltinType(len) to succeed")
	}
	if typ.Kind != TypeFunction || typ.ModuleName != "builtins" || typ.Name != "len" {
		t.Errorf("BuiltinType(len) = %+v, want Kind=TypeFunction ModuleName=builtins Name=len", typ)
	}
}

func TestTypeOfResolvesCrossFileFunction(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "def get():\n    return 1\n",
		"b.py": "from a import get\nget()\n",
	})
	aPath := filepath.Join(root, "a.py")
	bPath := filepath.Join(root, "b.py")

	e := New(root)
	trackAndBind(e, aPath, bPath)

	fs, ok := e.FileState(bPath)
	if !ok {
		t.Fatal("expected b.py to be bound")
	}

	names := findNamesWithText(fs, "get")
	if len(names) == 0 {
		t.Fatal("expected at least one 'get' occurrence in b.py")
	}

	decls := e.DeclarationsOf(fs, names[0])
	if len(decls) != 1 || decls[0].Kind != DeclImportFromBinding {
		t.Fatalf("expected an import-from binding declaration, got %+v", decls)
	}

	typ, ok := e.TypeOf(decls[0])
	if !ok {
		t.Fatal("expected TypeOf to resolve the cross-file binding")
	}
	if typ.Kind != TypeFunction || typ.Name != "get" {
		t.Errorf("TypeOf() = %+v, want Kind=TypeFunction Name=get", typ)
	}
}

func TestMarkDirtyForcesRebind(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "x = 1\n",
	})
	path := filepath.Join(root, "a.py")

	e := New(root)
	trackAndBind(e, path)
	if _, ok := e.FileState(path); !ok {
		t.Fatal("expected a.py to be bound")
	}

	e.MarkDirty(path)
	if _, ok := e.FileState(path); ok {
		t.Fatal("expected FileState to be cleared immediately after MarkDirty")
	}
	for e.MakeProgress() {
	}
	if _, ok := e.FileState(path); !ok {
		t.Fatal("expected a.py to be rebound after MarkDirty")
	}
}

// findNamesWithText returns every "identifier" node in fs.Tree whose text
// equals name, in source order.
func findNamesWithText(fs *FileState, name string) []pytree.NodeID {
	var out []pytree.NodeID
	for i := 0; i < fs.Tree.NumNodes(); i++ {
		id := pytree.NodeID(i)
		n := fs.Tree.Node(id)
		if n.Kind == "identifier" && fs.Tree.Text(id) == name {
			out = append(out, id)
		}
	}
	return out
}
