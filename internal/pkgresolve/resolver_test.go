package pkgresolve

import (
	"path/filepath"
	"testing"

	"github.com/pyxref/pyxref/internal/symbol"
)

func TestPackageForProjectRootTakesPriority(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")
	r.LoadThirdParty(map[string]*symbol.PackageInfo{
		"myproj": symbol.NewPackageInfo("decoy", "9.9.9"),
	})

	pkg, ok := r.PackageFor(filepath.Join("/proj", "pkg", "mod.py"), "myproj")
	if !ok {
		t.Fatal("expected a package match")
	}
	if pkg != r.ProjectPackage() {
		t.Errorf("PackageFor() = %+v, want the project package", pkg)
	}
}

func TestPackageForBuiltinsAlwaysMatchesStdlib(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")

	pkg, ok := r.PackageFor("", "builtins")
	if !ok || pkg != r.StdlibPackage() {
		t.Fatalf("PackageFor(builtins) = %+v, %v, want stdlib package", pkg, ok)
	}
}

func TestPackageForStdlibRootContainment(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "/usr/lib/python3.11", "3.11.0")

	pkg, ok := r.PackageFor(filepath.Join("/usr/lib/python3.11", "os.py"), "os")
	if !ok || pkg != r.StdlibPackage() {
		t.Fatalf("PackageFor(stdlib file) = %+v, %v, want stdlib package", pkg, ok)
	}
}

func TestPackageForThirdPartyExactMatch(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")
	requests := symbol.NewPackageInfo("requests", "2.31.0")
	r.LoadThirdParty(map[string]*symbol.PackageInfo{"requests": requests})

	pkg, ok := r.PackageFor("/venv/lib/requests/__init__.py", "requests")
	if !ok || pkg != requests {
		t.Fatalf("PackageFor(requests) = %+v, %v, want %+v", pkg, ok, requests)
	}
}

func TestPackageForThirdPartyInitSuffixFallback(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")
	requests := symbol.NewPackageInfo("requests", "2.31.0")
	r.LoadThirdParty(map[string]*symbol.PackageInfo{"requests.__init__": requests})

	pkg, ok := r.PackageFor("/venv/lib/requests/__init__.py", "requests")
	if !ok || pkg != requests {
		t.Fatalf("PackageFor(requests) via .__init__ fallback = %+v, %v, want %+v", pkg, ok, requests)
	}
}

func TestPackageForUnknownModuleNotFound(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")

	if _, ok := r.PackageFor("/somewhere/else.py", "nope"); ok {
		t.Fatal("expected no match for an unresolved module")
	}
}

func TestPackageForMemoizesThirdPartyLookups(t *testing.T) {
	r := New("/proj", "myproj", "1.0.0", "", "")
	requests := symbol.NewPackageInfo("requests", "2.31.0")
	r.LoadThirdParty(map[string]*symbol.PackageInfo{"requests": requests})

	if _, ok := r.PackageFor("/venv/lib/requests/__init__.py", "requests"); !ok {
		t.Fatal("expected first lookup to succeed")
	}

	// Remove the backing entry; a memoized lookup must still resolve.
	delete(r.thirdParty, "requests")

	pkg, ok := r.PackageFor("/venv/lib/requests/__init__.py", "requests")
	if !ok || pkg != requests {
		t.Fatalf("expected memoized lookup to still resolve, got %+v, %v", pkg, ok)
	}
}
