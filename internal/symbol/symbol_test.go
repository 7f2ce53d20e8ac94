package symbol

import "testing"

func TestGlobalSymbolWellFormed(t *testing.T) {
	pkg := NewPackageInfo("acme", "1.0")
	s := Global(pkg, NewNamespace("m"), NewType("C"))

	if !s.WellFormed() {
		t.Fatalf("expected well-formed symbol, got %q", s)
	}

	want := "py-index pypi acme 1.0 m/C#"
	if s.String() != want {
		t.Errorf("Global() = %q, want %q", s.String(), want)
	}
}

func TestExtendAppendsDescriptor(t *testing.T) {
	pkg := NewPackageInfo("acme", "1.0")
	class := Global(pkg, NewNamespace("m"), NewType("C"))
	method := Extend(class, NewMethod("f", ""))

	want := "py-index pypi acme 1.0 m/C#f()."
	if method.String() != want {
		t.Errorf("Extend() = %q, want %q", method.String(), want)
	}
}

func TestLocalSymbol(t *testing.T) {
	if got := Local(0).String(); got != "local 0" {
		t.Errorf("Local(0) = %q, want %q", got, "local 0")
	}
	if got := Local(42).String(); got != "local 42" {
		t.Errorf("Local(42) = %q, want %q", got, "local 42")
	}
}

func TestEmptySymbol(t *testing.T) {
	if Empty.String() != "." {
		t.Errorf("Empty = %q, want %q", Empty.String(), ".")
	}
}

func TestWellFormedRejectsWhitespace(t *testing.T) {
	if Symbol(" local 1").WellFormed() {
		t.Error("expected leading whitespace to be rejected")
	}
	if Symbol("local 1 ").WellFormed() {
		t.Error("expected trailing whitespace to be rejected")
	}
}

func TestEscapeNameBackticksReservedCharacters(t *testing.T) {
	pkg := NewPackageInfo("acme", "1.0")
	s := Global(pkg, NewTerm("weird name"))
	want := "py-index pypi acme 1.0 `weird name`."
	if s.String() != want {
		t.Errorf("Global() = %q, want %q", s.String(), want)
	}
}
