// Package symbol implements the symbol string grammar: the descriptor
// model and the global/local/empty symbol shapes every other package in
// this module treats as an opaque, well-formed string.
package symbol

import (
	"strconv"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"
)

// Scheme and Manager are the fixed tokens for every global symbol this
// indexer produces.
const (
	Scheme  = "py-index"
	Manager = "pypi"
)

// Empty is the single-character sentinel symbol used as the root owner
// for packageless symbols.
const Empty Symbol = "."

// StdlibPackageName is the distinguished package name for the Python
// standard library.
const StdlibPackageName = "python-stdlib"

// Symbol is the string-shaped value type described in the data model:
// it always has exactly one of the global, local, or empty shapes, and
// it never has leading or trailing whitespace. The zero value is not a
// valid Symbol; only the constructors in this file produce one.
type Symbol string

// String returns the underlying textual form.
func (s Symbol) String() string { return string(s) }

// WellFormed reports whether s satisfies the whitespace invariant of §3:
// a symbol value never contains leading or trailing whitespace.
func (s Symbol) WellFormed() bool {
	trimmed := strings.TrimSpace(string(s))
	return trimmed == string(s) && trimmed != ""
}

// DescriptorKind tags one element of a symbol path.
type DescriptorKind int

const (
	Namespace DescriptorKind = iota
	Type
	Term
	Method
	Meta
	Parameter
	TypeParameter
)

// Descriptor is one path component of a symbol.
type Descriptor struct {
	Kind          DescriptorKind
	Name          string
	Disambiguator string // only meaningful for Method
}

func escapeName(name string) string {
	if name == "" {
		return "``"
	}
	if isPlainIdentifier(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func isPlainIdentifier(name string) bool {
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			if !isLetter {
				return false
			}
			continue
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

func (d Descriptor) toSCIP() *scip.Descriptor {
	out := &scip.Descriptor{Name: d.Name, Disambiguator: d.Disambiguator}
	switch d.Kind {
	case Namespace:
		out.Suffix = scip.Descriptor_Namespace
	case Type:
		out.Suffix = scip.Descriptor_Type
	case Term:
		out.Suffix = scip.Descriptor_Term
	case Method:
		out.Suffix = scip.Descriptor_Method
	case Meta:
		out.Suffix = scip.Descriptor_Meta
	case Parameter:
		out.Suffix = scip.Descriptor_Parameter
	case TypeParameter:
		out.Suffix = scip.Descriptor_TypeParameter
	}
	return out
}

// NewNamespace builds a namespace(name) descriptor.
func NewNamespace(name string) Descriptor { return Descriptor{Kind: Namespace, Name: name} }

// NewType builds a type(name) descriptor.
func NewType(name string) Descriptor { return Descriptor{Kind: Type, Name: name} }

// NewTerm builds a term(name) descriptor.
func NewTerm(name string) Descriptor { return Descriptor{Kind: Term, Name: name} }

// NewMethod builds a method(name, disambiguator?) descriptor.
func NewMethod(name, disambiguator string) Descriptor {
	return Descriptor{Kind: Method, Name: name, Disambiguator: disambiguator}
}

// NewMeta builds a meta(name) descriptor.
func NewMeta(name string) Descriptor { return Descriptor{Kind: Meta, Name: name} }

// NewParameter builds a parameter(name) descriptor.
func NewParameter(name string) Descriptor { return Descriptor{Kind: Parameter, Name: name} }

// NewTypeParameter builds a typeParameter(name) descriptor.
func NewTypeParameter(name string) Descriptor { return Descriptor{Kind: TypeParameter, Name: name} }

// PackageInfo is the unit of symbol globality: a (name, version) pair
// plus the set of files it owns.
type PackageInfo struct {
	Name    string
	Version string
	Files   map[string]struct{}
}

// NewPackageInfo builds an empty PackageInfo for name/version.
func NewPackageInfo(name, version string) *PackageInfo {
	return &PackageInfo{Name: name, Version: version, Files: make(map[string]struct{})}
}

// Global builds the global-shaped symbol
// "<scheme> <manager> <package-name> <package-version> " + descriptors.
func Global(pkg *PackageInfo, descriptors ...Descriptor) Symbol {
	scipDescriptors := make([]*scip.Descriptor, len(descriptors))
	for i, d := range descriptors {
		scipDescriptors[i] = d.toSCIP()
	}
	s := scip.Symbol{
		Scheme: Scheme,
		Package: &scip.Package{
			Manager: Manager,
			Name:    pkg.Name,
			Version: pkg.Version,
		},
		Descriptors: scipDescriptors,
	}
	return Symbol(scip.VerboseSymbolFormatter.FormatSymbol(&s))
}

// Extend appends a single descriptor's textual encoding to an existing
// global symbol. This is the common case in the walker: taking a parent
// symbol already in hand and extending its descriptor path by one
// element, without re-deriving the whole path from the package.
func Extend(parent Symbol, d Descriptor) Symbol {
	return parent + Symbol(renderOne(d))
}

func renderOne(d Descriptor) string {
	name := escapeName(d.Name)
	switch d.Kind {
	case Namespace:
		return name + "/"
	case Type:
		return name + "#"
	case Term:
		return name + "."
	case Method:
		if d.Disambiguator != "" {
			return name + "(" + d.Disambiguator + ")."
		}
		return name + "()."
	case Meta:
		return name + ":"
	case Parameter:
		return "(" + name + ")"
	case TypeParameter:
		return "[" + name + "]"
	}
	return ""
}

// Local builds the local-shaped symbol "local N".
func Local(n int) Symbol {
	return Symbol("local " + strconv.Itoa(n))
}
