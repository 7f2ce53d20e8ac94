// Package oracle implements a concrete, deliberately simplified
// name-resolution oracle: the external "type evaluator" collaborator the
// core consumes only through the narrow query interface of spec §6. It
// performs no general Python type inference (a Non-goal); it resolves
// declarations well enough to drive the symbol grammar.
package oracle

import "github.com/pyxref/pyxref/internal/pytree"

// DeclKind classifies what kind of construct a DeclarationRef's node is.
type DeclKind int

const (
	DeclModule DeclKind = iota
	DeclClass
	DeclFunction
	DeclParameter
	DeclAssignment
	DeclImportModule     // `import a.b as c` — a module alias binding (a plain `import a.b` binds nothing)
	DeclImportFromBinding // `from m import x` — a re-export binding, not a declaration
	DeclComprehensionTarget
	DeclForTarget
	DeclIntrinsic
)

// DeclarationRef is what the oracle returns per identifier: the
// declaring node, its kind, the module/file it lives in, and whether it
// is an alias or a language intrinsic.
type DeclarationRef struct {
	Node        pytree.NodeID
	File        *FileState
	Kind        DeclKind
	ModuleName  string
	FilePath    string
	IsAlias     bool
	IsIntrinsic bool
}

// TypeKind classifies an inferred Type.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeFunction
	TypeClass
	TypeModule
	TypeVar
)

// Type is the oracle's (deliberately coarse) inferred type for an
// expression node: enough to drive §4.2.2's type_to_symbol, nothing
// more.
type Type struct {
	Kind       TypeKind
	ModuleName string
	Name       string
	Decl       *DeclarationRef // nil for TypeVar/TypeUnknown
}
