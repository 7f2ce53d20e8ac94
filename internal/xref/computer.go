package xref

import (
	"github.com/pyxref/pyxref/internal/oracle"
	"github.com/pyxref/pyxref/internal/pkgresolve"
	"github.com/pyxref/pyxref/internal/pytree"
	"github.com/pyxref/pyxref/internal/symbol"
)

// transparentKinds pass through to their parent's symbol unchanged (§4.3's
// "transparent" rows): control-flow and expression wrapper nodes that are
// never themselves a declaration site.
var transparentKinds = map[string]bool{
	"block": true, "with_statement": true, "if_statement": true,
	"for_statement": true, "expression_statement": true, "tuple": true,
	"for_in_clause": true, "if_clause": true, "argument_list": true,
	"binary_operator": true, "boolean_operator": true, "comparison_operator": true,
	"list_comprehension": true, "set_comprehension": true,
	"dictionary_comprehension": true, "generator_expression": true,
	"parenthesized_expression": true, "decorated_definition": true,
}

// memoKey identifies a declaration node across files: two files' arenas
// both number nodes starting at 0, so the path must be part of the key.
type memoKey struct {
	file string
	node pytree.NodeID
}

// Computer implements symbol_for: given a declaration node, the canonical
// symbol string, memoized per (file, node) for the lifetime of one run
// (spec §3: "memo table whose lifetime equals the file walk (cleared
// between files)" — in practice this implementation keys by file path so
// clearing is unnecessary and cross-file lookups during the walk of a
// different file still hit the same cache entry, which is what makes
// Scenario E's cross-file reference resolve to the same symbol both
// times it is computed).
type Computer struct {
	oracle   *oracle.Evaluator
	resolver *pkgresolve.Resolver
	locals   *LocalCounter

	memo map[memoKey]symbol.Symbol
}

// NewComputer builds a Computer over ev/resolver, allocating fresh locals
// through locals.
func NewComputer(ev *oracle.Evaluator, resolver *pkgresolve.Resolver, locals *LocalCounter) *Computer {
	return &Computer{oracle: ev, resolver: resolver, locals: locals, memo: make(map[memoKey]symbol.Symbol)}
}

// Memoize records s as the symbol for (file, node) directly, without
// going through compute — used by the walker's Name rule step 5, which
// computes a type-directed symbol for an import-from binding outside the
// normal §4.3 dispatch table.
func (c *Computer) Memoize(file *oracle.FileState, node pytree.NodeID, s symbol.Symbol) {
	c.memo[memoKey{file.Path, node}] = s
}

// Memoized reports whether node already has a computed symbol, without
// computing one — used by the walker's Name rule (§4.2 step 9).
func (c *Computer) Memoized(file *oracle.FileState, node pytree.NodeID) (symbol.Symbol, bool) {
	s, ok := c.memo[memoKey{file.Path, node}]
	return s, ok
}

// SymbolFor implements symbol_for(node) -> Symbol.
func (c *Computer) SymbolFor(file *oracle.FileState, node pytree.NodeID) symbol.Symbol {
	if s, ok := c.memo[memoKey{file.Path, node}]; ok {
		return s
	}
	s := c.compute(file, node)
	c.memo[memoKey{file.Path, node}] = s
	return s
}

// ResolveModulePath exposes the oracle's module-name-to-path lookup, used
// by the walker's import-read handling to find the imported module's own
// file before asking PackageResolver to classify it.
func (c *Computer) ResolveModulePath(moduleName string) (string, bool) {
	return c.oracle.ResolvePath(moduleName)
}

// FreshLocal allocates a new local symbol. Exposed for the walker's Name
// rule, which must sometimes produce a local without going through
// SymbolFor at all (steps 2 and 4 of §4.2).
func (c *Computer) FreshLocal() symbol.Symbol { return c.locals.Next() }

// ownerPackage resolves the package that owns file, per §4.3's opening
// rule: builtins first, then PackageResolver (which itself applies the
// project-root tie-break ahead of module-name matching).
func (c *Computer) ownerPackage(file *oracle.FileState) (*symbol.PackageInfo, bool) {
	if file.ModuleName == "builtins" {
		return c.resolver.StdlibPackage(), true
	}
	return c.resolver.PackageFor(file.Path, file.ModuleName)
}

func (c *Computer) compute(file *oracle.FileState, node pytree.NodeID) symbol.Symbol {
	owner, ok := c.ownerPackage(file)
	if !ok {
		return c.FreshLocal()
	}

	n := file.Tree.Node(node)
	parent := file.Tree.Parent(node)

	switch n.Kind {
	case "module":
		return symbol.Global(owner, symbol.NewNamespace(file.ModuleName))

	case "class_definition":
		nameID, ok := file.Tree.ChildByField(node, "name")
		if !ok || parent == pytree.NoParent {
			return c.FreshLocal()
		}
		parentSym := c.SymbolFor(file, parent)
		return symbol.Extend(parentSym, symbol.NewType(file.Tree.Text(nameID)))

	case "function_definition":
		nameID, ok := file.Tree.ChildByField(node, "name")
		if !ok {
			return c.FreshLocal()
		}
		name := file.Tree.Text(nameID)
		if scopeKind, ok := file.ScopeKindOf(node); ok && scopeKind == oracle.ScopeClass {
			if classNode, ok := file.EnclosingScopeNode(node); ok {
				return symbol.Extend(c.SymbolFor(file, classNode), symbol.NewMethod(name, ""))
			}
		}
		if parent == pytree.NoParent {
			return c.FreshLocal()
		}
		return symbol.Extend(c.SymbolFor(file, parent), symbol.NewMethod(name, ""))

	case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter",
		"list_splat_pattern", "dictionary_splat_pattern":
		if isParameterNode(file, node) {
			return c.computeParameter(file, node)
		}
		return c.computeName(file, node, owner)

	case "assignment":
		scopeKind, _ := file.ScopeKindOf(node)
		if scopeKind == oracle.ScopeFunction {
			return c.FreshLocal()
		}
		if owner == c.resolver.ProjectPackage() && owner.Version == "" {
			return c.FreshLocal()
		}
		if parent == pytree.NoParent {
			return c.FreshLocal()
		}
		return c.SymbolFor(file, parent)

	case "aliased_import":
		// Shared grammar node for both `import X as Y` (an alias binding,
		// keyed on Y like an ordinary module-level name) and
		// `from M import X as Y` (a re-export binding, empty symbol) —
		// distinguished by which statement wraps it.
		if parent != pytree.NoParent && file.Tree.Node(parent).Kind == "import_from_statement" {
			return symbol.Empty
		}
		return c.computeAliasBinding(file, node)

	case "dotted_name":
		// Only reachable here as an import-from binding's declaration node
		// (internal/oracle/scopes.go records no binding for a plain
		// unaliased `import a.b` dotted_name); re-export, empty symbol.
		return symbol.Empty

	case "import_from_statement":
		return symbol.Empty

	case "decorator", "lambda":
		return c.FreshLocal()

	default:
		if transparentKinds[n.Kind] {
			if parent == pytree.NoParent {
				return c.FreshLocal()
			}
			return c.SymbolFor(file, parent)
		}
		if parent == pytree.NoParent {
			return c.FreshLocal()
		}
		return c.SymbolFor(file, parent)
	}
}

// computeName handles the Name row: local when the enclosing scope is a
// function/lambda/comprehension, otherwise a term descriptor rooted at
// the enclosing scope's own symbol.
func (c *Computer) computeName(file *oracle.FileState, node pytree.NodeID, owner *symbol.PackageInfo) symbol.Symbol {
	if scopeKind, ok := file.ScopeKindOf(node); ok && scopeKind == oracle.ScopeFunction {
		return c.FreshLocal()
	}
	base := file.Tree.Parent(node)
	if enclosing, ok := file.EnclosingScopeNode(node); ok {
		base = enclosing
	}
	if base == pytree.NoParent {
		return c.FreshLocal()
	}
	name := file.Tree.Text(node)
	return symbol.Extend(c.SymbolFor(file, base), symbol.NewTerm(name))
}

// computeParameter handles named and unnamed parameters.
func (c *Computer) computeParameter(file *oracle.FileState, node pytree.NodeID) symbol.Symbol {
	fnNode, ok := file.EnclosingScopeNode(node)
	if !ok {
		return c.FreshLocal()
	}
	name, ok := paramName(file.Tree, node)
	if !ok {
		return c.FreshLocal()
	}
	return symbol.Extend(c.SymbolFor(file, fnNode), symbol.NewParameter(name))
}

// computeAliasBinding handles a plain `import X as Y` alias: Y is bound
// like any other module-scope name, a term descriptor rooted at the
// enclosing scope (matching the ordinary Name row's formula), not the
// imported module's own symbol.
func (c *Computer) computeAliasBinding(file *oracle.FileState, node pytree.NodeID) symbol.Symbol {
	aliasID, ok := file.Tree.ChildByField(node, "alias")
	if !ok {
		return c.FreshLocal()
	}
	if scopeKind, ok := file.ScopeKindOf(node); ok && scopeKind == oracle.ScopeFunction {
		return c.FreshLocal()
	}
	base, ok := file.EnclosingScopeNode(node)
	if !ok {
		return c.FreshLocal()
	}
	name := file.Tree.Text(aliasID)
	return symbol.Extend(c.SymbolFor(file, base), symbol.NewTerm(name))
}

// isParameterNode reports whether node sits directly inside a "parameters"
// node — the only way to distinguish a Parameter declaration site from an
// ordinary Name, since both share the identifier kind.
func isParameterNode(file *oracle.FileState, node pytree.NodeID) bool {
	parent := file.Tree.Parent(node)
	if parent == pytree.NoParent {
		return false
	}
	return file.Tree.Node(parent).Kind == "parameters"
}

// paramName extracts a parameter node's bound name, mirroring the
// oracle's own binder (internal/oracle/scopes.go bindParameters) so the
// two stay in lockstep.
func paramName(t *pytree.Tree, node pytree.NodeID) (string, bool) {
	n := t.Node(node)
	switch n.Kind {
	case "identifier":
		return t.Text(node), true
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		if nameID, ok := t.ChildByField(node, "name"); ok {
			return t.Text(nameID), true
		}
		for _, c := range t.Children(node) {
			if t.Node(c).Kind == "identifier" {
				return t.Text(c), true
			}
		}
		return "", false
	case "list_splat_pattern", "dictionary_splat_pattern":
		for _, c := range t.Children(node) {
			if t.Node(c).Kind == "identifier" {
				return t.Text(c), true
			}
		}
		return "", false
	}
	return "", false
}
