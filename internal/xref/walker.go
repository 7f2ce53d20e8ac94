package xref

import (
	"github.com/pyxref/pyxref/internal/oracle"
	"github.com/pyxref/pyxref/internal/pkgresolve"
	"github.com/pyxref/pyxref/internal/pytree"
	"github.com/pyxref/pyxref/internal/symbol"
)

// Walker is the depth-first pre-order visitor over one file's tree (§4.2).
// It maintains its own enter/exit depth counters independent of the
// oracle's lexical scope chain (which SymbolComputer consults directly
// via FileState.ScopeKindOf/EnclosingScopeNode) — these two counters are
// the walker's half of the §8 scope-balance invariant.
type Walker struct {
	file     *oracle.FileState
	tree     *pytree.Tree
	oracle   *oracle.Evaluator
	resolver *pkgresolve.Resolver
	computer *Computer
	emitter  *Emitter
	docs     *DocExtractor

	classDepth    int
	functionDepth int

	builtinsEmitted map[string]bool
}

// NewWalker builds a Walker for file/tree, writing into doc via emitter.
func NewWalker(ev *oracle.Evaluator, resolver *pkgresolve.Resolver, computer *Computer, emitter *Emitter, file *oracle.FileState, tree *pytree.Tree) *Walker {
	return &Walker{
		file:            file,
		tree:            tree,
		oracle:          ev,
		resolver:        resolver,
		computer:        computer,
		emitter:         emitter,
		docs:            NewDocExtractor(),
		builtinsEmitted: make(map[string]bool),
	}
}

// Run drives the walk and checks the scope-stack balance invariant (§8.2).
func (w *Walker) Run() error {
	w.visit(w.tree.Root())
	if w.classDepth != 0 || w.functionDepth != 0 {
		return &WalkError{FilePath: w.file.Path, Reason: "unbalanced scope stack on completion"}
	}
	return nil
}

func (w *Walker) visit(id pytree.NodeID) {
	if w.dispatch(id) {
		return
	}
	for _, c := range w.tree.Children(id) {
		w.visit(c)
	}
}

// dispatch applies the node-kind rules of §4.2. It returns true when it
// has already driven the relevant children itself (the walker must not
// auto-descend in that case).
func (w *Walker) dispatch(id pytree.NodeID) bool {
	switch w.tree.Node(id).Kind {
	case "module":
		w.visitModule(id)
		return false
	case "class_definition":
		w.visitClass(id)
		return true
	case "function_definition":
		w.visitFunction(id)
		return true
	case "lambda":
		w.visitLambda(id)
		return true
	case "assignment":
		w.visitAssignment(id)
		return false
	case "import_statement":
		w.visitImportStatement(id)
		return true
	case "import_from_statement":
		w.visitImportFromStatement(id)
		return true
	case "identifier":
		w.visitName(id)
		return false
	default:
		return false
	}
}

// visitModule implements the Module rule.
func (w *Walker) visitModule(id pytree.NodeID) {
	owner, ok := w.resolver.PackageFor(w.file.Path, w.file.ModuleName)
	if !ok || owner != w.resolver.ProjectPackage() {
		return
	}
	base := w.computer.SymbolFor(w.file, id)
	sym := symbol.Extend(base, symbol.NewMeta("__init__"))
	w.emitter.EmitOccurrenceAt(Range{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 1}, sym, RoleDefinition)
	w.emitter.EmitSymbolInformation(sym, "(module) "+w.file.ModuleName)
}

// visitClass implements the Class rule.
func (w *Walker) visitClass(id pytree.NodeID) {
	stub := w.docs.ClassStub(w.tree, id)
	var doc string
	bodyID, hasBody := w.tree.ChildByField(id, "body")
	if hasBody {
		doc = w.docs.Docstring(w.tree, bodyID)
	}
	sym := w.computer.SymbolFor(w.file, id)
	w.emitter.EmitSymbolInformation(sym, stub, doc)

	w.classDepth++

	if nameID, ok := w.tree.ChildByField(id, "name"); ok {
		w.visit(nameID)
	}
	if hasBody {
		w.visit(bodyID)
	}

	w.classDepth--
}

// visitFunction implements the Function rule.
func (w *Walker) visitFunction(id pytree.NodeID) {
	stub := w.docs.FunctionStub(w.tree, id)
	var doc string
	bodyID, hasBody := w.tree.ChildByField(id, "body")
	if hasBody {
		doc = w.docs.Docstring(w.tree, bodyID)
	}
	sym := w.computer.SymbolFor(w.file, id)
	w.emitter.EmitSymbolInformation(sym, stub, doc)

	w.functionDepth++

	if nameID, ok := w.tree.ChildByField(id, "name"); ok {
		w.visit(nameID)
	}
	if retID, ok := w.tree.ChildByField(id, "return_type"); ok {
		w.visit(retID)
	}
	if paramsID, ok := w.tree.ChildByField(id, "parameters"); ok {
		for _, p := range w.tree.Children(paramsID) {
			w.visitParameter(p, doc)
		}
	}
	if hasBody {
		w.visit(bodyID)
	}

	w.functionDepth--
}

// visitLambda treats a lambda like a minimal anonymous function: it
// pushes a function frame, walks its parameters (no documentation — a
// lambda never has a docstring), and walks its body expression.
func (w *Walker) visitLambda(id pytree.NodeID) {
	w.functionDepth++

	if paramsID, ok := w.tree.ChildByField(id, "parameters"); ok {
		for _, p := range w.tree.Children(paramsID) {
			w.visitParameter(p, "")
		}
	}
	if bodyID, ok := w.tree.ChildByField(id, "body"); ok {
		w.visit(bodyID)
	}

	w.functionDepth--
}

// visitParameter implements the per-parameter step of the Function rule.
func (w *Walker) visitParameter(p pytree.NodeID, fnDoc string) {
	if name, ok := paramName(w.tree, p); ok {
		sym := w.computer.SymbolFor(w.file, p)
		w.emitter.EmitSymbolInformation(sym, w.docs.ParamDoc(fnDoc, name))
	}
	w.visit(p)
}

// visitAssignment implements the Assignment rule: only the extra
// SymbolInformation for a single-name target whose declaration's parent
// is this very assignment node. The Definition occurrence itself is
// produced when the left identifier is visited as an ordinary Name
// (§4.2 step 6 — its parent is the assignment node, which is D.node).
func (w *Walker) visitAssignment(id pytree.NodeID) {
	leftID, ok := w.tree.ChildByField(id, "left")
	if !ok || w.tree.Node(leftID).Kind != "identifier" {
		return
	}
	decls := w.oracle.DeclarationsOf(w.file, leftID)
	for _, d := range decls {
		if d.Kind == oracle.DeclAssignment && d.Node == id {
			sym := w.computer.SymbolFor(w.file, id)
			stub := "`" + w.tree.Text(leftID) + " = " + rhsPreview(w.tree, id) + "`"
			w.emitter.EmitSymbolInformation(sym, stub)
			return
		}
	}
}

func rhsPreview(t *pytree.Tree, assignID pytree.NodeID) string {
	rightID, ok := t.ChildByField(assignID, "right")
	if !ok {
		return "..."
	}
	text := t.Text(rightID)
	const max = 60
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// visitImportStatement implements the Import rule.
func (w *Walker) visitImportStatement(id pytree.NodeID) {
	for _, c := range w.tree.Children(id) {
		switch w.tree.Node(c).Kind {
		case "dotted_name":
			w.emitDottedModuleReads(c)
		case "aliased_import":
			if nameID, ok := w.tree.ChildByField(c, "name"); ok {
				if w.tree.Node(nameID).Kind == "dotted_name" {
					w.emitDottedModuleReads(nameID)
				} else {
					w.emitModuleRead(nameID, w.tree.Text(nameID))
				}
			}
			if aliasID, ok := w.tree.ChildByField(c, "alias"); ok {
				w.visit(aliasID)
			}
		}
	}
}

// visitImportFromStatement implements the ImportFrom rule: a read for the
// source module, then each imported name is left to the Name algorithm
// (it is bound in the import-binding map implicitly via DeclImportFromBinding,
// consulted through oracle.TypeOf in visitName's step 5).
func (w *Walker) visitImportFromStatement(id pytree.NodeID) {
	if moduleID, ok := w.tree.ChildByField(id, "module_name"); ok {
		if w.tree.Node(moduleID).Kind == "dotted_name" {
			w.emitDottedModuleReads(moduleID)
		} else {
			w.emitModuleRead(moduleID, w.tree.Text(moduleID))
		}
	}
	for _, c := range w.tree.Children(id) {
		switch w.tree.Node(c).Kind {
		case "dotted_name":
			if mid, ok := w.tree.ChildByField(id, "module_name"); ok && mid == c {
				continue
			}
			w.visitNameBindingOnly(c)
		case "aliased_import":
			if aliasID, ok := w.tree.ChildByField(c, "alias"); ok {
				w.visitNameBindingOnly(aliasID)
			}
		}
	}
}

// visitNameBindingOnly drives the Name algorithm for an import-from
// binding's own name node without recursing into children (it is a
// leaf in practice: a dotted_name here is a single unqualified name).
func (w *Walker) visitNameBindingOnly(id pytree.NodeID) {
	w.visitName(id)
}

// emitDottedModuleReads emits one read occurrence per dotted-path prefix
// of a dotted_name node (spec §4.2 Import rule: "each imported module and
// each dotted part").
func (w *Walker) emitDottedModuleReads(dottedID pytree.NodeID) {
	parts := w.tree.ChildrenOfKind(dottedID, "identifier")
	if len(parts) == 0 {
		w.emitModuleRead(dottedID, w.tree.Text(dottedID))
		return
	}
	acc := ""
	for _, part := range parts {
		if acc != "" {
			acc += "."
		}
		acc += w.tree.Text(part)
		w.emitModuleRead(part, acc)
	}
}

// emitModuleRead emits a read occurrence at nameNode for the canonical
// symbol of the (sub)module named by moduleDotted, resolved through
// PackageResolver against the module's own file when known.
func (w *Walker) emitModuleRead(nameNode pytree.NodeID, moduleDotted string) {
	targetPath, _ := w.computer.ResolveModulePath(moduleDotted)
	owner, ok := w.resolver.PackageFor(targetPath, moduleDotted)
	if !ok {
		w.emitter.EmitOccurrence(nameNode, w.computer.FreshLocal(), RoleReadAccess)
		return
	}
	base := symbol.Global(owner, symbol.NewNamespace(moduleDotted))
	sym := symbol.Extend(base, symbol.NewMeta("__init__"))
	w.emitter.EmitOccurrence(nameNode, sym, RoleReadAccess)
}

// visitName implements the Name rule, the ten-step algorithm of §4.2.
func (w *Walker) visitName(n pytree.NodeID) {
	name := w.tree.Text(n)

	decls := w.oracle.DeclarationsOf(w.file, n)
	if len(decls) == 0 {
		if t, ok := w.oracle.BuiltinType(name); ok {
			w.emitBuiltinOnce(name, t)
			return
		}
		w.emitter.EmitOccurrence(n, w.computer.FreshLocal(), RoleReadAccess)
		return
	}

	d := decls[0]

	if d.IsIntrinsic || w.oracle.IsIntrinsic(d) {
		w.emitter.EmitOccurrence(n, w.computer.FreshLocal(), RoleReadAccess)
		return
	}

	if d.Kind == oracle.DeclImportFromBinding {
		var resolved symbol.Symbol
		var haveResolved bool

		if t, ok := w.oracle.TypeOf(d); ok && t.Kind != oracle.TypeUnknown {
			resolved, haveResolved = w.typeToSymbol(t), true
		} else if module, bindName, ok := d.File.ImportFromInfo(d.Node); ok {
			// The oracle only resolves types across project files it has
			// parsed; a binding imported from a third-party or stdlib
			// package has no FileState to inspect. Treat it as a
			// method-shaped term on that package instead of falling
			// through to an empty symbol.
			resolved, haveResolved = w.unparsedModuleMember(module, bindName)
		}

		if haveResolved {
			w.computer.Memoize(d.File, d.Node, resolved)
			role := RoleReadAccess
			if n == d.Node {
				role = RoleDefinition
			}
			w.emitter.EmitOccurrence(n, resolved, role)
			return
		}
	}

	if nParent := w.tree.Parent(n); nParent == d.Node {
		w.emitter.EmitOccurrence(n, w.computer.SymbolFor(d.File, d.Node), RoleDefinition)
		return
	}

	if d.IsAlias || w.oracle.IsAlias(d) {
		w.emitter.EmitOccurrence(n, w.computer.SymbolFor(d.File, d.Node), RoleReadAccess)
		return
	}

	if n == d.Node {
		w.emitter.EmitOccurrence(n, w.computer.SymbolFor(d.File, d.Node), RoleDefinition)
		return
	}

	if s, ok := w.computer.Memoized(d.File, d.Node); ok {
		w.emitter.EmitOccurrence(n, s, RoleReadAccess)
		return
	}

	s := w.computer.SymbolFor(d.File, d.Node)
	w.emitter.EmitOccurrence(n, s, RoleReadAccess)
}

// typeToSymbol implements §4.2.2.
func (w *Walker) typeToSymbol(t oracle.Type) symbol.Symbol {
	switch t.Kind {
	case oracle.TypeFunction:
		if t.Decl != nil {
			return w.computer.SymbolFor(t.Decl.File, t.Decl.Node)
		}
	case oracle.TypeClass:
		filePath := ""
		if t.Decl != nil {
			filePath = t.Decl.FilePath
		}
		owner, ok := w.resolver.PackageFor(filePath, t.ModuleName)
		if !ok {
			return w.computer.FreshLocal()
		}
		base := symbol.Global(owner, symbol.NewNamespace(t.ModuleName))
		return symbol.Extend(base, symbol.NewType(t.Name))
	case oracle.TypeModule:
		filePath, _ := w.computer.ResolveModulePath(t.ModuleName)
		owner, ok := w.resolver.PackageFor(filePath, t.ModuleName)
		if !ok {
			return w.computer.FreshLocal()
		}
		return symbol.Extend(symbol.Global(owner), symbol.NewMeta("__init__"))
	}
	return w.computer.FreshLocal()
}

// unparsedModuleMember resolves a name imported from a module the oracle
// never parsed (third-party or stdlib): PackageResolver still classifies
// the owning package from the module name alone, so the binding can be
// treated as a method-shaped term on that package rather than falling
// back to an empty symbol or a fresh local.
func (w *Walker) unparsedModuleMember(module, name string) (symbol.Symbol, bool) {
	targetPath, _ := w.computer.ResolveModulePath(module)
	owner, ok := w.resolver.PackageFor(targetPath, module)
	if !ok {
		return "", false
	}
	base := symbol.Global(owner, symbol.NewNamespace(module))
	return symbol.Extend(base, symbol.NewMethod(name, "")), true
}

// emitBuiltinOnce emits a builtin's SymbolInformation exactly once per
// Document (Scenario F), never an Occurrence (builtins have no
// definition site in the indexed sources).
func (w *Walker) emitBuiltinOnce(name string, t oracle.Type) {
	if w.builtinsEmitted[name] {
		return
	}
	w.builtinsEmitted[name] = true
	sym := symbol.Global(w.resolver.StdlibPackage(), symbol.NewTerm(name))
	w.emitter.EmitSymbolInformation(sym, "(builtin) "+name)
}
