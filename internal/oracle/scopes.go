package oracle

import (
	"strings"

	"github.com/pyxref/pyxref/internal/pytree"
)

// ScopeKind tags a binding scope.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction // also covers lambdas and comprehensions
)

// binding records one name bound within a scope: the name string and the
// declaring construct's node id (the "D.node" of spec §4.2).
type binding struct {
	declNode pytree.NodeID
	kind     DeclKind
}

// scope is one entry on the lexical scope stack built while binding a
// file's names.
type scope struct {
	kind     ScopeKind
	node     pytree.NodeID
	bindings map[string]binding
	parent   *scope
}

func newScope(kind ScopeKind, node pytree.NodeID, parent *scope) *scope {
	return &scope{kind: kind, node: node, bindings: make(map[string]binding), parent: parent}
}

func (s *scope) lookup(name string) (binding, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b, cur, true
		}
	}
	return binding{}, nil, false
}

// FileState holds everything the oracle knows about one tracked file
// after it has been parsed and bound: its tree, module dotted name, the
// module-level scope, and a node-id → innermost-scope index used to
// resolve a Name node's declaration.
type FileState struct {
	Path       string
	ModuleName string
	Tree       *pytree.Tree

	moduleScope  *scope
	nodeScope    map[pytree.NodeID]*scope // node id -> innermost scope containing it
	importEdges  []importEdge             // import statements found while binding, for fixpoint discovery
	importFrom   map[pytree.NodeID]importFromInfo
	bound        bool
}

// importFromInfo records, for one import-from binding node, which module
// it came from and which name was imported under that module — enough
// for the oracle's TypeOf to jump into the target module's bindings.
type importFromInfo struct {
	module string
	name   string
}

// importEdge records one `import`/`from ... import` statement's target
// module, discovered during binding, so MakeProgress can pull in the
// files it names.
type importEdge struct {
	moduleName string
}

func newFileState(path, moduleName string, tree *pytree.Tree) *FileState {
	return &FileState{
		Path:       path,
		ModuleName: moduleName,
		Tree:       tree,
		nodeScope:  make(map[pytree.NodeID]*scope),
		importFrom: make(map[pytree.NodeID]importFromInfo),
	}
}

// ImportFromInfo returns the module/name an import-from binding node was
// bound from, if id names one.
func (fs *FileState) ImportFromInfo(id pytree.NodeID) (module, name string, ok bool) {
	info, ok := fs.importFrom[id]
	return info.module, info.name, ok
}

// bind walks the file's tree once, building the scope chain and the
// node-id → scope index. It is intentionally simple: it recognizes
// module/class/function/lambda/comprehension scopes, assignment targets,
// parameters, and for/comprehension targets. A tuple or list target binds
// every identifier inside it, all sharing the enclosing declaring node;
// attribute, subscript and other target shapes bind nothing. It is not a
// complete Python binder.
func (fs *FileState) bind(t *pytree.Tree) {
	root := t.Root()
	moduleScope := newScope(ScopeModule, root, nil)
	fs.moduleScope = moduleScope
	fs.nodeScope[root] = moduleScope

	var walk func(id pytree.NodeID, cur *scope)
	walk = func(id pytree.NodeID, cur *scope) {
		fs.nodeScope[id] = cur
		node := t.Node(id)

		switch node.Kind {
		case "class_definition":
			if nameID, ok := t.ChildByField(id, "name"); ok {
				cur.bindings[t.Text(nameID)] = binding{declNode: id, kind: DeclClass}
			}
			classScope := newScope(ScopeClass, id, cur)
			for _, c := range t.Children(id) {
				walk(c, classScope)
			}
			return

		case "function_definition":
			if nameID, ok := t.ChildByField(id, "name"); ok {
				cur.bindings[t.Text(nameID)] = binding{declNode: id, kind: DeclFunction}
			}
			fnScope := newScope(ScopeFunction, id, cur)
			if paramsID, ok := t.ChildByField(id, "parameters"); ok {
				fs.bindParameters(t, paramsID, fnScope)
			}
			for _, c := range t.Children(id) {
				walk(c, fnScope)
			}
			return

		case "lambda":
			lambdaScope := newScope(ScopeFunction, id, cur)
			if paramsID, ok := t.ChildByField(id, "parameters"); ok {
				fs.bindParameters(t, paramsID, lambdaScope)
			}
			for _, c := range t.Children(id) {
				walk(c, lambdaScope)
			}
			return

		case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
			compScope := newScope(ScopeFunction, id, cur)
			fs.bindComprehensionTargets(t, id, compScope)
			for _, c := range t.Children(id) {
				walk(c, compScope)
			}
			return

		case "assignment":
			fs.bindAssignmentTargets(t, id, cur)

		case "for_statement":
			if leftID, ok := t.ChildByField(id, "left"); ok {
				fs.bindForTarget(t, leftID, cur)
			}

		case "import_statement":
			fs.recordImportStatement(t, id, cur)

		case "import_from_statement":
			fs.recordImportFromStatement(t, id, cur)
		}

		for _, c := range t.Children(id) {
			walk(c, cur)
		}
	}

	walk(root, moduleScope)
}

func (fs *FileState) bindParameters(t *pytree.Tree, paramsID pytree.NodeID, sc *scope) {
	for _, p := range t.Children(paramsID) {
		pn := t.Node(p)
		switch pn.Kind {
		case "identifier":
			sc.bindings[t.Text(p)] = binding{declNode: p, kind: DeclParameter}
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if nameID, ok := t.ChildByField(p, "name"); ok {
				sc.bindings[t.Text(nameID)] = binding{declNode: p, kind: DeclParameter}
			} else {
				for _, c := range t.Children(p) {
					if t.Node(c).Kind == "identifier" {
						sc.bindings[t.Text(c)] = binding{declNode: p, kind: DeclParameter}
						break
					}
				}
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			for _, c := range t.Children(p) {
				if t.Node(c).Kind == "identifier" {
					sc.bindings[t.Text(c)] = binding{declNode: p, kind: DeclParameter}
				}
			}
		}
	}
}

func (fs *FileState) bindAssignmentTargets(t *pytree.Tree, assignID pytree.NodeID, sc *scope) {
	leftID, ok := t.ChildByField(assignID, "left")
	if !ok {
		return
	}
	fs.bindTargetExpr(t, leftID, assignID, sc, DeclAssignment)
}

func (fs *FileState) bindTargetExpr(t *pytree.Tree, exprID, declNode pytree.NodeID, sc *scope, kind DeclKind) {
	switch t.Node(exprID).Kind {
	case "identifier":
		sc.bindings[t.Text(exprID)] = binding{declNode: declNode, kind: kind}
	case "pattern_list", "tuple_pattern", "list_pattern":
		for _, c := range t.Children(exprID) {
			fs.bindTargetExpr(t, c, declNode, sc, kind)
		}
	}
}

func (fs *FileState) bindForTarget(t *pytree.Tree, leftID pytree.NodeID, sc *scope) {
	fs.bindTargetExpr(t, leftID, leftID, sc, DeclForTarget)
}

func (fs *FileState) bindComprehensionTargets(t *pytree.Tree, compID pytree.NodeID, sc *scope) {
	for _, forClauseID := range t.ChildrenOfKind(compID, "for_in_clause") {
		if leftID, ok := t.ChildByField(forClauseID, "left"); ok {
			fs.bindTargetExpr(t, leftID, leftID, sc, DeclComprehensionTarget)
		}
	}
}

func (fs *FileState) recordImportStatement(t *pytree.Tree, id pytree.NodeID, sc *scope) {
	for _, c := range t.Children(id) {
		switch t.Node(c).Kind {
		case "dotted_name":
			dotted := dottedName(t, c)
			fs.importEdges = append(fs.importEdges, importEdge{moduleName: dotted})
		case "aliased_import":
			nameID, okName := t.ChildByField(c, "name")
			aliasID, okAlias := t.ChildByField(c, "alias")
			if okName {
				dotted := dottedName(t, nameID)
				fs.importEdges = append(fs.importEdges, importEdge{moduleName: dotted})
				if okAlias {
					sc.bindings[t.Text(aliasID)] = binding{declNode: c, kind: DeclImportModule}
				}
			}
		}
	}
}

func (fs *FileState) recordImportFromStatement(t *pytree.Tree, id pytree.NodeID, sc *scope) {
	moduleID, ok := t.ChildByField(id, "module_name")
	if !ok {
		return
	}
	moduleName := dottedName(t, moduleID)
	fs.importEdges = append(fs.importEdges, importEdge{moduleName: moduleName})

	for _, c := range t.Children(id) {
		switch t.Node(c).Kind {
		case "dotted_name":
			if c == moduleID {
				continue
			}
			name := t.Text(c)
			sc.bindings[name] = binding{declNode: c, kind: DeclImportFromBinding}
			fs.importFrom[c] = importFromInfo{module: moduleName, name: name}
		case "aliased_import":
			nameID, hasName := t.ChildByField(c, "name")
			aliasID, hasAlias := t.ChildByField(c, "alias")
			if hasName && hasAlias {
				importedName := t.Text(nameID)
				sc.bindings[t.Text(aliasID)] = binding{declNode: c, kind: DeclImportFromBinding}
				fs.importFrom[c] = importFromInfo{module: moduleName, name: importedName}
			}
		}
	}
}

func dottedName(t *pytree.Tree, id pytree.NodeID) string {
	if t.Node(id).Kind == "identifier" {
		return t.Text(id)
	}
	var parts []string
	for _, c := range t.Children(id) {
		if t.Node(c).Kind == "identifier" {
			parts = append(parts, t.Text(c))
		}
	}
	if len(parts) == 0 {
		return t.Text(id)
	}
	return strings.Join(parts, ".")
}
