package oracle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pyxref/pyxref/internal/pytree"
)

// Evaluator is the concrete oracle implementation consumed by internal/xref
// through the narrow interface of spec §6. It resolves declarations by
// building a lexical scope chain per tracked file and jumps across files
// only to answer TypeOf for import-from bindings, exactly the two
// operations the core actually needs.
type Evaluator struct {
	ProjectRoot string

	files        map[string]*FileState
	moduleToPath map[string]string

	pending    []string
	pendingSet map[string]bool
}

// New builds an Evaluator rooted at projectRoot.
func New(projectRoot string) *Evaluator {
	return &Evaluator{
		ProjectRoot:  projectRoot,
		files:        make(map[string]*FileState),
		moduleToPath: make(map[string]string),
		pendingSet:   make(map[string]bool),
	}
}

// TrackFile registers path for lazy analysis. is_opened/is_tracked are
// accepted for contract parity with spec §6 but this implementation
// treats every tracked file identically: it is queued for binding on the
// next MakeProgress call.
func (e *Evaluator) TrackFile(path string, tracked, opened bool) {
	if !tracked {
		return
	}
	if _, done := e.files[path]; done {
		return
	}
	if e.pendingSet[path] {
		return
	}
	e.pending = append(e.pending, path)
	e.pendingSet[path] = true
}

// MarkDirty forces path to be re-bound on a subsequent MakeProgress call.
func (e *Evaluator) MarkDirty(path string) {
	delete(e.files, path)
	if !e.pendingSet[path] {
		e.pending = append(e.pending, path)
		e.pendingSet[path] = true
	}
}

// MakeProgress performs one bounded unit of lazy analysis: binding the
// next pending file and queuing any files its imports name. It returns
// false once there is nothing left pending, which is the fixpoint signal
// the Orchestrator polls on (spec §4.1).
func (e *Evaluator) MakeProgress() bool {
	if len(e.pending) == 0 {
		return false
	}

	path := e.pending[0]
	e.pending = e.pending[1:]
	delete(e.pendingSet, path)

	content, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	tree, err := pytree.Parse(path, content)
	if err != nil {
		return true
	}

	moduleName := e.moduleNameForPath(path)
	fs := newFileState(path, moduleName, tree)
	fs.bind(tree)
	fs.bound = true

	e.files[path] = fs
	e.moduleToPath[moduleName] = path

	for _, edge := range fs.importEdges {
		if targetPath, ok := e.resolveModuleToPath(edge.moduleName); ok {
			if _, already := e.files[targetPath]; !already && !e.pendingSet[targetPath] {
				e.pending = append(e.pending, targetPath)
				e.pendingSet[targetPath] = true
			}
		}
	}

	return true
}

// FileState returns the bound state for path, if it has been analyzed.
func (e *Evaluator) FileState(path string) (*FileState, bool) {
	fs, ok := e.files[path]
	return fs, ok
}

// ScopeKindOf returns the kind of the innermost lexical scope containing
// node within file — the fact the core's SymbolComputer needs to decide
// whether a bare Name is local (inside a function/lambda suite) or
// global (§4.2.1).
func (fs *FileState) ScopeKindOf(node pytree.NodeID) (ScopeKind, bool) {
	sc, ok := fs.nodeScope[node]
	if !ok {
		return 0, false
	}
	return sc.kind, true
}

// EnclosingScopeNode returns the node id of the innermost scope
// containing node — the class_definition/function_definition/module
// node that "owns" it, used by SymbolComputer's transparent dispatch
// rows (Suite, and the generic parent fallback).
func (fs *FileState) EnclosingScopeNode(node pytree.NodeID) (pytree.NodeID, bool) {
	sc, ok := fs.nodeScope[node]
	if !ok {
		return 0, false
	}
	return sc.node, true
}

// DeclarationsOf implements declarations_of(name_node).
func (e *Evaluator) DeclarationsOf(file *FileState, nameNode pytree.NodeID) []DeclarationRef {
	name := file.Tree.Text(nameNode)

	sc, ok := file.nodeScope[nameNode]
	if ok {
		if b, _, found := sc.lookup(name); found {
			return []DeclarationRef{{
				Node:       b.declNode,
				File:       file,
				Kind:       b.kind,
				ModuleName: file.ModuleName,
				FilePath:   file.Path,
				IsAlias:    b.kind == DeclImportModule || b.kind == DeclImportFromBinding,
			}}
		}
	}

	if isIntrinsicName(name) {
		return []DeclarationRef{{
			Kind:        DeclIntrinsic,
			IsIntrinsic: true,
			ModuleName:  file.ModuleName,
			FilePath:    file.Path,
		}}
	}

	return nil
}

// IsAlias implements is_alias(decl).
func (e *Evaluator) IsAlias(d DeclarationRef) bool { return d.IsAlias }

// IsIntrinsic implements is_intrinsic(decl).
func (e *Evaluator) IsIntrinsic(d DeclarationRef) bool { return d.IsIntrinsic }

// BuiltinType implements builtin_type(name_node, text).
func (e *Evaluator) BuiltinType(name string) (Type, bool) {
	if _, ok := builtinCallables[name]; !ok {
		return Type{}, false
	}
	return Type{Kind: TypeFunction, ModuleName: "builtins", Name: name}, true
}

// TypeOf implements type_of(expr_node) for import-from binding nodes,
// the only case the core's type_to_symbol (§4.2.2) needs resolved.
func (e *Evaluator) TypeOf(d DeclarationRef) (Type, bool) {
	if d.Kind != DeclImportFromBinding || d.File == nil {
		return Type{}, false
	}
	module, name, ok := d.File.ImportFromInfo(d.Node)
	if !ok {
		return Type{}, false
	}

	targetPath, ok := e.resolveModuleToPath(module)
	if !ok {
		return Type{}, false
	}
	targetFile, ok := e.files[targetPath]
	if !ok {
		return Type{}, false
	}

	if b, found := targetFile.moduleScope.bindings[name]; found {
		declRef := DeclarationRef{
			Node: b.declNode, File: targetFile, Kind: b.kind,
			ModuleName: targetFile.ModuleName, FilePath: targetFile.Path,
		}
		switch b.kind {
		case DeclFunction:
			return Type{Kind: TypeFunction, ModuleName: targetFile.ModuleName, Name: name, Decl: &declRef}, true
		case DeclClass:
			return Type{Kind: TypeClass, ModuleName: targetFile.ModuleName, Name: name, Decl: &declRef}, true
		default:
			return Type{Kind: TypeVar}, true
		}
	}

	if _, ok := e.resolveModuleToPath(module + "." + name); ok {
		return Type{Kind: TypeModule, ModuleName: module + "." + name}, true
	}

	return Type{}, false
}

// ResolvePath exposes resolveModuleToPath: SymbolComputer needs it to
// find the file backing an imported module so PackageResolver can apply
// its project-root tie-break rule against that file, not the importing
// one.
func (e *Evaluator) ResolvePath(moduleName string) (string, bool) {
	return e.resolveModuleToPath(moduleName)
}

// moduleNameForPath derives a dotted module name from a tracked file's
// path relative to the project root, collapsing __init__.py to its
// containing package.
func (e *Evaluator) moduleNameForPath(path string) string {
	rel, err := filepath.Rel(e.ProjectRoot, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".py")
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// resolveModuleToPath maps a dotted module name to a tracked (or
// trackable) project-relative file path, trying the already-bound index
// first and falling back to a direct filesystem probe under the project
// root (for modules not yet queued, e.g. a cross-file reference
// discovered only at the moment a name is resolved).
func (e *Evaluator) resolveModuleToPath(moduleName string) (string, bool) {
	if path, ok := e.moduleToPath[moduleName]; ok {
		return path, true
	}

	rel := strings.ReplaceAll(moduleName, ".", string(filepath.Separator))
	candidate := filepath.Join(e.ProjectRoot, rel+".py")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	candidateInit := filepath.Join(e.ProjectRoot, rel, "__init__.py")
	if info, err := os.Stat(candidateInit); err == nil && !info.IsDir() {
		return candidateInit, true
	}
	return "", false
}
