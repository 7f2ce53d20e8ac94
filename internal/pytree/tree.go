// Package pytree parses Python source into a read-only node arena with a
// parent-id back-index, the external "Python parser" collaborator the
// core (internal/xref) consumes without ever parsing itself.
package pytree

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// NodeID indexes into a Tree's arena. Ids start at 0, which is the root's
// id, so the zero value is a real node: callers distinguish "no node" with
// the bool returned alongside a NodeID (or with NoParent), never with the
// zero value itself.
type NodeID int32

// NoParent marks a node with no parent (the root).
const NoParent NodeID = -1

// Node is one arena entry: a tagged, position-carrying tree node. Kind is
// the tree-sitter grammar's node kind string (e.g. "class_definition",
// "identifier") rather than a closed Go enum, since the Python grammar's
// node-kind vocabulary is the one already used by spec §4.2's rule table.
type Node struct {
	ID         NodeID
	Kind       string
	FieldName  string // the field name under which the parent exposes this child, if any
	StartByte  uint32
	EndByte    uint32
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	ChildIDs   []NodeID
}

// Tree is a fully-materialized, read-only parse tree: an arena of Nodes
// plus a parent-id table, built in one pass immediately after parsing so
// that SymbolComputer can walk outward via integer ids rather than
// embedded pointers (spec §9, "Parent pointers and cycles").
type Tree struct {
	Path    string
	Source  []byte
	nodes   []Node
	parents []NodeID

	raw    *sitter.Tree
	parser *sitter.Parser
}

var pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// Parse parses Python source and returns a fully materialized Tree. The
// returned Tree owns the underlying tree-sitter parser/tree and must be
// closed with Close when no longer needed.
func Parse(path string, content []byte) (*Tree, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(pythonLanguage); err != nil {
		parser.Close()
		return nil, fmt.Errorf("pytree: set language: %w", err)
	}

	raw := parser.Parse(content, nil)
	if raw == nil {
		parser.Close()
		return nil, fmt.Errorf("pytree: parse %s: tree-sitter returned no tree", path)
	}

	t := &Tree{
		Path:   path,
		Source: content,
		raw:    raw,
		parser: parser,
	}
	t.build(raw.RootNode())
	return t, nil
}

// Close releases the underlying tree-sitter parser and tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
	if t.parser != nil {
		t.parser.Close()
		t.parser = nil
	}
}

// build walks the raw tree-sitter tree once, assigning sequential ids in
// pre-order and recording each node's parent in t.parents.
func (t *Tree) build(root *sitter.Node) {
	var walk func(n *sitter.Node, fieldName string, parent NodeID) NodeID
	walk = func(n *sitter.Node, fieldName string, parent NodeID) NodeID {
		id := NodeID(len(t.nodes))
		t.nodes = append(t.nodes, Node{})
		t.parents = append(t.parents, parent)

		startPoint := n.StartPosition()
		endPoint := n.EndPosition()

		childCount := n.ChildCount()
		childIDs := make([]NodeID, 0, childCount)
		for i := uint(0); i < childCount; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			childField := n.FieldNameForChild(uint32(i))
			childIDs = append(childIDs, walk(child, childField, id))
		}

		t.nodes[id] = Node{
			ID:        id,
			Kind:      n.Kind(),
			FieldName: fieldName,
			StartByte: uint32(n.StartByte()),
			EndByte:   uint32(n.EndByte()),
			StartLine: int(startPoint.Row),
			StartCol:  int(startPoint.Column),
			EndLine:   int(endPoint.Row),
			EndCol:    int(endPoint.Column),
			ChildIDs:  childIDs,
		}
		return id
	}
	walk(root, "", NoParent)
}

// Root returns the root node's id. A freshly parsed Tree always has at
// least the root node, so Root is always valid.
func (t *Tree) Root() NodeID { return 0 }

// Node returns the arena entry for id.
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// Parent returns id's parent, or NoParent if id is the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.parents[id] }

// Text returns the source text spanned by id.
func (t *Tree) Text(id NodeID) string {
	n := t.nodes[id]
	if n.StartByte >= uint32(len(t.Source)) || n.EndByte > uint32(len(t.Source)) || n.StartByte >= n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// Children returns id's direct children in source order.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].ChildIDs }

// ChildByField returns the first child of id exposed under the given
// tree-sitter field name.
func (t *Tree) ChildByField(id NodeID, field string) (NodeID, bool) {
	for _, c := range t.nodes[id].ChildIDs {
		if t.nodes[c].FieldName == field {
			return c, true
		}
	}
	return 0, false
}

// ChildrenOfKind returns id's direct children whose Kind equals kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind string) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].ChildIDs {
		if t.nodes[c].Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// NumNodes returns the number of nodes in the arena.
func (t *Tree) NumNodes() int { return len(t.nodes) }
