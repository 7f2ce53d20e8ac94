package xref

import (
	"strings"

	"github.com/pyxref/pyxref/internal/pytree"
)

// DocExtractor pulls docstrings, stub-style signatures, and per-parameter
// documentation out of the tree (spec §4.7). It has no contract beyond
// "returns possibly-empty strings" — callers never treat its output as
// load-bearing for resolution, only for documentation.
type DocExtractor struct{}

// NewDocExtractor builds a DocExtractor.
func NewDocExtractor() *DocExtractor { return &DocExtractor{} }

// Docstring reads the first expression statement of a suite and, if it is
// a string literal, returns its unquoted value. bodyNode is the "block"
// node of a class or function.
func (d *DocExtractor) Docstring(t *pytree.Tree, bodyNode pytree.NodeID) string {
	children := t.Children(bodyNode)
	if len(children) == 0 {
		return ""
	}
	first := children[0]
	stmt := first
	if t.Node(first).Kind == "expression_statement" {
		inner := t.Children(first)
		if len(inner) == 0 {
			return ""
		}
		stmt = inner[0]
	}
	if t.Node(stmt).Kind != "string" {
		return ""
	}
	return unquoteString(t.Text(stmt))
}

// ClassStub synthesizes a fenced-code stub line for a class declaration.
func (d *DocExtractor) ClassStub(t *pytree.Tree, classNode pytree.NodeID) string {
	nameID, ok := t.ChildByField(classNode, "name")
	if !ok {
		return ""
	}
	name := t.Text(nameID)
	var sb strings.Builder
	sb.WriteString("```python\nclass ")
	sb.WriteString(name)
	if supers, ok := t.ChildByField(classNode, "superclasses"); ok {
		sb.WriteString(t.Text(supers))
	}
	sb.WriteString(":\n```")
	return sb.String()
}

// FunctionStub synthesizes a fenced-code signature stub: the parameter
// list with annotations and defaults, and the return annotation if any.
func (d *DocExtractor) FunctionStub(t *pytree.Tree, fnNode pytree.NodeID) string {
	nameID, ok := t.ChildByField(fnNode, "name")
	if !ok {
		return ""
	}
	name := t.Text(nameID)
	var sb strings.Builder
	sb.WriteString("```python\ndef ")
	sb.WriteString(name)
	if paramsID, ok := t.ChildByField(fnNode, "parameters"); ok {
		sb.WriteString(t.Text(paramsID))
	} else {
		sb.WriteString("()")
	}
	if retID, ok := t.ChildByField(fnNode, "return_type"); ok {
		sb.WriteString(" -> ")
		sb.WriteString(t.Text(retID))
	}
	sb.WriteString(":\n```")
	return sb.String()
}

// ParamDoc extracts paramName's excerpt from docstring, recognizing
// ":param foo: ..." (Sphinx-style) and "foo: ..." (Google/Numpy-style)
// forms. Returns "" when no matching line is found.
func (d *DocExtractor) ParamDoc(docstring, paramName string) string {
	if docstring == "" {
		return ""
	}
	for _, line := range strings.Split(docstring, "\n") {
		trimmed := strings.TrimSpace(line)

		if rest, ok := cutPrefix(trimmed, ":param "+paramName+":"); ok {
			return strings.TrimSpace(rest)
		}
		if rest, ok := cutPrefix(trimmed, ":param "+paramName+" "); ok {
			if idx := strings.Index(rest, ":"); idx >= 0 {
				return strings.TrimSpace(rest[idx+1:])
			}
		}
		if rest, ok := cutPrefix(trimmed, paramName+":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func cutPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// unquoteString strips the surrounding quote characters (including the
// triple-quote and raw/byte/f prefixes) from a tree-sitter "string" node's
// raw text, without interpreting escape sequences.
func unquoteString(raw string) string {
	s := raw
	for len(s) > 0 {
		c := s[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			s = s[1:]
			continue
		}
		break
	}
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}
