package pysyntax

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Call is a decomposed call expression: callee node, positional argument
// nodes and keyword arguments in source order. Splat arguments are
// dropped.
type Call struct {
	Node     *sitter.Node
	Func     *sitter.Node
	Args     []*sitter.Node
	Keywords []Keyword
}

// Keyword is one name=value argument of a call.
type Keyword struct {
	Name  string
	Value *sitter.Node
}

// Keyword returns the value node of the named keyword argument, or nil.
func (c *Call) Keyword(name string) *sitter.Node {
	for _, kw := range c.Keywords {
		if kw.Name == name {
			return kw.Value
		}
	}
	return nil
}

// AsCall decomposes a call node. Returns false for any other node kind.
func (m *Module) AsCall(n *sitter.Node) (*Call, bool) {
	if n == nil || n.Type() != "call" {
		return nil, false
	}
	c := &Call{Node: n, Func: n.ChildByFieldName("function")}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return c, true
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "comment", "list_splat", "dictionary_splat":
		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name != nil && value != nil {
				c.Keywords = append(c.Keywords, Keyword{Name: m.Text(name), Value: value})
			}
		default:
			c.Args = append(c.Args, arg)
		}
	}
	return c, true
}

// CalleeParts splits a call's callee into receiver and method name.
// For `df.head` the receiver is the `df` node and the method "head";
// for a bare `concat` the receiver is nil.
func (m *Module) CalleeParts(fn *sitter.Node) (receiver *sitter.Node, name string, ok bool) {
	if fn == nil {
		return nil, "", false
	}
	switch fn.Type() {
	case "identifier":
		return nil, m.Text(fn), true
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return nil, "", false
		}
		return obj, m.Text(attr), true
	}
	return nil, "", false
}

// Attribute decomposes an attribute access node into object and name.
func (m *Module) Attribute(n *sitter.Node) (obj *sitter.Node, attr string, ok bool) {
	if n == nil || n.Type() != "attribute" {
		return nil, "", false
	}
	obj = n.ChildByFieldName("object")
	a := n.ChildByFieldName("attribute")
	if obj == nil || a == nil {
		return nil, "", false
	}
	return obj, m.Text(a), true
}

// Subscript decomposes a subscript node into the subscripted value and
// the subscript expressions (more than one for `a[x, y]`).
func (m *Module) Subscript(n *sitter.Node) (value *sitter.Node, subs []*sitter.Node, ok bool) {
	if n == nil || n.Type() != "subscript" {
		return nil, nil, false
	}
	value = n.ChildByFieldName("value")
	subs = ChildrenByFieldName(n, "subscript")
	if value == nil || len(subs) == 0 {
		return nil, nil, false
	}
	return value, subs, true
}

// ChildrenByFieldName collects every child carrying the given field name.
// ChildByFieldName only yields the first, which loses the extra subscript
// expressions of `a[x, y]`.
func ChildrenByFieldName(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// Unparen strips any number of wrapping parentheses.
func Unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		n = n.NamedChild(0)
	}
	return n
}

// Ident returns the text of an identifier node.
func (m *Module) Ident(n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "identifier" {
		return "", false
	}
	return m.Text(n), true
}

// StringLiteral decodes a plain string literal: prefix letters and the
// surrounding quotes are stripped, escape sequences are kept verbatim.
func (m *Module) StringLiteral(n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	s := m.Text(n)
	s = strings.TrimLeft(s, "rbuRBUfF")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)], true
		}
	}
	return "", false
}

// IntLiteral parses an integer literal node.
func (m *Module) IntLiteral(n *sitter.Node) (int, bool) {
	if n == nil || n.Type() != "integer" {
		return 0, false
	}
	v, err := strconv.Atoi(m.Text(n))
	if err != nil {
		return 0, false
	}
	return v, true
}

// StringList extracts a list literal whose elements are all string
// literals. Any non-string element fails the extraction, which is what
// distinguishes `df[["a", "b"]]` from a boolean-mask subscript.
func (m *Module) StringList(n *sitter.Node) ([]string, bool) {
	n = Unparen(n)
	if n == nil || n.Type() != "list" {
		return nil, false
	}
	out := []string{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() == "comment" {
			continue
		}
		s, ok := m.StringLiteral(el)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// StringOrList accepts either a single string literal or a string list.
func (m *Module) StringOrList(n *sitter.Node) ([]string, bool) {
	if s, ok := m.StringLiteral(n); ok {
		return []string{s}, true
	}
	return m.StringList(n)
}

// DictKeys returns the string keys of a dictionary literal. Non-string
// keys are skipped.
func (m *Module) DictKeys(n *sitter.Node) ([]string, bool) {
	n = Unparen(n)
	if n == nil || n.Type() != "dictionary" {
		return nil, false
	}
	out := []string{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		if k, ok := m.StringLiteral(pair.ChildByFieldName("key")); ok {
			out = append(out, k)
		}
	}
	return out, true
}

// StringDict returns the entries of a dictionary literal whose pairs are
// all string-keyed and string-valued, preserving key order. A single
// non-literal key or value fails the extraction.
func (m *Module) StringDict(n *sitter.Node) (keys []string, mapping map[string]string, ok bool) {
	n = Unparen(n)
	if n == nil || n.Type() != "dictionary" {
		return nil, nil, false
	}
	mapping = map[string]string{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		k, kok := m.StringLiteral(pair.ChildByFieldName("key"))
		v, vok := m.StringLiteral(pair.ChildByFieldName("value"))
		if !kok || !vok {
			return nil, nil, false
		}
		keys = append(keys, k)
		mapping[k] = v
	}
	return keys, mapping, true
}

// AssignChain unwraps chained assignments. For `a = b = rhs` it returns
// the target nodes [a, b] and the final value node.
func (m *Module) AssignChain(n *sitter.Node) (targets []*sitter.Node, value *sitter.Node) {
	for n != nil && n.Type() == "assignment" && n.ChildByFieldName("type") == nil {
		if left := n.ChildByFieldName("left"); left != nil {
			targets = append(targets, left)
		}
		n = n.ChildByFieldName("right")
	}
	return targets, n
}
