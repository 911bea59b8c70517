// Package pysyntax wraps the tree-sitter Python grammar with the typed
// accessors the analyzer needs: statement iteration, call decomposition,
// string-literal decoding and byte-offset position lookup.
package pysyntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Module is one parsed Python source unit.
type Module struct {
	Root   *sitter.Node
	Source []byte
	Lines  *LineIndex

	tree *sitter.Tree
}

// ParseError reports a syntax error in the source. It is fatal for the
// file: the analyzer never turns it into a diagnostic.
type ParseError struct {
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Col)
}

// Parse parses a single Python source unit. A source containing syntax
// errors yields a *ParseError; tree-sitter itself only fails on internal
// errors (cancelled context, grammar mismatch).
func Parse(src []byte) (*Module, error) {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	lines := NewLineIndex(src)

	if root.HasError() {
		bad := firstErrorNode(root)
		line, col := 1, 1
		if bad != nil {
			line, col = lines.Position(bad.StartByte())
		}
		return nil, &ParseError{Line: line, Col: col}
	}

	return &Module{Root: root, Source: src, Lines: lines, tree: tree}, nil
}

// Statements returns the module's top-level statement nodes in source
// order, skipping comments.
func (m *Module) Statements() []*sitter.Node {
	return BlockStatements(m.Root)
}

// Position maps a byte offset to 1-based (line, column).
func (m *Module) Position(offset uint32) (line, col int) {
	return m.Lines.Position(offset)
}

// Text returns the source text covered by a node.
func (m *Module) Text(n *sitter.Node) string {
	return n.Content(m.Source)
}

// BlockStatements returns the named statement children of a module or
// block node, skipping comments.
func BlockStatements(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// firstErrorNode locates the first ERROR or missing node in the tree so a
// parse failure can carry a position.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
