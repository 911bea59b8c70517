package analysis

import (
	"fmt"
	"slices"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/typedframes/framecheck/internal/pysyntax"
)

// visitClass registers a schema class, or walks a plain class body.
//
// A class is a schema when any base is one of the known schema bases or
// is itself an already-registered schema, which makes multi-level
// inheritance work as long as parents are defined first.
func (a *Analyzer) visitClass(n *sitter.Node) {
	className, _ := a.mod.Ident(n.ChildByFieldName("name"))
	bases := a.classBases(n)

	isSchema := false
	for _, base := range bases {
		if name, ok := a.mod.Ident(base); ok {
			if isSchemaBase(name) {
				isSchema = true
				break
			}
			if _, registered := a.schemas[name]; registered {
				isSchema = true
				break
			}
		} else if _, attr, ok := a.mod.Attribute(base); ok && isSchemaBase(attr) {
			isSchema = true
			break
		}
	}

	if !isSchema || className == "" {
		a.visitBlock(n.ChildByFieldName("body"))
		return
	}

	var columns []string
	for _, base := range bases {
		if name, ok := a.mod.Ident(base); ok {
			columns = append(columns, a.schemas[name]...)
		}
	}

	for _, stmt := range pysyntax.BlockStatements(n.ChildByFieldName("body")) {
		if stmt.Type() != "expression_statement" {
			continue
		}
		for _, child := range pysyntax.BlockStatements(stmt) {
			if child.Type() != "assignment" {
				continue
			}
			if child.ChildByFieldName("type") != nil {
				// name: Type = value — a single annotated member.
				target := child.ChildByFieldName("left")
				if name, ok := a.mod.Ident(target); ok {
					columns = append(columns, a.memberColumns(name, child.ChildByFieldName("right"))...)
				}
				continue
			}
			targets, value := a.mod.AssignChain(child)
			for _, target := range targets {
				if name, ok := a.mod.Ident(target); ok {
					columns = append(columns, a.memberColumns(name, value)...)
				}
			}
		}
	}

	sort.Strings(columns)
	columns = slices.Compact(columns)

	line, col := a.position(n)
	for _, colName := range columns {
		if reservedMethods[colName] {
			msg := fmt.Sprintf(
				"Column name '%s' in %s conflicts with a pandas/polars method. This will shadow the method when accessed via attribute syntax (df.%s). Consider renaming to '%s_value' or similar.",
				colName, className, colName, colName)
			a.report(line, col, CodeReservedName, msg, SeverityError)
		}
	}

	a.schemas[className] = columns
}

// classBases returns the superclass expressions of a class definition.
func (a *Analyzer) classBases(n *sitter.Node) []*sitter.Node {
	super := n.ChildByFieldName("superclasses")
	if super == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(super.NamedChildCount()); i++ {
		child := super.NamedChild(i)
		if child.Type() == "comment" || child.Type() == "keyword_argument" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// memberColumns resolves the column names contributed by one class-body
// member. A Column(...) value can override the member name with a string
// alias; ColumnSet/ColumnGroup contribute the member name plus every
// listed member.
func (a *Analyzer) memberColumns(target string, value *sitter.Node) []string {
	call, ok := a.mod.AsCall(value)
	if !ok {
		return []string{target}
	}
	_, funcName, ok := a.mod.CalleeParts(call.Func)
	if !ok {
		return []string{target}
	}
	switch funcName {
	case "Column":
		if alias, ok := a.mod.StringLiteral(call.Keyword("alias")); ok {
			return []string{alias}
		}
		return []string{target}
	case "ColumnSet", "ColumnGroup":
		cols := []string{target}
		members := call.Keyword("members")
		if members != nil && members.Type() == "list" {
			for i := 0; i < int(members.NamedChildCount()); i++ {
				el := members.NamedChild(i)
				if s, ok := a.mod.StringLiteral(el); ok {
					cols = append(cols, s)
				} else if name, ok := a.mod.Ident(el); ok {
					cols = append(cols, name)
				}
			}
		}
		return cols
	}
	return []string{target}
}
