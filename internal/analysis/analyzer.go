package analysis

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/typedframes/framecheck/internal/pysyntax"
)

// binding records which schema a variable currently carries and the line
// where that binding was established.
type binding struct {
	schema string
	line   int
}

// Analyzer holds the flow state of one check pass. Construct one per
// invocation; it is not safe for reuse across goroutines.
type Analyzer struct {
	mod       *pysyntax.Module
	schemas   map[string][]string
	vars      map[string]binding
	functions map[string]string
	diags     []Diagnostic
}

func New() *Analyzer {
	return &Analyzer{
		schemas:   map[string][]string{},
		vars:      map[string]binding{},
		functions: map[string]string{},
	}
}

// AddSchema pre-registers a schema, typically imported from the project
// index. Columns are kept as given.
func (a *Analyzer) AddSchema(name string, cols []string) {
	a.schemas[name] = cols
}

// AddFunction pre-registers a function fact: calls to name bind the
// result to the given schema.
func (a *Analyzer) AddFunction(name, schema string) {
	a.functions[name] = schema
}

// Schemas returns the schemas registered during the last pass, keyed by
// name. The caller owns the returned map.
func (a *Analyzer) Schemas() map[string][]string {
	out := make(map[string][]string, len(a.schemas))
	for k, v := range a.schemas {
		out[k] = slices.Clone(v)
	}
	return out
}

// Functions returns the function facts recorded during the last pass.
func (a *Analyzer) Functions() map[string]string {
	out := make(map[string]string, len(a.functions))
	for k, v := range a.functions {
		out[k] = v
	}
	return out
}

// Check parses and analyzes one source unit. A syntax error aborts the
// pass and is returned as *pysyntax.ParseError.
func (a *Analyzer) Check(src []byte) ([]Diagnostic, error) {
	mod, err := pysyntax.Parse(src)
	if err != nil {
		return nil, err
	}
	return a.CheckModule(mod), nil
}

// CheckModule runs the pass over an already parsed module.
func (a *Analyzer) CheckModule(mod *pysyntax.Module) []Diagnostic {
	a.mod = mod
	a.diags = nil
	for _, stmt := range mod.Statements() {
		a.visitStmt(stmt)
	}
	return filterIgnored(mod.Source, a.diags)
}

func (a *Analyzer) report(line, col int, code, message, severity string) {
	a.diags = append(a.diags, Diagnostic{Line: line, Col: col, Code: code, Message: message, Severity: severity})
}

func (a *Analyzer) position(n *sitter.Node) (line, col int) {
	return a.mod.Position(n.StartByte())
}

// displaySchema renders a schema reference for messages. Inferred
// schemas have synthetic names that would mean nothing to the user.
func displaySchema(schemaName string, definedLine int) string {
	if strings.HasPrefix(schemaName, inferredPrefix) {
		return fmt.Sprintf("inferred column set (defined at line %d)", definedLine)
	}
	return fmt.Sprintf("%s (defined at line %d)", schemaName, definedLine)
}

const inferredPrefix = "__inferred_"

// makeInferredSchema registers a synthetic schema for a derivation
// result. The name encodes variable and line so it is stable within a
// run and cannot collide with a class name.
func (a *Analyzer) makeInferredSchema(cols []string, varName string, line int) string {
	name := fmt.Sprintf("%s%s_at_%d", inferredPrefix, varName, line)
	a.schemas[name] = cols
	return name
}

func (a *Analyzer) visitStmt(stmt *sitter.Node) {
	switch stmt.Type() {
	case "decorated_definition":
		if def := stmt.ChildByFieldName("definition"); def != nil {
			a.visitStmt(def)
		}
	case "class_definition":
		a.visitClass(stmt)
	case "function_definition":
		a.visitFunction(stmt)
	case "expression_statement":
		for _, child := range pysyntax.BlockStatements(stmt) {
			switch child.Type() {
			case "assignment":
				if child.ChildByFieldName("type") != nil {
					a.visitAnnAssign(child)
				} else {
					a.visitAssign(child)
				}
			case "augmented_assignment":
				// df += ... neither re-binds nor reads columns.
			default:
				a.visitExprStmt(child)
			}
		}
	case "delete_statement":
		a.visitDelete(stmt)
	case "if_statement":
		a.visitBlock(stmt.ChildByFieldName("consequence"))
		for _, alt := range pysyntax.ChildrenByFieldName(stmt, "alternative") {
			switch alt.Type() {
			case "elif_clause":
				a.visitBlock(alt.ChildByFieldName("consequence"))
			case "else_clause":
				a.visitBlock(alt.ChildByFieldName("body"))
			}
		}
	case "for_statement", "while_statement", "with_statement":
		a.visitBlock(stmt.ChildByFieldName("body"))
		if alt := stmt.ChildByFieldName("alternative"); alt != nil {
			a.visitBlock(alt.ChildByFieldName("body"))
		}
	case "try_statement":
		a.visitBlock(stmt.ChildByFieldName("body"))
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			clause := stmt.NamedChild(i)
			switch clause.Type() {
			case "except_clause", "finally_clause":
				for j := 0; j < int(clause.NamedChildCount()); j++ {
					if b := clause.NamedChild(j); b.Type() == "block" {
						a.visitBlock(b)
					}
				}
			case "else_clause":
				a.visitBlock(clause.ChildByFieldName("body"))
			}
		}
	}
}

// visitBlock walks the statements of a block sequentially. Branch bodies
// are not merged; later bindings overwrite earlier ones.
func (a *Analyzer) visitBlock(block *sitter.Node) {
	for _, s := range pysyntax.BlockStatements(block) {
		a.visitStmt(s)
	}
}

// visitFunction records a function fact from a frame-of-schema return
// annotation, then walks the body in the enclosing flow state.
func (a *Analyzer) visitFunction(n *sitter.Node) {
	name, _ := a.mod.Ident(n.ChildByFieldName("name"))
	if ret := unwrapType(n.ChildByFieldName("return_type")); ret != nil && name != "" {
		if schema, ok := a.schemaFromAnnotation(ret); ok {
			a.functions[name] = schema
		}
	}
	a.visitBlock(n.ChildByFieldName("body"))
}

// visitExprStmt handles a bare expression statement: in-place pop/insert
// mutations and pl.col argument validation come before the generic
// expression walk.
func (a *Analyzer) visitExprStmt(expr *sitter.Node) {
	if call, ok := a.mod.AsCall(expr); ok {
		if recvNode, method, ok := a.mod.CalleeParts(call.Func); ok && recvNode != nil {
			line, col := a.position(call.Node)
			if recv, isName := a.mod.Ident(recvNode); isName {
				switch method {
				case "pop":
					if len(call.Args) > 0 {
						if colName, ok := a.mod.StringLiteral(call.Args[0]); ok {
							a.removeColumnInplace(recv, colName, line, col, "pop")
						}
					}
				case "insert":
					if len(call.Args) > 1 {
						if colName, ok := a.mod.StringLiteral(call.Args[1]); ok {
							a.addColumnInplace(recv, colName, line)
						}
					}
				}
				a.validatePlColArgs(recv, call, line, col)
			}
		}
	}
	a.visitExpr(expr)
}

// visitDelete handles `del df["col"]`.
func (a *Analyzer) visitDelete(n *sitter.Node) {
	var targets []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "expression_list" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				targets = append(targets, child.NamedChild(j))
			}
		} else {
			targets = append(targets, child)
		}
	}
	for _, target := range targets {
		value, subs, ok := a.mod.Subscript(target)
		if !ok || len(subs) != 1 {
			continue
		}
		recv, isName := a.mod.Ident(value)
		if !isName {
			continue
		}
		if colName, ok := a.mod.StringLiteral(subs[0]); ok {
			line, col := a.position(target)
			a.removeColumnInplace(recv, colName, line, col, "del")
		}
	}
}

// removeColumnInplace drops a column from recv's schema for `del` and
// `pop`. The receiver is re-bound to a narrowed inferred schema; the
// assignment target of a pop, if any, is never tracked.
func (a *Analyzer) removeColumnInplace(recv, colName string, line, col int, context string) {
	b, ok := a.vars[recv]
	if !ok {
		return
	}
	cols, ok := a.schemas[b.schema]
	if !ok {
		return
	}
	if !slices.Contains(cols, colName) {
		msg := fmt.Sprintf("Column '%s' does not exist in %s (%s)",
			colName, displaySchema(b.schema, b.line), context)
		a.report(line, col, CodeUnknownColumn, msg, SeverityError)
		return
	}
	kept := make([]string, 0, len(cols)-1)
	for _, c := range cols {
		if c != colName {
			kept = append(kept, c)
		}
	}
	a.vars[recv] = binding{schema: a.makeInferredSchema(kept, recv, line), line: line}
}

// addColumnInplace grows recv's schema for `insert`. Inserting an
// existing column is a no-op, matching pandas' own duplicate error path.
func (a *Analyzer) addColumnInplace(recv, colName string, line int) {
	b, ok := a.vars[recv]
	if !ok {
		return
	}
	cols := slices.Clone(a.schemas[b.schema])
	if slices.Contains(cols, colName) {
		return
	}
	cols = append(cols, colName)
	a.vars[recv] = binding{schema: a.makeInferredSchema(cols, recv, line), line: line}
}

// visitExpr validates column reads. Only attribute access, subscripts
// and calls are inspected; a method name in a callee position is never
// treated as a column.
func (a *Analyzer) visitExpr(e *sitter.Node) {
	if e == nil {
		return
	}
	switch e.Type() {
	case "parenthesized_expression":
		a.visitExpr(e.NamedChild(0))
	case "attribute":
		obj, attr, ok := a.mod.Attribute(e)
		if !ok {
			return
		}
		if base, isName := a.mod.Ident(obj); isName && !reservedMethods[attr] {
			a.checkColumnRead(e, base, attr)
		}
		a.visitExpr(obj)
	case "subscript":
		value, subs, ok := a.mod.Subscript(e)
		if !ok {
			return
		}
		if base, isName := a.mod.Ident(value); isName && len(subs) == 1 {
			if colName, isStr := a.mod.StringLiteral(subs[0]); isStr {
				a.checkColumnRead(e, base, colName)
			}
		}
		a.visitExpr(value)
		for _, s := range subs {
			a.visitExpr(s)
		}
	case "call":
		call, ok := a.mod.AsCall(e)
		if !ok {
			return
		}
		for _, arg := range call.Args {
			a.visitExpr(arg)
		}
		if recv, _, ok := a.mod.CalleeParts(call.Func); ok && recv != nil {
			a.visitExpr(recv)
		} else {
			a.visitExpr(call.Func)
		}
	}
}

// checkColumnRead reports an unknown column read on a tracked variable,
// with a fuzzy suggestion when a close candidate exists.
func (a *Analyzer) checkColumnRead(site *sitter.Node, base, column string) {
	b, ok := a.vars[base]
	if !ok {
		return
	}
	cols, ok := a.schemas[b.schema]
	if !ok {
		return
	}
	if slices.Contains(cols, column) {
		return
	}
	line, col := a.position(site)
	msg := fmt.Sprintf("Column '%s' does not exist in %s", column, displaySchema(b.schema, b.line))
	if suggestion, found := bestMatch(column, cols); found {
		msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
	}
	a.report(line, col, CodeUnknownColumn, msg, SeverityError)
}

// validatePlColArgs checks every pl.col("x") / col("x") reference in a
// call's arguments against the receiver's schema.
func (a *Analyzer) validatePlColArgs(recv string, call *pysyntax.Call, line, col int) {
	b, ok := a.vars[recv]
	if !ok {
		return
	}
	cols, ok := a.schemas[b.schema]
	if !ok {
		return
	}
	var names []string
	for _, arg := range call.Args {
		names = append(names, a.collectPlColNames(arg)...)
	}
	for _, kw := range call.Keywords {
		names = append(names, a.collectPlColNames(kw.Value)...)
	}
	for _, name := range names {
		if slices.Contains(cols, name) {
			continue
		}
		msg := fmt.Sprintf("Column '%s' does not exist in %s", name, displaySchema(b.schema, b.line))
		if suggestion, found := bestMatch(name, cols); found {
			msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
		}
		a.report(line, col, CodeUnknownColumn, msg, SeverityError)
	}
}

// plColName extracts the column of a `pl.col("name")` / `col("name")`
// call expression.
func (a *Analyzer) plColName(e *sitter.Node) (string, bool) {
	call, ok := a.mod.AsCall(e)
	if !ok {
		return "", false
	}
	recv, method, ok := a.mod.CalleeParts(call.Func)
	if !ok || method != "col" {
		return "", false
	}
	if recv != nil {
		mod, isName := a.mod.Ident(recv)
		if !isName || (mod != "pl" && mod != "polars") {
			return "", false
		}
	}
	if len(call.Args) == 0 {
		return "", false
	}
	return a.mod.StringLiteral(call.Args[0])
}

// collectPlColNames gathers pl.col references through chained calls,
// containers and operators.
func (a *Analyzer) collectPlColNames(e *sitter.Node) []string {
	if e == nil {
		return nil
	}
	if name, ok := a.plColName(e); ok {
		return []string{name}
	}
	var names []string
	switch e.Type() {
	case "call":
		call, ok := a.mod.AsCall(e)
		if !ok {
			return nil
		}
		if recv, _, ok := a.mod.CalleeParts(call.Func); ok && recv != nil {
			names = append(names, a.collectPlColNames(recv)...)
		}
		for _, arg := range call.Args {
			names = append(names, a.collectPlColNames(arg)...)
		}
		for _, kw := range call.Keywords {
			names = append(names, a.collectPlColNames(kw.Value)...)
		}
	case "list", "tuple":
		for i := 0; i < int(e.NamedChildCount()); i++ {
			names = append(names, a.collectPlColNames(e.NamedChild(i))...)
		}
	case "comparison_operator":
		for i := 0; i < int(e.NamedChildCount()); i++ {
			names = append(names, a.collectPlColNames(e.NamedChild(i))...)
		}
	case "binary_operator", "boolean_operator":
		names = append(names, a.collectPlColNames(e.ChildByFieldName("left"))...)
		names = append(names, a.collectPlColNames(e.ChildByFieldName("right"))...)
	case "unary_operator", "not_operator":
		names = append(names, a.collectPlColNames(e.ChildByFieldName("argument"))...)
	case "parenthesized_expression":
		names = append(names, a.collectPlColNames(e.NamedChild(0))...)
	}
	return names
}

// unwrapType peels the grammar's `type` wrapper off annotations.
func unwrapType(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == "type" {
		return n.NamedChild(0)
	}
	return n
}
