package analysis

import (
	"fmt"
	"slices"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/typedframes/framecheck/internal/pysyntax"
)

// visitAssign propagates schemas through a plain assignment. The RHS is
// classified once (subset subscript, merge/concat, loader, constructor,
// method derivation, function fact) and the matching rule binds the
// identifier targets; everything else falls through to plain expression
// validation of both sides.
func (a *Analyzer) visitAssign(n *sitter.Node) {
	targets, value := a.mod.AssignChain(n)
	line, col := a.position(n)

	for _, target := range targets {
		a.trackSubscriptMutation(target, line, col)
	}

	value = pysyntax.Unparen(value)
	if base, subs, ok := a.mod.Subscript(value); ok {
		a.assignFromSubscript(targets, base, subs, line, col)
	}
	if call, ok := a.mod.AsCall(value); ok {
		a.assignFromCall(targets, call, line, col)
	}

	for _, target := range targets {
		a.visitExpr(target)
	}
	a.visitExpr(value)
}

// trackSubscriptMutation handles `df["new"] = value`. An unknown column
// is reported once, then appended to the bound schema so later reads of
// it stay quiet. This is the one rule that grows a schema in place.
func (a *Analyzer) trackSubscriptMutation(target *sitter.Node, line, col int) {
	value, subs, ok := a.mod.Subscript(target)
	if !ok || len(subs) != 1 {
		return
	}
	base, isName := a.mod.Ident(value)
	if !isName {
		return
	}
	colName, isStr := a.mod.StringLiteral(subs[0])
	if !isStr {
		return
	}
	b, bound := a.vars[base]
	if !bound {
		return
	}
	cols, haveSchema := a.schemas[b.schema]
	if !haveSchema {
		return
	}
	if !slices.Contains(cols, colName) {
		msg := fmt.Sprintf("Column '%s' does not exist in %s (mutation tracking)", colName, b.schema)
		a.report(line, col, CodeUnknownColumn, msg, SeverityError)
		a.schemas[b.schema] = append(cols, colName)
	}
}

// assignFromSubscript handles `a = b[...]`. A literal string list is a
// column subset: validated against the base and narrowed. Anything else
// (boolean mask, single column handled elsewhere, computed selectors)
// passes the base schema through.
func (a *Analyzer) assignFromSubscript(targets []*sitter.Node, base *sitter.Node, subs []*sitter.Node, line, col int) {
	baseName, isName := a.mod.Ident(base)
	if !isName {
		return
	}

	var cols []string
	subset := false
	if len(subs) == 1 {
		cols, subset = a.mod.StringList(subs[0])
	}

	if !subset {
		if b, bound := a.vars[baseName]; bound {
			a.bindAll(a.identTargets(targets), b.schema, line)
		}
		return
	}

	if b, bound := a.vars[baseName]; bound {
		baseCols := a.schemas[b.schema]
		if len(baseCols) > 0 {
			for _, c := range cols {
				if !slices.Contains(baseCols, c) {
					msg := fmt.Sprintf("Column '%s' does not exist in %s", c, displaySchema(b.schema, b.line))
					a.report(line, col, CodeUnknownColumn, msg, SeverityError)
				}
			}
		}
	}
	names := a.identTargets(targets)
	schema := a.makeInferredSchema(cols, firstOr(names, "unknown"), line)
	a.bindAll(names, schema, line)
}

func (a *Analyzer) assignFromCall(targets []*sitter.Node, call *pysyntax.Call, line, col int) {
	if call.Func == nil {
		return
	}
	names := a.identTargets(targets)

	var mergeLeft, mergeRight string
	haveMerge := false

	recvNode, method, isCall := a.mod.CalleeParts(call.Func)
	switch {
	case isCall && recvNode != nil:
		switch {
		case method == "merge":
			if left, ok := a.mod.Ident(recvNode); ok {
				if lb, lok := a.vars[left]; lok && len(call.Args) > 0 {
					if right, ok := a.mod.Ident(call.Args[0]); ok {
						if rb, rok := a.vars[right]; rok {
							mergeLeft, mergeRight = lb.schema, rb.schema
							haveMerge = true
						}
					}
				}
			}
		case method == "concat":
			if len(call.Args) > 0 {
				if pair, ok := a.concatPair(call.Args[0]); ok {
					mergeLeft, mergeRight = pair[0], pair[1]
					haveMerge = true
				}
			}
		case method == "from_schema" || method == "from_pandas" || method == "from_polars" || loadFunctions[method]:
			a.assignFromFactoryOrLoad(names, recvNode, method, call, line, col)
		case rowPassthroughMethods[method]:
			if recv, ok := a.mod.Ident(recvNode); ok {
				if b, bound := a.vars[recv]; bound {
					a.bindAll(names, b.schema, line)
				}
			}
		case method == "select":
			a.assignFromSelect(names, recvNode, call, line, col)
		case method == "drop":
			a.assignFromDrop(names, recvNode, call, line, col)
		case method == "rename":
			a.assignFromRename(names, recvNode, call, line, col)
		case method == "assign":
			a.assignFromAssignMethod(names, recvNode, call, line)
		case method == "pop":
			if recv, ok := a.mod.Ident(recvNode); ok && len(call.Args) > 0 {
				if colName, isStr := a.mod.StringLiteral(call.Args[0]); isStr {
					a.removeColumnInplace(recv, colName, line, col, "pop")
				}
			}
		case method == "insert":
			if recv, ok := a.mod.Ident(recvNode); ok && len(call.Args) > 1 {
				if colName, isStr := a.mod.StringLiteral(call.Args[1]); isStr {
					a.addColumnInplace(recv, colName, line)
				}
			}
		}
		if recv, ok := a.mod.Ident(recvNode); ok {
			a.validatePlColArgs(recv, call, line, col)
		}
	case isCall && method == "concat":
		if len(call.Args) > 0 {
			if pair, ok := a.concatPair(call.Args[0]); ok {
				mergeLeft, mergeRight = pair[0], pair[1]
				haveMerge = true
			}
		} else if objs := call.Keyword("objs"); objs != nil {
			if pair, ok := a.concatPair(objs); ok {
				mergeLeft, mergeRight = pair[0], pair[1]
				haveMerge = true
			}
		}
	}

	if haveMerge {
		a.bindMerged(names, mergeLeft, mergeRight, line)
	}

	switch call.Func.Type() {
	case "subscript":
		// DataFrame[Schema](...) instantiation.
		if v, subs, ok := a.mod.Subscript(call.Func); ok {
			if typeName, isName := a.mod.Ident(v); isName && isFrameType(typeName) {
				if schema, isName := a.mod.Ident(subs[0]); isName {
					a.bindAll(names, schema, line)
				}
			}
		}
	case "attribute":
		// Schema().read_csv(...) style chains off a schema constructor.
		if obj, _, ok := a.mod.Attribute(call.Func); ok {
			if inner, isCall := a.mod.AsCall(obj); isCall {
				if schema, isName := a.mod.Ident(inner.Func); isName {
					if _, registered := a.schemas[schema]; registered {
						a.bindAll(names, schema, line)
					}
				}
			}
		}
	case "identifier":
		// df = load_users() with a recorded return-annotation fact.
		if schema, ok := a.functions[a.mod.Text(call.Func)]; ok {
			a.bindAll(names, schema, line)
		}
	}
}

// concatPair collects the tracked schemas of a concat operand list and
// returns the first two. Fewer than two tracked operands means the
// result is not worth tracking.
func (a *Analyzer) concatPair(list *sitter.Node) ([2]string, bool) {
	if list == nil || list.Type() != "list" {
		return [2]string{}, false
	}
	var schemas []string
	for i := 0; i < int(list.NamedChildCount()); i++ {
		if name, ok := a.mod.Ident(list.NamedChild(i)); ok {
			if b, bound := a.vars[name]; bound {
				schemas = append(schemas, b.schema)
			}
		}
	}
	if len(schemas) < 2 {
		return [2]string{}, false
	}
	return [2]string{schemas[0], schemas[1]}, true
}

// bindMerged registers the union schema of a merge/concat and binds the
// targets to it.
func (a *Analyzer) bindMerged(names []string, s1, s2 string, line int) {
	combined := slices.Clone(a.schemas[s1])
	combined = append(combined, a.schemas[s2]...)
	sort.Strings(combined)
	combined = slices.Compact(combined)

	merged := s1 + "_" + s2
	a.schemas[merged] = combined
	a.bindAll(names, merged, line)
}

// assignFromFactoryOrLoad handles the factory constructors and the
// pandas/polars loader calls, which share the attribute-callee shape.
func (a *Analyzer) assignFromFactoryOrLoad(names []string, recvNode *sitter.Node, method string, call *pysyntax.Call, line, col int) {
	if _, innerAttr, ok := a.mod.Attribute(recvNode); ok {
		// tf.PandasFrame.from_schema(df, Schema) — the schema is the
		// second positional argument.
		if innerAttr == "PandasFrame" || innerAttr == "PolarsFrame" {
			if len(call.Args) >= 2 {
				if schema, isName := a.mod.Ident(call.Args[1]); isName {
					a.bindAll(names, schema, line)
				}
			}
		}
		return
	}

	recv, isName := a.mod.Ident(recvNode)
	if !isName {
		return
	}
	if _, registered := a.schemas[recv]; registered {
		// Schema.from_pandas(df) style.
		a.bindAll(names, recv, line)
		return
	}
	if loadModules[recv] && loadFunctions[method] {
		if cols, ok := a.extractLoadColumns(call); ok {
			schema := a.makeInferredSchema(cols, firstOr(names, "df"), line)
			a.bindAll(names, schema, line)
			return
		}
		a.report(line, col, CodeUntrackedDataFrame,
			"columns unknown at lint time; specify `usecols`/`columns` or annotate: `df: Annotated[pd.DataFrame, MySchema] = pd.read_csv(...)`",
			SeverityWarning)
	}
}

func (a *Analyzer) assignFromSelect(names []string, recvNode *sitter.Node, call *pysyntax.Call, line, col int) {
	recv, isName := a.mod.Ident(recvNode)
	if !isName {
		return
	}
	b, bound := a.vars[recv]

	var selected []string
	haveSelection := false
	if len(call.Args) > 0 {
		selected, haveSelection = a.mod.StringList(call.Args[0])
	}
	if !haveSelection {
		if bound {
			a.bindAll(names, b.schema, line)
		}
		return
	}

	if bound {
		if baseCols, haveSchema := a.schemas[b.schema]; haveSchema {
			for _, c := range selected {
				if !slices.Contains(baseCols, c) {
					msg := fmt.Sprintf("Column '%s' does not exist in %s", c, displaySchema(b.schema, b.line))
					a.report(line, col, CodeUnknownColumn, msg, SeverityError)
				}
			}
		}
	}
	schema := a.makeInferredSchema(selected, firstOr(names, "unknown"), line)
	a.bindAll(names, schema, line)
}

func (a *Analyzer) assignFromDrop(names []string, recvNode *sitter.Node, call *pysyntax.Call, line, col int) {
	recv, isName := a.mod.Ident(recvNode)
	if !isName {
		return
	}
	b, bound := a.vars[recv]
	var baseCols []string
	haveBase := false
	if bound {
		baseCols, haveBase = a.schemas[b.schema]
	}

	dropped, haveDropped := a.extractDropColumns(call)
	if !haveBase || !haveDropped {
		if bound {
			a.bindAll(names, b.schema, line)
		}
		return
	}

	for _, c := range dropped {
		if !slices.Contains(baseCols, c) {
			msg := fmt.Sprintf("Dropped column '%s' does not exist in %s", c, displaySchema(b.schema, b.line))
			a.report(line, col, CodeDroppedUnknownColumn, msg, SeverityWarning)
		}
	}
	kept := make([]string, 0, len(baseCols))
	for _, c := range baseCols {
		if !slices.Contains(dropped, c) {
			kept = append(kept, c)
		}
	}
	schema := a.makeInferredSchema(kept, firstOr(names, "unknown"), line)
	a.bindAll(names, schema, line)
}

func (a *Analyzer) assignFromRename(names []string, recvNode *sitter.Node, call *pysyntax.Call, line, col int) {
	recv, isName := a.mod.Ident(recvNode)
	if !isName {
		return
	}
	b, bound := a.vars[recv]
	var baseCols []string
	haveBase := false
	if bound {
		baseCols, haveBase = a.schemas[b.schema]
	}

	oldNames, mapping, haveMapping := a.extractRenameMapping(call)
	if !haveBase || !haveMapping {
		if bound {
			a.bindAll(names, b.schema, line)
		}
		return
	}

	display := displaySchema(b.schema, b.line)
	for _, old := range oldNames {
		if !slices.Contains(baseCols, old) {
			msg := fmt.Sprintf("Column '%s' does not exist in %s (rename)", old, display)
			a.report(line, col, CodeUnknownColumn, msg, SeverityError)
		}
	}
	renamed := make([]string, len(baseCols))
	for i, c := range baseCols {
		if to, ok := mapping[c]; ok {
			renamed[i] = to
		} else {
			renamed[i] = c
		}
	}
	schema := a.makeInferredSchema(renamed, firstOr(names, "unknown"), line)
	a.bindAll(names, schema, line)
}

// assignFromAssignMethod handles `.assign(**kw)`: each keyword adds a
// column. Works even on an untracked receiver, where the keywords alone
// form the inferred schema.
func (a *Analyzer) assignFromAssignMethod(names []string, recvNode *sitter.Node, call *pysyntax.Call, line int) {
	recv, isName := a.mod.Ident(recvNode)
	if !isName {
		return
	}
	var newCols []string
	if b, bound := a.vars[recv]; bound {
		newCols = slices.Clone(a.schemas[b.schema])
	}
	for _, kw := range call.Keywords {
		if !slices.Contains(newCols, kw.Name) {
			newCols = append(newCols, kw.Name)
		}
	}
	schema := a.makeInferredSchema(newCols, firstOr(names, "unknown"), line)
	a.bindAll(names, schema, line)
}

// extractLoadColumns pulls the column set out of a loader call, from a
// usecols/columns string list or the keys of a dtype/schema dict.
func (a *Analyzer) extractLoadColumns(call *pysyntax.Call) ([]string, bool) {
	for _, kw := range call.Keywords {
		switch kw.Name {
		case "usecols", "columns":
			if cols, ok := a.mod.StringList(kw.Value); ok {
				return cols, true
			}
		case "dtype", "schema":
			if keys, ok := a.mod.DictKeys(kw.Value); ok && len(keys) > 0 {
				return keys, true
			}
		}
	}
	return nil, false
}

// extractDropColumns resolves which columns a drop() call removes. The
// pandas `columns=` keyword always wins; with an `axis` keyword only the
// integer literal 1 selects column semantics; the bare polars form takes
// the first positional argument.
func (a *Analyzer) extractDropColumns(call *pysyntax.Call) ([]string, bool) {
	if cols := call.Keyword("columns"); cols != nil {
		return a.mod.StringOrList(cols)
	}
	if axis := call.Keyword("axis"); axis != nil {
		if v, ok := a.mod.IntLiteral(axis); ok && v == 1 && len(call.Args) > 0 {
			return a.mod.StringOrList(call.Args[0])
		}
		return nil, false
	}
	if len(call.Args) > 0 {
		return a.mod.StringOrList(call.Args[0])
	}
	return nil, false
}

// extractRenameMapping reads {"old": "new"} from the `columns=` keyword
// or the first positional argument.
func (a *Analyzer) extractRenameMapping(call *pysyntax.Call) ([]string, map[string]string, bool) {
	if cols := call.Keyword("columns"); cols != nil && pysyntax.Unparen(cols).Type() == "dictionary" {
		return a.mod.StringDict(cols)
	}
	if len(call.Args) > 0 && call.Args[0].Type() == "dictionary" {
		return a.mod.StringDict(call.Args[0])
	}
	return nil, nil, false
}

// visitAnnAssign handles annotated assignments. Only the constructor
// forms of the RHS are classified; in particular a loader RHS under an
// annotation emits no untracked warning, since the annotation is the
// sanctioned fix for that warning.
func (a *Analyzer) visitAnnAssign(n *sitter.Node) {
	line, _ := a.position(n)
	target := n.ChildByFieldName("left")
	value := pysyntax.Unparen(n.ChildByFieldName("right"))
	targetName, targetIsName := a.mod.Ident(target)

	if call, ok := a.mod.AsCall(value); ok && targetIsName && call.Func != nil {
		switch call.Func.Type() {
		case "subscript":
			if v, subs, ok := a.mod.Subscript(call.Func); ok {
				if typeName, isName := a.mod.Ident(v); isName && isFrameType(typeName) {
					if schema, isName := a.mod.Ident(subs[0]); isName {
						a.vars[targetName] = binding{schema: schema, line: line}
					}
				}
			}
		case "attribute":
			if obj, _, ok := a.mod.Attribute(call.Func); ok {
				if inner, isCall := a.mod.AsCall(obj); isCall {
					if schema, isName := a.mod.Ident(inner.Func); isName {
						if _, registered := a.schemas[schema]; registered {
							a.vars[targetName] = binding{schema: schema, line: line}
						}
					}
				}
			}
		}
	}

	if targetIsName {
		a.seedFromAnnotation(targetName, n.ChildByFieldName("type"), line)
	}

	a.visitExpr(target)
	if value != nil {
		a.visitExpr(value)
	}
}

func (a *Analyzer) identTargets(targets []*sitter.Node) []string {
	var names []string
	for _, t := range targets {
		if name, ok := a.mod.Ident(t); ok {
			names = append(names, name)
		}
	}
	return names
}

func (a *Analyzer) bindAll(names []string, schema string, line int) {
	for _, name := range names {
		a.vars[name] = binding{schema: schema, line: line}
	}
}

func firstOr(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
