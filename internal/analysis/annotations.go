package analysis

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// schemaFromAnnotation extracts a schema name from a frame-of-schema
// annotation such as `PandasFrame[Users]` or the forward-reference form
// `"DataFrame[Users]"`. Used for function return types.
func (a *Analyzer) schemaFromAnnotation(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if value, subs, ok := a.mod.Subscript(n); ok {
		typeName := ""
		if name, isName := a.mod.Ident(value); isName {
			typeName = name
		} else if _, attr, isAttr := a.mod.Attribute(value); isAttr {
			typeName = attr
		}
		if isFrameType(typeName) {
			if schema, isName := a.mod.Ident(subs[0]); isName {
				return schema, true
			}
		}
		return "", false
	}
	if text, ok := a.mod.StringLiteral(n); ok {
		for _, pattern := range []string{"DataFrame[", "PandasFrame[", "PolarsFrame["} {
			if !strings.Contains(text, pattern) {
				continue
			}
			start := strings.Index(text, "[")
			end := strings.LastIndex(text, "]")
			if start < 0 || end <= start {
				continue
			}
			schema := strings.TrimSpace(text[start+1 : end])
			if schema != "" && !strings.Contains(schema, ",") {
				return schema, true
			}
		}
	}
	return "", false
}

// seedFromAnnotation binds a variable from its declared annotation:
// `Frame[Schema]` subscripts, `Annotated[<frame>, Schema]` and quoted
// forward references carrying the same textual patterns.
func (a *Analyzer) seedFromAnnotation(target string, ann *sitter.Node, line int) {
	ann = unwrapType(ann)
	if ann == nil {
		return
	}

	if value, subs, ok := a.mod.Subscript(ann); ok {
		typeName := ""
		if name, isName := a.mod.Ident(value); isName {
			typeName = name
		} else if _, attr, isAttr := a.mod.Attribute(value); isAttr {
			typeName = attr
		}
		switch {
		case isFrameType(typeName):
			if schema, isName := a.mod.Ident(subs[0]); isName {
				a.vars[target] = binding{schema: schema, line: line}
			}
		case typeName == "Annotated" && len(subs) >= 2:
			if a.isDataFrameAnnotation(subs[0]) {
				if schema, isName := a.mod.Ident(subs[1]); isName {
					a.vars[target] = binding{schema: schema, line: line}
				}
			}
		}
		return
	}

	if text, ok := a.mod.StringLiteral(ann); ok {
		a.seedFromQuotedHint(target, text, line)
	}
}

// isDataFrameAnnotation matches the frame part of an Annotated pair:
// a bare name containing "DataFrame" or a module-qualified .DataFrame.
func (a *Analyzer) isDataFrameAnnotation(n *sitter.Node) bool {
	if name, ok := a.mod.Ident(n); ok {
		return strings.Contains(name, "DataFrame")
	}
	if _, attr, ok := a.mod.Attribute(n); ok {
		return attr == "DataFrame"
	}
	return false
}

// seedFromQuotedHint handles string annotations. Trailing generic
// parameters are trimmed by keeping the last comma-separated segment of
// the bracketed part.
func (a *Analyzer) seedFromQuotedHint(target, text string, line int) {
	for _, pattern := range []string{"DataFrame[", "PandasFrame[", "PolarsFrame["} {
		if !strings.Contains(text, pattern) {
			continue
		}
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start >= 0 && end > start {
			inner := text[start+1 : end]
			parts := strings.Split(inner, ",")
			schema := strings.TrimSpace(parts[len(parts)-1])
			if schema != "" {
				a.vars[target] = binding{schema: schema, line: line}
			}
		}
		return
	}

	if idx := strings.Index(text, "Annotated["); idx >= 0 && strings.Contains(text, "DataFrame") {
		inner := text[idx+len("Annotated["):]
		end := strings.LastIndex(inner, "]")
		if end < 0 {
			return
		}
		parts := strings.Split(inner[:end], ",")
		if len(parts) >= 2 {
			schema := strings.TrimSpace(parts[1])
			if schema != "" {
				a.vars[target] = binding{schema: schema, line: line}
			}
		}
	}
}
