package projectindex

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/typedframes/framecheck/internal/analysis"
	"github.com/typedframes/framecheck/internal/pysyntax"
)

// Seed imports cross-file symbols into an analyzer, driven by the
// module's non-relative `from x import a, b` statements. A dotted
// module path resolves to <root>/<path>.py or <root>/src/<path>.py; a
// miss at any step is skipped silently.
func Seed(a *analysis.Analyzer, ix *Index, mod *pysyntax.Module, projectRoot string) {
	if ix == nil {
		return
	}
	for _, stmt := range mod.Statements() {
		if stmt.Type() != "import_from_statement" {
			continue
		}
		moduleNode := stmt.ChildByFieldName("module_name")
		if moduleNode == nil || moduleNode.Type() != "dotted_name" {
			// Relative imports carry no project-wide path to resolve.
			continue
		}
		moduleName := mod.Text(moduleNode)
		if strings.HasPrefix(moduleName, "typedframes") {
			continue
		}

		entry, ok := resolveModule(ix, projectRoot, moduleName)
		if !ok {
			continue
		}

		for _, nameNode := range pysyntax.ChildrenByFieldName(stmt, "name") {
			name := importedName(mod, nameNode)
			if name == "" {
				continue
			}
			if cols, ok := entry.Schemas[name]; ok {
				a.AddSchema(name, cols)
			}
			if fn, ok := entry.Functions[name]; ok {
				a.AddFunction(name, fn.ReturnsSchema)
				if cols, ok := entry.Schemas[fn.ReturnsSchema]; ok {
					a.AddSchema(fn.ReturnsSchema, cols)
				}
			}
		}
	}
}

// resolveModule maps a dotted module name to an indexed file.
func resolveModule(ix *Index, projectRoot, moduleName string) (Entry, bool) {
	rel := filepath.FromSlash(strings.ReplaceAll(moduleName, ".", "/")) + ".py"
	candidates := []string{
		filepath.Join(projectRoot, rel),
		filepath.Join(projectRoot, "src", rel),
	}
	for _, cand := range candidates {
		abs, err := filepath.Abs(cand)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if entry, ok := ix.Files[abs]; ok {
			return entry, true
		}
	}
	return Entry{}, false
}

// importedName extracts the imported symbol, ignoring any `as` alias:
// the index is keyed by the exporting file's names.
func importedName(mod *pysyntax.Module, nameNode *sitter.Node) string {
	if nameNode.Type() == "aliased_import" {
		if orig := nameNode.ChildByFieldName("name"); orig != nil {
			return mod.Text(orig)
		}
		return ""
	}
	return mod.Text(nameNode)
}
