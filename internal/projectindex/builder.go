package projectindex

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/typedframes/framecheck/internal/analysis"
	"github.com/typedframes/framecheck/internal/pysyntax"
)

// Build walks the project root, analyzes every Python file in isolation
// and aggregates the harvested symbols. Files are processed
// concurrently; map insertion is serialized.
func Build(ctx context.Context, root string) (*Index, error) {
	files, err := collectPyFiles(root)
	if err != nil {
		return nil, err
	}

	ix := &Index{Version: Version, Files: make(map[string]Entry, len(files))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, ok := indexFile(path)
			if !ok {
				return nil
			}
			mu.Lock()
			ix.Files[path] = entry
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ix, nil
}

// collectPyFiles gathers the absolute paths of all .py files under
// root, skipping dot-directories and dot-files. Unreadable directories
// are skipped silently.
func collectPyFiles(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var out []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != absRoot && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".py") {
			out = append(out, path)
		}
		return nil
	})
	return out, walkErr
}

// indexFile harvests one file. Diagnostics are discarded; only the
// symbol tables matter here. A file that fails to parse contributes an
// empty entry, an unreadable file contributes nothing.
func indexFile(path string) (Entry, bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	entry := Entry{
		Schemas:   map[string][]string{},
		Functions: map[string]Function{},
		Exports:   []string{},
	}

	mod, err := pysyntax.Parse(src)
	if err != nil {
		return entry, true
	}

	a := analysis.New()
	_ = a.CheckModule(mod)

	entry.Schemas = a.Schemas()
	for name, schema := range a.Functions() {
		entry.Functions[name] = Function{ReturnsSchema: schema}
	}
	entry.Exports = collectExports(mod)
	return entry, true
}

// collectExports reads a top-level `__all__ = [...]` list.
func collectExports(mod *pysyntax.Module) []string {
	exports := []string{}
	for _, stmt := range mod.Statements() {
		if stmt.Type() != "expression_statement" {
			continue
		}
		for _, child := range pysyntax.BlockStatements(stmt) {
			if child.Type() != "assignment" || child.ChildByFieldName("type") != nil {
				continue
			}
			targets, value := mod.AssignChain(child)
			isAll := false
			for _, target := range targets {
				if name, ok := mod.Ident(target); ok && name == "__all__" {
					isAll = true
					break
				}
			}
			if !isAll || value == nil || value.Type() != "list" {
				continue
			}
			for i := 0; i < int(value.NamedChildCount()); i++ {
				if s, ok := mod.StringLiteral(value.NamedChild(i)); ok {
					exports = append(exports, s)
				}
			}
		}
	}
	return exports
}
