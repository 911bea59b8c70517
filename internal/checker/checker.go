// Package checker ties the pieces together for one file: project
// configuration, cross-file symbol seeding and the analysis pass. Both
// the CLI and the LSP server go through it.
package checker

import (
	"os"

	"github.com/typedframes/framecheck/internal/analysis"
	"github.com/typedframes/framecheck/internal/config"
	"github.com/typedframes/framecheck/internal/projectindex"
	"github.com/typedframes/framecheck/internal/pysyntax"
)

// CheckSource analyzes one source buffer. The path locates the project
// root for configuration and import resolution; idx may be nil.
// A disabled configuration yields no diagnostics at all.
func CheckSource(src []byte, path string, idx *projectindex.Index) ([]analysis.Diagnostic, error) {
	root := config.FindProjectRoot(path)
	cfg := config.LoadFromDir(root)
	if !cfg.Enabled {
		return nil, nil
	}

	mod, err := pysyntax.Parse(src)
	if err != nil {
		return nil, err
	}

	a := analysis.New()
	if idx != nil {
		projectindex.Seed(a, idx, mod, root)
	}
	diags := a.CheckModule(mod)

	if !cfg.Warnings {
		kept := diags[:0]
		for _, d := range diags {
			if d.Severity != analysis.SeverityWarning {
				kept = append(kept, d)
			}
		}
		diags = kept
	}
	return diags, nil
}

// CheckFile reads and analyzes a file on disk.
func CheckFile(path string, idx *projectindex.Index) ([]analysis.Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return CheckSource(src, path, idx)
}
