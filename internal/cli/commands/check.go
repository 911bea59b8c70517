package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/typedframes/framecheck/internal/analysis"
	"github.com/typedframes/framecheck/internal/checker"
	"github.com/typedframes/framecheck/internal/config"
	"github.com/typedframes/framecheck/internal/projectindex"
	"github.com/typedframes/framecheck/internal/pysyntax"
)

// ErrChecksFailed signals a strict-mode run that found errors. The
// findings are already on stdout; callers should exit non-zero without
// printing anything further.
var ErrChecksFailed = errors.New("checks failed")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	JSON       bool   // Machine-readable output
	Strict     bool   // Exit non-zero when errors are found
	NoIndex    bool   // Disable the cross-file index
	NoWarnings bool   // Suppress warnings regardless of pyproject.toml
	Watch      bool   // Re-run on file changes
	IndexFile  string // Previously built index to load instead of scanning
}

// fileDiagnostic is a diagnostic tagged with the file it came from.
type fileDiagnostic struct {
	analysis.Diagnostic
	File string `json:"file"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Check Python files for column errors",
		Long: `Analyze a file or directory for DataFrame column errors.

Schemas are read from class definitions and type annotations; for a
directory, a cross-file index is built first so imported schemas
resolve across modules.`,
		Example: `  # Check a whole project
  framecheck check src/

  # Check one file, fail the build on errors
  framecheck check pipeline.py --strict

  # Machine-readable output
  framecheck check src/ --json

  # Reuse a prebuilt index for a single-file check
  framecheck index src/ && framecheck check src/main.py --index .framecheck.index

  # Re-check on every save
  framecheck check src/ --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with code 1 if any errors are found")
	cmd.Flags().BoolVar(&opts.NoIndex, "no-index", false, "Disable the cross-file index")
	cmd.Flags().BoolVar(&opts.NoWarnings, "no-warnings", false, "Suppress all warnings. Overrides pyproject.toml")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch for changes and re-run")
	cmd.Flags().StringVar(&opts.IndexFile, "index", "", "Load a previously built index instead of scanning the project")

	return cmd
}

func runCheck(cmd *cobra.Command, path string, opts *CheckOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("path does not exist: %s", abs)
	}

	errorCount, err := runCheckOnce(cmd, abs, opts)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchAndRecheck(cmd, abs, opts)
	}

	if opts.Strict && errorCount > 0 {
		return ErrChecksFailed
	}
	return nil
}

// runCheckOnce performs a full pass over the path and prints the
// results. It returns the number of error-severity findings.
func runCheckOnce(cmd *cobra.Command, abs string, opts *CheckOptions) (int, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return 0, err
	}

	ix, err := resolveIndex(cmd.Context(), abs, info.IsDir(), opts)
	if err != nil {
		return 0, err
	}

	files, err := collectPythonFiles(abs, info.IsDir())
	if err != nil {
		return 0, err
	}

	start := time.Now()
	all := []fileDiagnostic{}
	for _, file := range files {
		diags, err := checker.CheckFile(file, ix)
		if err != nil {
			var parseErr *pysyntax.ParseError
			if !errors.As(err, &parseErr) {
				return 0, err
			}
			// A file that does not parse is reported and skipped, so
			// one broken file does not hide the rest of the project.
			all = append(all, fileDiagnostic{
				File: file,
				Diagnostic: analysis.Diagnostic{
					Line:     parseErr.Line,
					Col:      parseErr.Col,
					Code:     "syntax-error",
					Message:  parseErr.Error(),
					Severity: analysis.SeverityError,
				},
			})
			continue
		}
		for _, d := range diags {
			all = append(all, fileDiagnostic{Diagnostic: d, File: file})
		}
	}
	elapsed := time.Since(start)

	if opts.NoWarnings {
		kept := all[:0]
		for _, d := range all {
			if d.Severity != analysis.SeverityWarning {
				kept = append(kept, d)
			}
		}
		all = kept
	}

	errorCount := 0
	for _, d := range all {
		if d.Severity != analysis.SeverityWarning {
			errorCount++
		}
	}

	if opts.JSON {
		out, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return 0, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return errorCount, nil
	}

	printHumanResults(cmd.OutOrStdout(), files, all, errorCount, elapsed)
	return errorCount, nil
}

// printHumanResults prints one line per finding and a summary line.
func printHumanResults(w io.Writer, files []string, all []fileDiagnostic, errorCount int, elapsed time.Duration) {
	for _, d := range all {
		icon := "✗"
		if d.Severity == analysis.SeverityWarning {
			icon = "⚠"
		}
		fmt.Fprintf(w, "%s %s:%d - %s\n", icon, d.File, d.Line, d.Message)
	}
	if len(all) > 0 {
		fmt.Fprintln(w)
	}

	warningCount := len(all) - errorCount
	fileLabel := plural(len(files), "file", "files")
	if errorCount > 0 || warningCount > 0 {
		parts := []string{}
		if errorCount > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", errorCount, plural(errorCount, "error", "errors")))
		}
		if warningCount > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", warningCount, plural(warningCount, "warning", "warnings")))
		}
		fmt.Fprintf(w, "✗ Found %s in %d %s (%.1fs)\n", strings.Join(parts, ", "), len(files), fileLabel, elapsed.Seconds())
	} else {
		fmt.Fprintf(w, "✓ Checked %d %s in %.1fs\n", len(files), fileLabel, elapsed.Seconds())
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// resolveIndex picks the cross-file index for a run. An explicit
// --index file is authoritative and must decode; a directory run
// rebuilds from source; a single-file run picks up the project's
// previously written index when one exists, failing closed on any
// unreadable or stale payload.
func resolveIndex(ctx context.Context, abs string, isDir bool, opts *CheckOptions) (*projectindex.Index, error) {
	if opts.NoIndex {
		return nil, nil
	}
	if opts.IndexFile != "" {
		data, err := os.ReadFile(opts.IndexFile)
		if err != nil {
			return nil, err
		}
		ix, ok := projectindex.Decode(data)
		if !ok {
			return nil, fmt.Errorf("invalid index file: %s", opts.IndexFile)
		}
		return ix, nil
	}
	if isDir {
		return projectindex.Build(ctx, abs)
	}
	data, err := os.ReadFile(filepath.Join(config.FindProjectRoot(abs), DefaultIndexFile))
	if err != nil {
		return nil, nil
	}
	ix, _ := projectindex.Decode(data)
	return ix, nil
}

// collectPythonFiles gathers .py files under a path, sorted for stable
// output. Dot-directories are skipped, matching the indexer.
func collectPythonFiles(abs string, isDir bool) ([]string, error) {
	if !isDir {
		if strings.HasSuffix(abs, ".py") {
			return []string{abs}, nil
		}
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != abs && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".py") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// watchAndRecheck re-runs the check whenever a Python file under the
// path changes. Runs until the context is cancelled or the watcher
// closes.
func watchAndRecheck(cmd *cobra.Command, abs string, opts *CheckOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatches(watcher, abs); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes...")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addWatches(watcher, ev.Name)
				}
			}
			if !strings.HasSuffix(ev.Name, ".py") {
				continue
			}
			if ev.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				// Editors fire bursts of events per save.
				drainEvents(watcher, 100*time.Millisecond)
				fmt.Fprintln(cmd.OutOrStdout())
				if _, err := runCheckOnce(cmd, abs, opts); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watch error: %v\n", err)
		}
	}
}

// addWatches registers the path and all non-hidden subdirectories.
func addWatches(watcher *fsnotify.Watcher, abs string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(abs))
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// drainEvents discards events until the stream goes quiet.
func drainEvents(watcher *fsnotify.Watcher, quiet time.Duration) {
	for {
		select {
		case <-watcher.Events:
		case <-time.After(quiet):
			return
		}
	}
}
