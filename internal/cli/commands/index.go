package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/typedframes/framecheck/internal/projectindex"
)

// DefaultIndexFile is where the index command writes unless told otherwise.
const DefaultIndexFile = ".framecheck.index"

// IndexOptions holds options for the index command.
type IndexOptions struct {
	Output string // Destination file for the encoded index
}

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	opts := &IndexOptions{}
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Build the cross-file symbol index",
		Long: `Scan a project and write its schema index to disk.

The index records every schema class, schema-returning function and
__all__ export per file, so imported schemas resolve without
re-analyzing the whole project on each check.`,
		Example: `  # Index the current project
  framecheck index

  # Index another tree to a custom location
  framecheck index src/ -o build/symbols.index`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runIndex(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", DefaultIndexFile, "File to write the index to")

	return cmd
}

func runIndex(cmd *cobra.Command, dir string, opts *IndexOptions) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", abs)
	}

	ix, err := projectindex.Build(cmd.Context(), abs)
	if err != nil {
		return err
	}

	data, err := ix.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d %s to %s\n", len(ix.Files), plural(len(ix.Files), "file", "files"), opts.Output)
	return nil
}
