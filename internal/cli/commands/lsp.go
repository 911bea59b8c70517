package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/typedframes/framecheck/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for IDE integration.

The server communicates over stdin/stdout using JSON-RPC. The project
root is taken from the client's initialization request (rootUri) and
drives cross-file schema resolution.`,
		Example: `  # Start LSP server (usually called by an IDE)
  framecheck lsp`,
		RunE: func(_ *cobra.Command, _ []string) error {
			server := lsp.NewServer(os.Stdin, os.Stdout)
			return server.Run()
		},
	}

	return cmd
}
