package lsp

import (
	"errors"
	"strings"

	"github.com/typedframes/framecheck/internal/analysis"
	"github.com/typedframes/framecheck/internal/checker"
	"github.com/typedframes/framecheck/internal/pysyntax"
)

// publishDiagnostics analyzes the document and publishes the results.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	diagnostics := []Diagnostic{}

	// Only process Python files
	if !strings.HasSuffix(uri, ".py") {
		s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diagnostics,
		})
		return
	}

	path := URIToPath(uri)
	diags, err := checker.CheckSource([]byte(doc.Content), path, s.currentIndex())
	if err != nil {
		diagnostics = append(diagnostics, parseErrorToDiagnostic(err))
	} else {
		for _, d := range diags {
			diagnostics = append(diagnostics, toLSPDiagnostic(d))
		}
	}

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// toLSPDiagnostic converts an analyzer diagnostic (1-based positions) to
// an LSP diagnostic (0-based positions).
func toLSPDiagnostic(d analysis.Diagnostic) Diagnostic {
	pos := Position{Line: zeroBased(d.Line), Character: zeroBased(d.Col)}
	severity := DiagnosticSeverityError
	if d.Severity == analysis.SeverityWarning {
		severity = DiagnosticSeverityWarning
	}
	return Diagnostic{
		Range:    Range{Start: pos, End: pos},
		Severity: severity,
		Code:     d.Code,
		Source:   "framecheck",
		Message:  d.Message,
	}
}

// parseErrorToDiagnostic maps a fatal parse failure onto a single error
// diagnostic at the failure location.
func parseErrorToDiagnostic(err error) Diagnostic {
	pos := Position{}
	var parseErr *pysyntax.ParseError
	if errors.As(err, &parseErr) {
		pos = Position{Line: zeroBased(parseErr.Line), Character: zeroBased(parseErr.Col)}
	}
	return Diagnostic{
		Range:    Range{Start: pos, End: pos},
		Severity: DiagnosticSeverityError,
		Code:     "syntax-error",
		Source:   "framecheck",
		Message:  err.Error(),
	}
}

func zeroBased(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(n - 1)
}
