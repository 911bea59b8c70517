package analysis

import "strings"

const ignoreMarker = "# typedframes: ignore"

// filterIgnored drops diagnostics whose source line carries an ignore
// comment: a bare `# typedframes: ignore` suppresses everything on the
// line, `# typedframes: ignore[code1, code2]` only the listed codes.
func filterIgnored(source []byte, diags []Diagnostic) []Diagnostic {
	if len(diags) == 0 {
		return diags
	}
	lines := strings.Split(string(source), "\n")
	out := diags[:0]
	for _, d := range diags {
		if !lineIgnores(lines, d.Line, d.Code) {
			out = append(out, d)
		}
	}
	return out
}

func lineIgnores(lines []string, line int, code string) bool {
	if line < 1 || line > len(lines) {
		return false
	}
	pos := strings.Index(lines[line-1], ignoreMarker)
	if pos < 0 {
		return false
	}
	after := lines[line-1][pos+len(ignoreMarker):]
	if strings.TrimSpace(after) == "" || startsWithSpace(after) {
		return true
	}
	if strings.HasPrefix(after, "[") {
		end := strings.Index(after, "]")
		if end < 0 {
			return false
		}
		for _, c := range strings.Split(after[1:end], ",") {
			if strings.TrimSpace(c) == code {
				return true
			}
		}
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && (s[0] == ' ' || s[0] == '\t')
}
