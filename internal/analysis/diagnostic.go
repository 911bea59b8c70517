// Package analysis implements the schema propagation engine: it extracts
// column schemas from class definitions, tracks dataframe variables
// through a single forward pass over the module and reports column
// accesses that cannot be satisfied by the tracked schema.
package analysis

// Diagnostic codes. The set is closed; suppression comments and editor
// integrations match on these exact strings.
const (
	CodeUnknownColumn        = "unknown-column"
	CodeReservedName         = "reserved-name"
	CodeUntrackedDataFrame   = "untracked-dataframe"
	CodeDroppedUnknownColumn = "dropped-unknown-column"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic is one finding, positioned 1-based in the checked source.
type Diagnostic struct {
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}
