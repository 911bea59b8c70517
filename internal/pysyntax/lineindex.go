package pysyntax

import "sort"

// LineIndex maps byte offsets into a source buffer to 1-based line and
// column numbers. Columns count bytes, not runes.
type LineIndex struct {
	// starts[i] is the byte offset of the first byte of line i+1.
	starts []uint32
}

// NewLineIndex scans the source once and records line start offsets.
func NewLineIndex(src []byte) *LineIndex {
	starts := []uint32{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &LineIndex{starts: starts}
}

// Position returns the 1-based (line, column) of a byte offset.
func (li *LineIndex) Position(offset uint32) (line, col int) {
	i := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(offset-li.starts[i]) + 1
}

// LineCount reports the number of lines in the indexed source.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}
