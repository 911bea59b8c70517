package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedframes/framecheck/internal/projectindex"
)

func TestIndexCommandWritesIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schemas.py", `
class OrderSchema(BaseSchema):
    order_id = Column(type=int)
    total = Column(type=float)
`)
	outPath := filepath.Join(t.TempDir(), "symbols.index")

	cmd := NewIndexCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{dir, "-o", outPath})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Indexed 1 file")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	ix, ok := projectindex.Decode(data)
	require.True(t, ok)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	entry, ok := ix.Files[filepath.Join(absDir, "schemas.py")]
	require.True(t, ok)
	assert.Equal(t, []string{"order_id", "total"}, entry.Schemas["OrderSchema"])
}

func TestIndexCommandRejectsFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lone.py", "x = 1\n")

	cmd := NewIndexCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
