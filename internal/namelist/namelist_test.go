package namelist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "# wanted entries\nsrc/main.go\n\n  docs/guide.txt  \nsrc/main.go\r\nREADME.md\n"
	names, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go", "docs/guide.txt", "README.md"}, names)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.txt\nb.txt\n"), 0644))

	names, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
