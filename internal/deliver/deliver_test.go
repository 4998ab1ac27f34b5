package deliver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverWritesExactBytes(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	require.NoError(t, err)

	dst, err := d.Deliver("b.txt", []byte("payload B"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b.txt"), dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload B"), got)
}

func TestDeliverNestedAndDirectory(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	require.NoError(t, err)

	_, err = d.Deliver("docs/", nil)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(root, "docs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	dst, err := d.Deliver("docs/guide/intro.md", []byte("# hi"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "docs", "guide", "intro.md"), dst)
}

func TestDeliverOverwrites(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	require.NoError(t, err)

	_, err = d.Deliver("a.txt", []byte("first"))
	require.NoError(t, err)
	dst, err := d.Deliver("a.txt", []byte("second"))
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDeliverRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "out"))
	require.NoError(t, err)

	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "/etc/passwd", "..\\evil.txt", "C:\\x.txt", ""} {
		_, err := d.Deliver(name, []byte("x"))
		var de *Error
		require.True(t, errors.As(err, &de), "name %q", name)
		assert.Equal(t, name, de.Filename)
	}
	_, err = os.Stat(filepath.Join(root, "evil.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeliverUnwritableRoot(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	d := &Dir{root: blocker}
	_, err := d.Deliver("a.txt", []byte("x"))
	var de *Error
	require.True(t, errors.As(err, &de))
}

func TestSafePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a.txt", "a.txt"},
		{"dir/b.txt", filepath.Join("dir", "b.txt")},
		{"dir\\c.txt", filepath.Join("dir", "c.txt")},
		{"./d.txt", "d.txt"},
		{"x//y.txt", filepath.Join("x", "y.txt")},
	}
	for _, tt := range tests {
		got, err := SafePath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
