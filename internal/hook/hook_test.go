//go:build !windows

package hook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

func TestRunWritesPayloadAndExpandsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	stdinFile := filepath.Join(dir, "stdin.json")
	argsFile := filepath.Join(dir, "args.txt")

	r := NewRunner("cat > "+stdinFile+"; echo '{file} {size} {index}' > "+argsFile, true)
	r.Run("https://example.com/a.zip", fetch.Outcome{
		Index: 3,
		Entry: api.Entry{Filename: "docs/a.txt", Compression: 8},
		Bytes: 42,
		Path:  "/out/docs/a.txt",
	})

	raw, err := os.ReadFile(stdinFile)
	require.NoError(t, err)
	var got payload
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, payload{
		Archive:     "https://example.com/a.zip",
		Index:       3,
		Filename:    "docs/a.txt",
		Path:        "/out/docs/a.txt",
		Size:        42,
		Compression: 8,
	}, got)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt 42 3\n", string(args))
}

func TestRunSkipsFailedOutcomes(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	r := NewRunner("touch "+marker, true)
	r.Run("https://example.com/a.zip", fetch.Outcome{Entry: api.Entry{Filename: "x"}, Err: errors.New("boom")})

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestRunHookFailureIsContained(t *testing.T) {
	r := NewRunner("exit 3", true)
	assert.NotPanics(t, func() {
		r.Run("u", fetch.Outcome{Entry: api.Entry{Filename: "x"}})
	})
}
