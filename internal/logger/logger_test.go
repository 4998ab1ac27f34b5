package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picknfetch.log")
	require.NoError(t, Setup("debug", path))
	t.Cleanup(func() { _ = Setup("warn", "") })

	l := New("fetch")
	l.Debug().Str("file", "a.txt").Msg("extracting")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "fetch", line["component"])
	assert.Equal(t, "a.txt", line["file"])
	assert.Equal(t, "extracting", line["message"])
}

func TestSetupLevelFiltering(t *testing.T) {
	require.NoError(t, Setup("error", ""))
	t.Cleanup(func() { _ = Setup("warn", "") })

	var buf bytes.Buffer
	SetOutput(&buf)

	l := New("api")
	l.Warn().Msg("dropped")
	assert.Empty(t, buf.String())

	l.Error().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetupUnknownLevel(t *testing.T) {
	require.NoError(t, Setup("chatty", ""))
	t.Cleanup(func() { _ = Setup("warn", "") })

	var buf bytes.Buffer
	SetOutput(&buf)

	l := New("api")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
