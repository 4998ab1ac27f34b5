package resume

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

func sampleReport() *fetch.Report {
	return &fetch.Report{
		ID:        "batch-1",
		SourceURL: "https://example.com/a.zip",
		Started:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  time.Second,
		Outcomes: []fetch.Outcome{
			{Index: 0, Entry: api.Entry{Filename: "a.txt"}, Bytes: 3},
			{Index: 2, Entry: api.Entry{Filename: "c.txt"}, Err: &api.ExtractionError{Filename: "c.txt", Reason: "range fetch failed"}},
		},
	}
}

func TestFromReport(t *testing.T) {
	s := FromReport(sampleReport())

	assert.Equal(t, "https://example.com/a.zip", s.URL)
	assert.Equal(t, "partially completed", s.Status)
	assert.Equal(t, []string{"a.txt"}, s.Delivered)
	assert.Equal(t, []FailedEntry{{Index: 2, Filename: "c.txt", Reason: "range fetch failed"}}, s.Failed)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), s.Finished)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, FromReport(sampleReport()).Save(path))

	s, err := Load(path)
	require.NoError(t, err)
	names, err := s.FailedNames("https://example.com/a.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, names)
}

func TestFailedNamesURLMismatch(t *testing.T) {
	s := FromReport(sampleReport())
	_, err := s.FailedNames("https://example.com/other.zip")
	assert.True(t, errors.Is(err, ErrURLMismatch))
}

func TestMissing(t *testing.T) {
	s := FromReport(sampleReport())
	assert.Empty(t, s.Missing([]api.Entry{{Filename: "c.txt"}}))
	assert.Equal(t, []string{"c.txt"}, s.Missing([]api.Entry{{Filename: "a.txt"}}))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
