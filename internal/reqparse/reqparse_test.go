package reqparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFile_BurpHTTP2(t *testing.T) {
	content := "GET /files/dataset.zip?token=xyz HTTP/2\r\n" +
		"Host: downloads.example.com\r\n" +
		"Cookie: session=abc123; token=xyz\r\n" +
		"User-Agent: Mozilla/5.0\r\n" +
		"Accept: */*\r\n" +
		"\r\n"

	req, err := ParseFile(writeTempFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://downloads.example.com/files/dataset.zip?token=xyz", req.URL)
	assert.Equal(t, "session=abc123; token=xyz", req.Cookie)
	assert.Equal(t, "Mozilla/5.0", req.UserAgent)
}

func TestParse_Port80UsesHTTP(t *testing.T) {
	content := "GET /a.zip HTTP/1.1\r\nHost: intranet:80\r\n\r\n"
	req, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "http://intranet:80/a.zip", req.URL)
	assert.Empty(t, req.Cookie)
}

func TestParse_AbsoluteTarget(t *testing.T) {
	content := "GET http://mirror.example.org/pub/x.zip HTTP/1.1\r\nHost: ignored\r\n\r\n"
	req, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.example.org/pub/x.zip", req.URL)
}

func TestParse_MultipleCookieHeadersAndCase(t *testing.T) {
	content := "GET /x.zip HTTP/1.1\r\nhost: h.example.com\r\nCookie: a=1\r\nCookie: b=2\r\nuser-agent: UA/1\r\n\r\n"
	req, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "https://h.example.com/x.zip", req.URL)
	assert.Equal(t, "a=1; b=2", req.Cookie)
	assert.Equal(t, "UA/1", req.UserAgent)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"bad line":     "GARBAGE\r\n\r\n",
		"missing host": "GET /a.zip HTTP/1.1\r\nAccept: */*\r\n\r\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(content))
			assert.Error(t, err)
		})
	}

	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
