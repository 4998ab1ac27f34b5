package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o755, Size: int64(len(content)), Typeflag: tar.TypeReg}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// releaseServer serves a latest-release document whose assets point back
// at the same server.
func releaseServer(t *testing.T, tag string, assets map[string][]byte) string {
	t.Helper()
	r := chi.NewRouter()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	r.Get("/latest", func(w http.ResponseWriter, _ *http.Request) {
		rel := release{TagName: tag}
		for name := range assets {
			rel.Assets = append(rel.Assets, asset{Name: name, BrowserDownloadURL: srv.URL + "/assets/" + name})
		}
		_ = json.NewEncoder(w).Encode(rel)
	})
	r.Get("/assets/{name}", func(w http.ResponseWriter, req *http.Request) {
		data, ok := assets[chi.URLParam(req, "name")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(data)
	})
	return srv.URL + "/latest"
}

func testUpdater(url, current, goos string) (*Updater, *[]byte) {
	var installed []byte
	u := &Updater{
		ReleaseURL: url,
		Current:    current,
		GOOS:       goos,
		GOARCH:     "amd64",
		Client:     http.DefaultClient,
		Install: func(bin []byte) error {
			installed = bin
			return nil
		},
		logger: zerolog.Nop(),
	}
	return u, &installed
}

func TestUpdateFromTarGz(t *testing.T) {
	url := releaseServer(t, "v1.2.0", map[string][]byte{
		"picknfetch_linux_amd64.tar.gz":  tarGz(t, "picknfetch", []byte("new-linux")),
		"picknfetch_windows_amd64.zip":   zipped(t, "picknfetch.exe", []byte("new-win")),
		"picknfetch_darwin_arm64.tar.gz": tarGz(t, "picknfetch", []byte("new-mac")),
	})

	u, installed := testUpdater(url, "v1.1.0", "linux")
	require.NoError(t, u.Run(context.Background()))
	assert.Equal(t, "new-linux", string(*installed))
}

func TestUpdateFromZip(t *testing.T) {
	url := releaseServer(t, "v1.2.0", map[string][]byte{
		"picknfetch_windows_amd64.zip": zipped(t, "dist/picknfetch.exe", []byte("new-win")),
	})

	u, installed := testUpdater(url, "v1.1.0", "windows")
	require.NoError(t, u.Run(context.Background()))
	assert.Equal(t, "new-win", string(*installed))
}

func TestUpdateAlreadyCurrent(t *testing.T) {
	url := releaseServer(t, "v1.2.0", map[string][]byte{
		"picknfetch_linux_amd64.tar.gz": tarGz(t, "picknfetch", []byte("new")),
	})

	u, installed := testUpdater(url, "1.2.0", "linux")
	require.NoError(t, u.Run(context.Background()))
	assert.Nil(t, *installed)
}

func TestUpdateNoAssetForPlatform(t *testing.T) {
	url := releaseServer(t, "v1.2.0", map[string][]byte{
		"picknfetch_linux_amd64.tar.gz": tarGz(t, "picknfetch", []byte("new")),
	})

	u, installed := testUpdater(url, "dev", "freebsd")
	assert.Error(t, u.Run(context.Background()))
	assert.Nil(t, *installed)
}

func TestUpdateBinaryMissingFromArchive(t *testing.T) {
	url := releaseServer(t, "v2.0.0", map[string][]byte{
		"picknfetch_linux_amd64.tar.gz": tarGz(t, "README.md", []byte("docs")),
	})

	u, _ := testUpdater(url, "v1.0.0", "linux")
	assert.Error(t, u.Run(context.Background()))
}

func TestUpdateNoReleases(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	u, _ := testUpdater(srv.URL, "v1.0.0", "linux")
	assert.Error(t, u.Run(context.Background()))
}

func TestNewer(t *testing.T) {
	assert.True(t, newer("v1.2.0", "dev"))
	assert.True(t, newer("v1.2.0", "v1.1.9"))
	assert.True(t, newer("v1.10.0", "1.9.0"))
	assert.False(t, newer("v1.2.0", "1.2.0"))
	assert.False(t, newer("v1.2.0", "v1.3.0"))
	assert.True(t, newer("nightly", "v1.0.0"))
}
