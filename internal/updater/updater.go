package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"

	"github.com/maxvaer/picknfetch/internal/logger"
	"github.com/maxvaer/picknfetch/pkg/version"
)

const (
	repoOwner  = "maxvaer"
	repoName   = "picknfetch"
	releaseURL = "https://api.github.com/repos/" + repoOwner + "/" + repoName + "/releases/latest"
)

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Updater replaces the running binary with the latest released one.
type Updater struct {
	ReleaseURL string
	Current    string
	GOOS       string
	GOARCH     string
	Client     *http.Client

	// Install writes the new binary. Defaults to replacing os.Executable().
	Install func(bin []byte) error

	logger zerolog.Logger
}

// New returns an Updater for this build.
func New() *Updater {
	return &Updater{
		ReleaseURL: releaseURL,
		Current:    version.Version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Client:     &http.Client{Timeout: 120 * time.Second},
		Install:    replaceBinary,
		logger:     logger.New("updater"),
	}
}

// Update checks GitHub for the latest release and replaces the current binary.
func Update(ctx context.Context) error {
	return New().Run(ctx)
}

// Run performs the update. It returns nil without downloading when the
// current version is already the latest.
func (u *Updater) Run(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "[*] Current version: %s\n", u.Current)
	fmt.Fprintf(os.Stderr, "[*] Checking for updates...\n")

	rel, err := u.latest(ctx)
	if err != nil {
		return err
	}

	if !newer(rel.TagName, u.Current) {
		fmt.Fprintf(os.Stderr, "[+] Already up to date (%s)\n", u.Current)
		return nil
	}
	fmt.Fprintf(os.Stderr, "[*] New version available: %s -> %s\n", u.Current, rel.TagName)

	a, err := u.findAsset(rel.Assets)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "[*] Downloading %s...\n", a.Name)
	bin, err := u.download(ctx, a)
	if err != nil {
		return err
	}

	if err := u.Install(bin); err != nil {
		return goerr.Wrap(err, "failed to replace binary")
	}
	u.logger.Info().Str("from", u.Current).Str("to", rel.TagName).Msg("updated")
	fmt.Fprintf(os.Stderr, "[+] Updated to %s\n", rel.TagName)
	return nil
}

// newer reports whether tag is a later release than current. Development
// builds always update; unparsable versions fall back to inequality.
func newer(tag, current string) bool {
	if current == "dev" || current == "" {
		return true
	}
	lv, err1 := semver.NewVersion(strings.TrimPrefix(tag, "v"))
	cv, err2 := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err1 != nil || err2 != nil {
		return strings.TrimPrefix(tag, "v") != strings.TrimPrefix(current, "v")
	}
	return cv.LessThan(*lv)
}

func (u *Updater) latest(ctx context.Context) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.ReleaseURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build release request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check for updates")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, goerr.New("no releases found", goerr.V("repo", repoOwner+"/"+repoName))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("release API returned non-200 status", goerr.V("status", resp.StatusCode))
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, goerr.Wrap(err, "failed to parse release")
	}
	return &rel, nil
}

// findAsset picks the archive for this platform, e.g.
// picknfetch_linux_amd64.tar.gz or picknfetch-windows-amd64.zip.
func (u *Updater) findAsset(assets []asset) (*asset, error) {
	patterns := []string{
		fmt.Sprintf("%s_%s_%s", repoName, u.GOOS, u.GOARCH),
		fmt.Sprintf("%s-%s-%s", repoName, u.GOOS, u.GOARCH),
	}
	for i := range assets {
		name := strings.ToLower(assets[i].Name)
		for _, p := range patterns {
			if strings.Contains(name, p) {
				return &assets[i], nil
			}
		}
	}

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return nil, goerr.New("no release asset for this platform",
		goerr.V("platform", u.GOOS+"/"+u.GOARCH),
		goerr.V("assets", strings.Join(names, ", ")))
}

func (u *Updater) download(ctx context.Context, a *asset) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BrowserDownloadURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build download request")
	}
	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download update", goerr.V("asset", a.Name))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("asset download returned non-200 status", goerr.V("status", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read asset")
	}

	name := strings.ToLower(a.Name)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return u.fromZip(data)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return u.fromTarGz(data)
	default:
		return data, nil
	}
}

func (u *Updater) binaryName() string {
	if u.GOOS == "windows" {
		return repoName + ".exe"
	}
	return repoName
}

func (u *Updater) fromZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open zip asset")
	}
	want := u.binaryName()
	for _, f := range r.File {
		if !strings.EqualFold(filepath.Base(f.Name), want) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open binary in zip")
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, goerr.New("binary not found in zip asset", goerr.V("binary", want))
}

func (u *Updater) fromTarGz(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open tar.gz asset")
	}
	defer gz.Close()

	want := u.binaryName()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read tar.gz asset")
		}
		if filepath.Base(hdr.Name) == want && hdr.Typeflag == tar.TypeReg {
			return io.ReadAll(tr)
		}
	}
	return nil, goerr.New("binary not found in tar.gz asset", goerr.V("binary", want))
}

func replaceBinary(bin []byte) error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return err
	}

	oldPath := execPath + ".old"
	_ = os.Remove(oldPath)

	if err := os.Rename(execPath, oldPath); err != nil {
		return fmt.Errorf("renaming current binary: %w", err)
	}
	if err := os.WriteFile(execPath, bin, 0o755); err != nil {
		_ = os.Rename(oldPath, execPath)
		return fmt.Errorf("writing new binary: %w", err)
	}

	// Fails on Windows while the old binary is still running.
	_ = os.Remove(oldPath)
	return nil
}
