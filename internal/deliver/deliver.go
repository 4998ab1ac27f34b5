package deliver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Deliverer makes fetched entry bytes available to the user. It returns
// where the entry ended up.
type Deliverer interface {
	Deliver(filename string, data []byte) (string, error)
}

// Error reports that bytes were received but could not be saved.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Dir saves entries below a root directory, recreating the archive's
// directory structure.
type Dir struct {
	root string
}

// NewDir returns a Dir deliverer rooted at root, creating it if needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the output directory.
func (d *Dir) Root() string { return d.root }

// Deliver writes data to root/filename. The file appears atomically: a
// temp file in the destination directory is renamed into place. Names that
// would escape root are rejected. A name ending in "/" creates a directory.
func (d *Dir) Deliver(filename string, data []byte) (string, error) {
	rel, err := SafePath(filename)
	if err != nil {
		return "", &Error{Filename: filename, Err: err}
	}
	dst := filepath.Join(d.root, rel)

	if strings.HasSuffix(filename, "/") {
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return "", &Error{Filename: filename, Err: err}
		}
		return dst, nil
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Filename: filename, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".picknfetch-*")
	if err != nil {
		return "", &Error{Filename: filename, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return "", &Error{Filename: filename, Err: goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmpName))}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Filename: filename, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Filename: filename, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Filename: filename, Err: goerr.Wrap(err, "failed to move file into place", goerr.V("path", dst))}
	}
	return dst, nil
}

// SafePath converts an archive entry name to a relative OS path that stays
// inside the output directory. Backslashes are treated as separators.
func SafePath(name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	if n == "" || strings.HasPrefix(n, "/") || (len(n) >= 2 && n[1] == ':') {
		return "", fmt.Errorf("refusing unsafe entry name %q", name)
	}
	for _, seg := range strings.Split(n, "/") {
		if seg == ".." {
			return "", fmt.Errorf("refusing unsafe entry name %q", name)
		}
	}
	clean := path.Clean(n)
	if clean == "." {
		return "", fmt.Errorf("refusing unsafe entry name %q", name)
	}
	return filepath.FromSlash(clean), nil
}
