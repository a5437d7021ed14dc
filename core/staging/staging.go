// Package staging manages the local scratch directory where key files, extra
// files and the rewritten par file are placed before upload.
//
// The directory lives on an afero.Fs so that tests run against an in-memory
// filesystem. It is created on first use and reused across runs; every run
// overwrites the files it stages.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Area is a staging directory on a filesystem.
type Area struct {
	fs  afero.Fs
	dir string
}

// New returns an Area rooted at dir on fs.
func New(fs afero.Fs, dir string) *Area {
	return &Area{fs: fs, dir: dir}
}

// NewOS returns an Area on the host filesystem.
func NewOS(dir string) *Area {
	return New(afero.NewOsFs(), dir)
}

// Dir returns the root directory of the area.
func (a *Area) Dir() string {
	return a.dir
}

// Prepare creates the staging directory (and a subdirectory) if absent.
func (a *Area) Prepare(sub string) error {
	if err := a.fs.MkdirAll(filepath.Join(a.dir, sub), 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory %s: %w", filepath.Join(a.dir, sub), err)
	}
	return nil
}

// Path returns the local path of a staged file.
func (a *Area) Path(sub, name string) string {
	return filepath.Join(a.dir, sub, sanitize(name))
}

// Create opens a staged file for writing, truncating it.
func (a *Area) Create(sub, name string) (afero.File, error) {
	if err := a.Prepare(sub); err != nil {
		return nil, err
	}
	f, err := a.fs.OpenFile(a.Path(sub, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file %s: %w", name, err)
	}
	return f, nil
}

// Write stages the content of r under name.
func (a *Area) Write(sub, name string, r io.Reader) (int64, error) {
	f, err := a.Create(sub, name)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("failed to write staged file %s: %w", name, err)
	}
	return n, f.Close()
}

// Open opens a staged file for reading.
func (a *Area) Open(sub, name string) (io.ReadCloser, error) {
	f, err := a.fs.Open(a.Path(sub, name))
	if err != nil {
		return nil, fmt.Errorf("staged file %s is missing: %w", name, err)
	}
	return f, nil
}

// Exists reports whether name has been staged.
func (a *Area) Exists(sub, name string) bool {
	ok, err := afero.Exists(a.fs, a.Path(sub, name))
	return err == nil && ok
}

// sanitize keeps staged names inside the area.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return filepath.Base(filepath.Clean("/" + name))
}
