// Package project gives plugins access to a generated native project.
//
// A Tree wraps an afero filesystem rooted at the generated project directory
// (the one containing ios/ and android/). Every write goes through the Tree so
// the change journal can report which files a build touched and render diffs.
//
// Paths passed to Tree methods are relative to the project root. Failures are
// returned as resource errors (errors.Is(err, errors.ErrResource)).
package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/afero"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Tree is a generated native project.
type Tree struct {
	fs     afero.Fs
	source afero.Fs
	root   string

	mu      sync.Mutex
	journal map[string]*change
}

// Option configures a Tree.
type Option func(*Tree)

// WithSource sets the filesystem plugin inputs (icons, assets) are read
// from. It is wrapped read-only. Defaults to an empty in-memory filesystem.
func WithSource(fs afero.Fs) Option {
	return func(t *Tree) {
		t.source = afero.NewReadOnlyFs(fs)
	}
}

// WithRoot records the on-disk location of the tree for display.
func WithRoot(root string) Option {
	return func(t *Tree) {
		t.root = root
	}
}

// New returns a Tree over fs.
func New(fs afero.Fs, opts ...Option) *Tree {
	t := &Tree{
		fs:      fs,
		source:  afero.NewReadOnlyFs(afero.NewMemMapFs()),
		journal: make(map[string]*change),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnDisk returns a Tree rooted at dir whose sources resolve against
// sourceDir, typically the directory containing kernel.yaml.
func OnDisk(dir, sourceDir string) *Tree {
	osFs := afero.NewOsFs()
	return New(
		afero.NewBasePathFs(osFs, dir),
		WithSource(afero.NewBasePathFs(osFs, sourceDir)),
		WithRoot(dir),
	)
}

// Fs returns the underlying filesystem. Writes made directly through it are
// not journaled.
func (t *Tree) Fs() afero.Fs {
	return t.fs
}

// Source returns the read-only source filesystem.
func (t *Tree) Source() afero.Fs {
	return t.source
}

// Root returns the on-disk location, or "" for in-memory trees.
func (t *Tree) Root() string {
	return t.root
}

// ReadFile returns the contents of path.
func (t *Tree) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(t.fs, filepath.Clean(path))
	if err != nil {
		return nil, kerrors.Resource("project.ReadFile", err)
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories as needed.
func (t *Tree) WriteFile(path string, data []byte) error {
	path = filepath.Clean(path)
	if err := t.record(path); err != nil {
		return err
	}
	if err := t.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return kerrors.Resource("project.WriteFile", err)
	}
	if err := afero.WriteFile(t.fs, path, data, filePerm); err != nil {
		return kerrors.Resource("project.WriteFile", err)
	}
	return nil
}

// MkdirAll creates path and any missing parents.
func (t *Tree) MkdirAll(path string) error {
	if err := t.fs.MkdirAll(filepath.Clean(path), dirPerm); err != nil {
		return kerrors.Resource("project.MkdirAll", err)
	}
	return nil
}

// Exists reports whether path exists in the tree.
func (t *Tree) Exists(path string) bool {
	ok, err := afero.Exists(t.fs, filepath.Clean(path))
	return err == nil && ok
}

// KeywordExists reports whether the file at path contains keyword.
func (t *Tree) KeywordExists(path, keyword string) (bool, error) {
	data, err := t.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Contains(data, []byte(keyword)), nil
}

// Update replaces the first match of re in the file at path with
// replacement, which may reference submatches ($1). It fails when re does
// not match so a moved anchor in the generated file is surfaced instead of
// silently skipped.
func (t *Tree) Update(path string, re *regexp.Regexp, replacement string) error {
	const op = "project.Update"

	data, err := t.ReadFile(path)
	if err != nil {
		return err
	}
	loc := re.FindSubmatchIndex(data)
	if loc == nil {
		return kerrors.Resource(op, fmt.Errorf("%s: pattern %q not found", path, re.String()))
	}

	var out []byte
	out = append(out, data[:loc[0]]...)
	out = re.Expand(out, []byte(replacement), data, loc)
	out = append(out, data[loc[1]:]...)
	return t.WriteFile(path, out)
}

// InsertAfter inserts lines after the first match of anchor, each on its
// own line. Lines are inserted literally.
func (t *Tree) InsertAfter(path string, anchor *regexp.Regexp, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	return t.Update(path, anchor, "${0}\n"+EscapeReplacement(strings.Join(lines, "\n")))
}

// EscapeReplacement quotes $ so s expands to itself in an Update
// replacement.
func EscapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// CopyFile copies src from the source filesystem to dst in the tree.
func (t *Tree) CopyFile(src, dst string) error {
	const op = "project.CopyFile"

	in, err := t.source.Open(filepath.Clean(src))
	if err != nil {
		return kerrors.Resource(op, err)
	}
	defer in.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in); err != nil {
		return kerrors.Resource(op, fmt.Errorf("failed to read %s: %w", src, err))
	}
	return t.WriteFile(dst, buf.Bytes())
}

// ReadSource returns the contents of path in the source filesystem.
func (t *Tree) ReadSource(path string) ([]byte, error) {
	data, err := afero.ReadFile(t.source, filepath.Clean(path))
	if err != nil {
		return nil, kerrors.Resource("project.ReadSource", err)
	}
	return data, nil
}
