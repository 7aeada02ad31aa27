package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// FS implements Provider on top of an afero file system.
type FS struct {
	backend afero.Fs
	root    string // canonical absolute path to vault directory
	// evalSymlinks is set for OS-backed file systems, where a symlink inside
	// the vault may point anywhere.
	evalSymlinks bool
}

// NewFS creates a provider backed by the local file system.
// The root does not have to exist yet; listing reports it as unavailable
// until it does.
func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("storage: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	canon, err := canonical(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: canonicalize root: %w", err)
	}
	return &FS{backend: afero.NewOsFs(), root: canon, evalSymlinks: true}, nil
}

// NewFSWithBackend creates a provider over an arbitrary afero file system.
// Symlinks are not evaluated; root must be absolute within backend.
func NewFSWithBackend(backend afero.Fs, root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("storage: root is required")
	}
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("storage: root must be absolute: %s", root)
	}
	return &FS{backend: backend, root: filepath.Clean(root)}, nil
}

// Root returns the canonical absolute vault root.
func (f *FS) Root() string {
	return f.root
}

// Resolve joins a vault-relative path to the root and rejects any result
// that is not the root itself or a separator-bounded descendant of it.
// Both '/' and '\' are accepted as separators; a leading separator is
// relative to the vault, not the host.
func (f *FS) Resolve(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", ErrAccessDenied
	}
	slashed := strings.ReplaceAll(rel, `\`, "/")
	joined := filepath.Join(f.root, filepath.FromSlash(slashed))
	if !within(f.root, joined) {
		return "", ErrAccessDenied
	}
	if !f.evalSymlinks {
		return joined, nil
	}

	real, err := canonical(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve: %w", err)
	}
	if !within(f.root, real) {
		return "", ErrAccessDenied
	}
	return real, nil
}

// Rel converts an absolute path under the root to a forward-slash path
// relative to the root.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", fmt.Errorf("storage: rel: %w", err)
	}
	if !within(f.root, abs) {
		return "", ErrAccessDenied
	}
	return filepath.ToSlash(rel), nil
}

// ReadDir lists the entries of a directory sorted by name. Entry info is
// not symlink-followed.
func (f *FS) ReadDir(abs string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(f.backend, abs)
	if err != nil {
		return nil, fmt.Errorf("storage: readdir: %w", err)
	}
	return entries, nil
}

// Stat returns file info for abs, following symlinks.
func (f *FS) Stat(abs string) (os.FileInfo, error) {
	return f.backend.Stat(abs)
}

// Open opens abs for reading. The caller must close the file.
func (f *FS) Open(abs string) (afero.File, error) {
	return f.backend.Open(abs)
}

// ReadFile returns the raw bytes of the file at abs.
func (f *FS) ReadFile(abs string) ([]byte, error) {
	data, err := afero.ReadFile(f.backend, abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	return data, nil
}

// within reports whether p is root or lies under it. The comparison works
// on path components, so "/srv/vault2" is not inside "/srv/vault".
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// canonical evaluates symlinks in p. Trailing components that do not exist
// yet are appended to the canonical form of their deepest existing parent.
func canonical(p string) (string, error) {
	real, err := filepath.EvalSymlinks(p)
	if err == nil {
		return real, nil
	}
	if !IsNotExist(err) {
		return "", err
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	base, err := canonical(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.Base(p)), nil
}

// IsNotExist reports whether err means the path is absent, including a
// path that descends through a regular file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
