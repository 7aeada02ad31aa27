// Package storage defines the read-only vault file-system abstraction and
// the containment check every single-file request goes through.
package storage

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// ErrAccessDenied is returned when a requested path resolves outside the
// vault root. Its message never includes the resolved path.
var ErrAccessDenied = errors.New("storage: access denied")

// Provider is the interface for read-only vault file operations.
// Paths passed to ReadDir, Stat, Open and ReadFile are absolute paths
// previously produced by Resolve or derived from ReadDir results.
type Provider interface {
	// Root returns the canonical absolute vault root.
	Root() string
	// Resolve joins rel to the root and proves containment.
	Resolve(rel string) (string, error)
	// Rel converts an absolute path under the root to a forward-slash relative path.
	Rel(abs string) (string, error)
	// ReadDir lists a directory, sorted by name.
	ReadDir(abs string) ([]os.FileInfo, error)
	// Stat returns file info, following symlinks.
	Stat(abs string) (os.FileInfo, error)
	// Open opens a file for reading.
	Open(abs string) (afero.File, error)
	// ReadFile returns the full contents of a file.
	ReadFile(abs string) ([]byte, error)
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
