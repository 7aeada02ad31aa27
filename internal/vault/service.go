// Package vault implements the read-only vault file service: building the
// note tree, classifying files and serving a single file.
package vault

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/storage"
)

// DefaultMaxDepth bounds how many directory levels BuildTree descends.
const DefaultMaxDepth = 64

// Service serves tree listings and file contents from a vault.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	store        storage.Provider
	logger       *slog.Logger
	maxDepth     int
	verifyImages bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for skipped entries and denied requests.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxDepth sets the directory depth bound for BuildTree.
func WithMaxDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithImageVerification makes GetFile sniff image content and reject files
// whose bytes are not an image.
func WithImageVerification(enabled bool) Option {
	return func(s *Service) {
		s.verifyImages = enabled
	}
}

// NewService creates a vault service over store.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the canonical vault root.
func (s *Service) Root() string {
	return s.store.Root()
}

// CheckRoot reports whether the vault root is a readable directory.
func (s *Service) CheckRoot() error {
	root := s.store.Root()
	info, err := s.store.Stat(root)
	if err != nil {
		return apperr.VaultUnavailable(err)
	}
	if !info.IsDir() {
		return apperr.VaultUnavailable(fmt.Errorf("vault: %s is not a directory", root))
	}
	f, err := s.store.Open(root)
	if err != nil {
		return apperr.VaultUnavailable(err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return apperr.VaultUnavailable(err)
	}
	return nil
}
