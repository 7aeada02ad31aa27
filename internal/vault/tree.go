package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/models"
	"github.com/starford/vaultview/internal/storage"
)

// Skip reasons.
const (
	reasonStat          = "stat failed"
	reasonReadDir       = "read directory failed"
	reasonMaxDepth      = "max depth exceeded"
	reasonSymlinkEscape = "symlink points outside vault"
	reasonSymlinkSeen   = "symlink target already listed"
)

// TreeResult is the outcome of BuildTree.
type TreeResult struct {
	Nodes   []models.FileNode     `json:"tree"`
	Skipped []models.SkippedEntry `json:"skipped"`
}

// dirFrame is one directory on the walk stack.
type dirFrame struct {
	abs     string
	canon   string
	rel     string
	name    string
	entries []os.FileInfo
	next    int
	nodes   []models.FileNode
}

// BuildTree walks the vault and returns its notes and the directories that
// contain them, in name order. Hidden entries, non-Markdown files and
// directories without notes are left out. Failures on individual entries
// are recorded in Skipped and never abort the walk; only a missing or
// unreadable root is an error.
func (s *Service) BuildTree(ctx context.Context) (*TreeResult, error) {
	root := s.store.Root()

	info, err := s.store.Stat(root)
	if err != nil {
		return nil, apperr.VaultUnavailable(err)
	}
	if !info.IsDir() {
		return nil, apperr.VaultUnavailable(fmt.Errorf("vault: root is not a directory"))
	}
	entries, err := s.store.ReadDir(root)
	if err != nil {
		return nil, apperr.VaultUnavailable(err)
	}

	res := &TreeResult{}
	// Canonical paths of directories already entered.
	seen := map[string]struct{}{root: {}}
	stack := []*dirFrame{{abs: root, canon: root, entries: entries}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		if top.next == len(top.entries) {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				res.Nodes = top.nodes
				break
			}
			if len(top.nodes) > 0 {
				parent := stack[len(stack)-1]
				parent.nodes = append(parent.nodes, models.FileNode{
					Name:     top.name,
					Path:     top.rel,
					Type:     models.KindDirectory,
					Children: top.nodes,
				})
			}
			continue
		}

		entry := top.entries[top.next]
		top.next++

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		abs := filepath.Join(top.abs, name)
		rel, err := s.store.Rel(abs)
		if err != nil {
			res.skip(s.logger, filepath.ToSlash(filepath.Join(top.rel, name)), reasonStat, err)
			continue
		}

		info, canon, reason, err := s.entryInfo(top.canon, rel, entry, seen)
		if reason != "" {
			res.skip(s.logger, rel, reason, err)
			continue
		}

		switch {
		case info.IsDir():
			if len(stack) >= s.maxDepth {
				res.skip(s.logger, rel, reasonMaxDepth, nil)
				continue
			}
			children, err := s.store.ReadDir(abs)
			if err != nil {
				// The subtree is left out; its siblings are still listed.
				res.skip(s.logger, rel, reasonReadDir, err)
				continue
			}
			seen[canon] = struct{}{}
			stack = append(stack, &dirFrame{abs: abs, canon: canon, rel: rel, name: name, entries: children})
		case isNote(name):
			top.nodes = append(top.nodes, models.FileNode{
				Name: name,
				Path: rel,
				Type: models.KindFile,
			})
		}
	}

	if res.Nodes == nil {
		res.Nodes = []models.FileNode{}
	}
	return res, nil
}

// entryInfo returns the info to classify entry by and its canonical path.
// Symlinks are followed once their target is proven to stay inside the
// vault; a directory target that was already entered is a cycle. A
// non-empty reason means the entry must be skipped.
func (s *Service) entryInfo(parent, rel string, entry os.FileInfo, seen map[string]struct{}) (os.FileInfo, string, string, error) {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry, filepath.Join(parent, entry.Name()), "", nil
	}

	target, err := s.store.Resolve(rel)
	if err != nil {
		if errors.Is(err, storage.ErrAccessDenied) {
			return nil, "", reasonSymlinkEscape, nil
		}
		return nil, "", reasonStat, err
	}
	info, err := s.store.Stat(target)
	if err != nil {
		return nil, "", reasonStat, err
	}
	if info.IsDir() {
		if _, ok := seen[target]; ok {
			return nil, "", reasonSymlinkSeen, nil
		}
	}
	return info, target, "", nil
}

func (r *TreeResult) skip(logger *slog.Logger, rel, reason string, err error) {
	attrs := []any{slog.String("path", rel), slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.Warn("tree: entry skipped", attrs...)
	r.Skipped = append(r.Skipped, models.SkippedEntry{Path: rel, Reason: reason})
}
