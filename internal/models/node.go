// Package models defines the domain types for the vault service.
package models

// Node kinds.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// FileNode is one entry in the vault tree. Path is relative to the vault
// root and always uses forward slashes.
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"`
	Children []FileNode `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n FileNode) IsDir() bool {
	return n.Type == KindDirectory
}

// SkippedEntry records a vault entry the tree walk could not include.
type SkippedEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
