// Package treeprint draws a vault tree as indented text for terminals.
package treeprint

import (
	"fmt"
	"io"

	"github.com/disiqueira/gotree/v3"

	"github.com/starford/vaultview/internal/models"
)

// Render returns nodes drawn beneath rootLabel.
func Render(rootLabel string, nodes []models.FileNode) string {
	tree := gotree.New(rootLabel)
	addNodes(tree, nodes)
	return tree.Print()
}

func addNodes(parent gotree.Tree, nodes []models.FileNode) {
	for _, n := range nodes {
		if n.IsDir() {
			addNodes(parent.Add(n.Name+"/"), n.Children)
			continue
		}
		parent.Add(n.Name)
	}
}

// WriteSkipped lists skipped entries one per line.
func WriteSkipped(w io.Writer, skipped []models.SkippedEntry) error {
	for _, s := range skipped {
		if _, err := fmt.Fprintf(w, "skipped %s: %s\n", s.Path, s.Reason); err != nil {
			return err
		}
	}
	return nil
}
