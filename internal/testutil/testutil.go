// Package testutil provides shared test helpers for building vault fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultview/internal/storage"
)

// WriteFiles creates files under root. Keys are forward-slash relative
// paths; a key ending in "/" creates an empty directory.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(abs, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestVault creates a temporary vault directory populated with files and
// returns its path with a storage.Provider rooted at it. The vault lives in
// a "vault" subdirectory so tests can place files beside it.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := filepath.Join(t.TempDir(), "vault")
	if err := os.MkdirAll(vaultDir, 0o755); err != nil {
		t.Fatal(err)
	}
	WriteFiles(t, vaultDir, files)
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// SpecimenVault is a small vault exercising every tree rule.
var SpecimenVault = map[string]string{
	"notes/a.md":       "# A\n\nSee ![[pic.png]].\n",
	"notes/.hidden.md": "hidden",
	"notes/data.xlsx":  "PK\x03\x04not really a spreadsheet",
	"assets/pic.png":   "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake",
	"empty/":           "",
	"readme.md":        "# Vault\n",
	".obsidian/app.md": "{}",
}
