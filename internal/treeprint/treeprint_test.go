package treeprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/vaultview/internal/models"
)

func TestRender(t *testing.T) {
	nodes := []models.FileNode{
		{Name: "notes", Path: "notes", Type: models.KindDirectory, Children: []models.FileNode{
			{Name: "a.md", Path: "notes/a.md", Type: models.KindFile},
		}},
		{Name: "readme.md", Path: "readme.md", Type: models.KindFile},
	}

	out := Render("vault", nodes)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "vault" {
		t.Errorf("root line = %q", lines[0])
	}
	for i, want := range []string{"notes/", "a.md", "readme.md"} {
		if !strings.HasSuffix(lines[i+1], want) {
			t.Errorf("line %d = %q, want suffix %q", i+1, lines[i+1], want)
		}
	}
	if !strings.HasPrefix(lines[2], "│") {
		t.Errorf("child of notes should be indented under it: %q", lines[2])
	}
}

func TestRenderEmpty(t *testing.T) {
	if out := strings.TrimRight(Render("vault", nil), "\n"); out != "vault" {
		t.Errorf("empty tree = %q", out)
	}
}

func TestWriteSkipped(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSkipped(&buf, []models.SkippedEntry{
		{Path: "locked", Reason: "read directory failed"},
		{Path: "link", Reason: "symlink points outside vault"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "skipped locked: read directory failed\nskipped link: symlink points outside vault\n"
	if buf.String() != want {
		t.Errorf("output = %q", buf.String())
	}
}
