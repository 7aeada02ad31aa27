package vault

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/checksum"
	"github.com/starford/vaultview/internal/testutil"
)

func TestGetFileMarkdown(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	f, err := svc.GetFile(context.Background(), "notes/a.md")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, Markdown, f.Category)
	assert.Equal(t, "text/markdown", f.MIME)
	assert.Equal(t, testutil.SpecimenVault["notes/a.md"], f.Content)
	assert.Equal(t, checksum.Sum([]byte(f.Content)), f.Checksum)
	assert.Equal(t, "notes/a.md", f.Path)
	assert.Equal(t, "a.md", f.Name)
	assert.Nil(t, f.Body)
}

func TestGetFileMarkdownNormalizesPath(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	for _, p := range []string{"./notes/a.md", `notes\a.md`, "/notes/a.md", "assets/../notes/a.md"} {
		f, err := svc.GetFile(context.Background(), p)
		require.NoError(t, err, "path %q", p)
		assert.Equal(t, "notes/a.md", f.Path)
	}
}

func TestGetFileInvalidUTF8Replaced(t *testing.T) {
	_, store := testutil.TestVault(t, map[string]string{"bad.md": "ok \xff\xfe end"})
	f, err := NewService(store).GetFile(context.Background(), "bad.md")
	require.NoError(t, err)
	assert.Equal(t, "ok \uFFFD end", f.Content)
}

func TestGetFileImageStreamsExactBytes(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	f, err := svc.GetFile(context.Background(), "assets/pic.png")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, Image, f.Category)
	assert.Equal(t, "image/png", f.MIME)
	require.NotNil(t, f.Body)
	assert.Empty(t, f.Content)

	data, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte(testutil.SpecimenVault["assets/pic.png"]), data)
	assert.Equal(t, int64(len(data)), f.Size)
}

func TestGetFileUnsupportedNeverOpened(t *testing.T) {
	ffs, svc := memVault(t, map[string]string{"notes/data.xlsx": "PK"})
	ffs.failOpen["/vault/notes/data.xlsx"] = true

	_, err := svc.GetFile(context.Background(), "notes/data.xlsx")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
	assert.NotContains(t, ffs.opened, "/vault/notes/data.xlsx")
}

func TestGetFileDirectoryUnsupported(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	_, err := NewService(store).GetFile(context.Background(), "notes")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
}

func TestGetFileNotFound(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	for _, p := range []string{"notes/missing.md", "nope/pic.png", "notes/a.md/child.md"} {
		_, err := svc.GetFile(context.Background(), p)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "path %q", p)
	}
}

func TestGetFileEscapeForbidden(t *testing.T) {
	root, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	// Forbidden whether or not the target exists.
	_, err := svc.GetFile(context.Background(), "../outside.md")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(root), "outside.md"), []byte("x"), 0o644))
	_, err = svc.GetFile(context.Background(), "../outside.md")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.GetFile(context.Background(), "notes/../../vault2/a.md")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.NotContains(t, apperr.Message(err), root)
}

func TestGetFileEmptyPath(t *testing.T) {
	_, store := testutil.TestVault(t, nil)
	_, err := NewService(store).GetFile(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestGetFileReadFailureIsInternal(t *testing.T) {
	ffs, svc := memVault(t, map[string]string{"a.md": "a", "b.png": "b"})
	ffs.failOpen["/vault/a.md"] = true
	ffs.failOpen["/vault/b.png"] = true

	_, err := svc.GetFile(context.Background(), "a.md")
	assert.ErrorIs(t, err, apperr.ErrInternal)
	_, err = svc.GetFile(context.Background(), "b.png")
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestGetFileStatFailureIsInternal(t *testing.T) {
	ffs, svc := memVault(t, map[string]string{"a.md": "a"})
	ffs.failStat["/vault/a.md"] = true

	_, err := svc.GetFile(context.Background(), "a.md")
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestGetFileImageVerification(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"
	_, store := testutil.TestVault(t, map[string]string{
		"real.png": png,
		"fake.png": "plain text pretending to be an image",
	})
	svc := NewService(store, WithImageVerification(true))

	f, err := svc.GetFile(context.Background(), "real.png")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, png, string(data), "body must be rewound after sniffing")

	_, err = svc.GetFile(context.Background(), "fake.png")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
}

func TestGetFileConcurrent(t *testing.T) {
	_, store := testutil.TestVault(t, testutil.SpecimenVault)
	svc := NewService(store)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f, err := svc.GetFile(context.Background(), "assets/pic.png")
			if err != nil {
				errs <- err
				return
			}
			_, _ = io.Copy(io.Discard, f.Body)
			errs <- f.Close()
		}()
		go func() {
			defer wg.Done()
			_, err := svc.BuildTree(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
