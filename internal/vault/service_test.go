package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/storage"
	"github.com/starford/vaultview/internal/testutil"
)

func TestCheckRoot(t *testing.T) {
	root, store := testutil.TestVault(t, nil)
	svc := NewService(store)
	assert.NoError(t, svc.CheckRoot(), "empty vault is readable")
	assert.Equal(t, root, svc.Root())

	require.NoError(t, os.RemoveAll(root))
	assert.ErrorIs(t, svc.CheckRoot(), apperr.ErrVaultUnavailable)
}

func TestCheckRootNotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vault")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	store, err := storage.NewFS(file)
	require.NoError(t, err)

	assert.ErrorIs(t, NewService(store).CheckRoot(), apperr.ErrVaultUnavailable)
}

func TestCheckRootUnreadable(t *testing.T) {
	ffs, svc := memVault(t, map[string]string{"a.md": "a"})
	ffs.failOpen["/vault"] = true
	assert.ErrorIs(t, svc.CheckRoot(), apperr.ErrVaultUnavailable)
}
