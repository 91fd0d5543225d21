package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keygate-labs/keygate/internal/domain"
)

func newTestStorage(t *testing.T) *LocalFileStorage {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "loader.bin"), []byte("protected bytes"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "nested"), 0o700))

	store, err := NewLocalFileStorage(root)
	require.NoError(t, err)
	return store
}

func TestLocalStorageStatAndOpen(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	ctx := context.Background()

	info, err := store.Stat(ctx, "loader.bin")
	require.NoError(t, err)
	require.Equal(t, "loader.bin", info.Name)
	require.Equal(t, int64(len("protected bytes")), info.Size)

	reader, err := store.Open(ctx, "loader.bin")
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "protected bytes", string(body))
}

func TestLocalStorageMissingFile(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.Stat(ctx, "missing.bin")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Open(ctx, "missing.bin")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Directories are not downloadable.
	_, err = store.Stat(ctx, "nested")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStorageRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"../loader.bin", "nested/loader.bin", `..\loader.bin`, ".", ".."} {
		_, err := store.Stat(ctx, id)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "id %q", id)
	}
}

func TestNewLocalFileStorageValidatesRoot(t *testing.T) {
	t.Parallel()

	_, err := NewLocalFileStorage(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
