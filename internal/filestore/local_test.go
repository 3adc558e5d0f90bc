package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwportal/internal/config"
)

func newLocalStore(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	return store, dir
}

func openSource(t *testing.T, content []byte) ReadSeekCloser {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestLocalStore_RoundTrip(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()
	content := []byte("binary blob")

	require.NoError(t, store.Save(ctx, "key.bin", openSource(t, content), int64(len(content))))

	file, err := store.Open(ctx, "key.bin")
	require.NoError(t, err)
	defer file.Close()
	got, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, content, got)

	require.NoError(t, store.Delete(ctx, "key.bin"))
	_, err = store.Open(ctx, "key.bin")
	require.Error(t, err)
}

func TestLocalStore_RejectsPathTraversal(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	require.Error(t, store.Save(ctx, "../escape", openSource(t, []byte("x")), 1))
	_, err := store.Open(ctx, "a/b")
	require.Error(t, err)
	require.Error(t, store.Delete(ctx, `a\b`))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
