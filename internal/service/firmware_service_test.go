package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwportal/internal/config"
	"github.com/fwforge/fwportal/internal/filestore"
	"github.com/fwforge/fwportal/internal/model"
	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
)

type memFirmwareStore struct {
	items map[string]*model.FirmwareArtifact
	gets  int
}

func newMemFirmwareStore() *memFirmwareStore {
	return &memFirmwareStore{items: map[string]*model.FirmwareArtifact{}}
}

func (m *memFirmwareStore) Create(ctx context.Context, fw *model.FirmwareArtifact) error {
	copied := *fw
	m.items[fw.ID] = &copied
	return nil
}

func (m *memFirmwareStore) GetByID(ctx context.Context, id string) (*model.FirmwareArtifact, error) {
	m.gets++
	fw, ok := m.items[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *fw
	return &copied, nil
}

func (m *memFirmwareStore) List(ctx context.Context, channel string) ([]*model.FirmwareArtifact, error) {
	var out []*model.FirmwareArtifact
	for _, fw := range m.items {
		if channel == "" || fw.Channel == channel {
			copied := *fw
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memFirmwareStore) Update(ctx context.Context, id string, update map[string]interface{}) error {
	fw, ok := m.items[id]
	if !ok {
		return appErr.ErrNotFound
	}
	if v, ok := update["channel"].(string); ok {
		fw.Channel = v
	}
	if v, ok := update["release_notes"].(string); ok {
		fw.ReleaseNotes = v
	}
	if v, ok := update["mtime"].(int64); ok {
		fw.Mtime = v
	}
	return nil
}

func (m *memFirmwareStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return appErr.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newTestFirmwareService(t *testing.T) (*FirmwareService, *memFirmwareStore, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	metadata := newMemFirmwareStore()
	return NewFirmwareService(metadata, files), metadata, dir
}

func openTempArtifact(t *testing.T, content []byte) filestore.ReadSeekCloser {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFirmwareUpload(t *testing.T) {
	svc, metadata, dir := newTestFirmwareService(t)
	content := []byte("firmware image v1.2.3")
	r := openTempArtifact(t, content)

	fw, err := svc.Upload(context.Background(), "admin@example.com", UploadParams{
		Name:     "sensor-hub",
		Version:  "1.2.3",
		Filename: "sensor-hub.bin",
	}, r, int64(len(content)))
	require.NoError(t, err)
	require.Equal(t, "stable", fw.Channel)
	require.Equal(t, int64(len(content)), fw.Size)
	require.Equal(t, "admin@example.com", fw.UploadedBy)

	sum := sha256.Sum256(content)
	require.Equal(t, hex.EncodeToString(sum[:]), fw.Checksum)

	stored, err := os.ReadFile(filepath.Join(dir, fw.FileKey))
	require.NoError(t, err)
	require.Equal(t, content, stored)

	got, err := metadata.GetByID(context.Background(), fw.ID)
	require.NoError(t, err)
	require.Equal(t, fw.Checksum, got.Checksum)
}

func TestFirmwareUpload_RequiresNameAndVersion(t *testing.T) {
	svc, _, _ := newTestFirmwareService(t)
	r := openTempArtifact(t, []byte("x"))
	_, err := svc.Upload(context.Background(), "admin@example.com", UploadParams{Name: "only-name"}, r, 1)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestFirmwareDeleteRemovesBinary(t *testing.T) {
	svc, _, dir := newTestFirmwareService(t)
	r := openTempArtifact(t, []byte("payload"))
	fw, err := svc.Upload(context.Background(), "admin@example.com", UploadParams{Name: "n", Version: "1"}, r, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), fw.ID))

	_, err = svc.Get(context.Background(), fw.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = os.Stat(filepath.Join(dir, fw.FileKey))
	require.True(t, os.IsNotExist(err))
}

func TestRenderNotes_CachesUntilUpdate(t *testing.T) {
	svc, metadata, _ := newTestFirmwareService(t)
	r := openTempArtifact(t, []byte("payload"))
	fw, err := svc.Upload(context.Background(), "admin@example.com", UploadParams{
		Name:         "n",
		Version:      "1",
		ReleaseNotes: "# Fixes\n\n- boot loop",
	}, r, 7)
	require.NoError(t, err)

	html, err := svc.RenderNotes(context.Background(), fw.ID)
	require.NoError(t, err)
	require.Contains(t, html, "<h1")
	require.Contains(t, html, "boot loop")

	getsAfterFirst := metadata.gets
	cached, err := svc.RenderNotes(context.Background(), fw.ID)
	require.NoError(t, err)
	require.Equal(t, html, cached)
	// The metadata lookup still happens; the markdown conversion is
	// what the cache skips, keyed by the notes content.
	require.Equal(t, getsAfterFirst+1, metadata.gets)

	notes := "changed"
	updated, err := svc.Update(context.Background(), fw.ID, UpdateParams{ReleaseNotes: &notes})
	require.NoError(t, err)

	html, err = svc.RenderNotes(context.Background(), updated.ID)
	require.NoError(t, err)
	require.Contains(t, html, "changed")
}

func TestBuildFileKey(t *testing.T) {
	require.Equal(t, "abc.bin", buildFileKey("abc", "firmware.BIN"))
	require.Equal(t, "abc", buildFileKey("abc", "no-extension"))
	require.Equal(t, "abc", buildFileKey("abc", ""))
}
