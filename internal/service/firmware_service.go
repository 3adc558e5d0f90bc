package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	rendererhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/fwforge/fwportal/internal/filestore"
	"github.com/fwforge/fwportal/internal/model"
	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
	"github.com/fwforge/fwportal/internal/pkg/timeutil"
)

const (
	notesCacheSize = 256
	notesCacheTTL  = time.Hour
)

type UploadParams struct {
	Name         string
	Version      string
	Channel      string
	ReleaseNotes string
	Filename     string
}

type UpdateParams struct {
	Channel      *string
	ReleaseNotes *string
}

// FirmwareStore is the metadata persistence contract; satisfied by
// repo.FirmwareRepo.
type FirmwareStore interface {
	Create(ctx context.Context, fw *model.FirmwareArtifact) error
	GetByID(ctx context.Context, id string) (*model.FirmwareArtifact, error)
	List(ctx context.Context, channel string) ([]*model.FirmwareArtifact, error)
	Update(ctx context.Context, id string, update map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type FirmwareService struct {
	firmware   FirmwareStore
	files      filestore.Store
	md         goldmark.Markdown
	notesCache *expirable.LRU[string, string]
}

func NewFirmwareService(firmware FirmwareStore, files filestore.Store) *FirmwareService {
	return &FirmwareService{
		firmware: firmware,
		files:    files,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(rendererhtml.WithHardWraps()),
		),
		notesCache: expirable.NewLRU[string, string](notesCacheSize, nil, notesCacheTTL),
	}
}

// Upload streams the binary into the file store and records its
// metadata. The checksum is computed from the same reader before it is
// handed to the store.
func (s *FirmwareService) Upload(ctx context.Context, uploadedBy string, params UploadParams, r filestore.ReadSeekCloser, size int64) (*model.FirmwareArtifact, error) {
	if params.Name == "" || params.Version == "" {
		return nil, appErr.ErrInvalid
	}
	if params.Channel == "" {
		params.Channel = "stable"
	}
	checksum, err := checksumReader(r)
	if err != nil {
		return nil, err
	}
	id := newID()
	key := buildFileKey(id, params.Filename)
	if err := s.files.Save(ctx, key, r, size); err != nil {
		logutil.GetLogger(ctx).Error("firmware upload failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	now := timeutil.NowUnix()
	fw := &model.FirmwareArtifact{
		ID:           id,
		Name:         params.Name,
		Version:      params.Version,
		Channel:      params.Channel,
		Checksum:     checksum,
		Size:         size,
		FileKey:      key,
		ReleaseNotes: params.ReleaseNotes,
		UploadedBy:   uploadedBy,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.firmware.Create(ctx, fw); err != nil {
		_ = s.files.Delete(ctx, key)
		return nil, err
	}
	return fw, nil
}

func (s *FirmwareService) Get(ctx context.Context, id string) (*model.FirmwareArtifact, error) {
	return s.firmware.GetByID(ctx, id)
}

func (s *FirmwareService) List(ctx context.Context, channel string) ([]*model.FirmwareArtifact, error) {
	return s.firmware.List(ctx, channel)
}

func (s *FirmwareService) Update(ctx context.Context, id string, params UpdateParams) (*model.FirmwareArtifact, error) {
	update := map[string]interface{}{}
	if params.Channel != nil {
		update["channel"] = *params.Channel
	}
	if params.ReleaseNotes != nil {
		update["release_notes"] = *params.ReleaseNotes
	}
	if len(update) == 0 {
		return s.firmware.GetByID(ctx, id)
	}
	update["mtime"] = timeutil.NowUnix()
	if err := s.firmware.Update(ctx, id, update); err != nil {
		return nil, err
	}
	return s.firmware.GetByID(ctx, id)
}

func (s *FirmwareService) Delete(ctx context.Context, id string) error {
	fw, err := s.firmware.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.firmware.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, fw.FileKey); err != nil {
		logutil.GetLogger(ctx).Warn("firmware binary cleanup failed", zap.String("key", fw.FileKey), zap.Error(err))
	}
	return nil
}

// RenderNotes converts the artifact's markdown release notes to HTML.
// Rendered output is cached keyed by the notes content, so an update
// invalidates naturally and stale entries age out.
func (s *FirmwareService) RenderNotes(ctx context.Context, id string) (string, error) {
	fw, err := s.firmware.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256([]byte(fw.ReleaseNotes))
	cacheKey := fmt.Sprintf("%s:%s", fw.ID, hex.EncodeToString(digest[:8]))
	if html, ok := s.notesCache.Get(cacheKey); ok {
		return html, nil
	}
	var out bytes.Buffer
	if err := s.md.Convert([]byte(fw.ReleaseNotes), &out); err != nil {
		return "", err
	}
	html := out.String()
	s.notesCache.Add(cacheKey, html)
	return html, nil
}

func checksumReader(r filestore.ReadSeekCloser) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func buildFileKey(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return id + ext
}
