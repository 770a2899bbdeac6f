package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type StoredMedia struct {
	Path string
	URL  string
	Kind types.MediaKind
	Size int64
}

// MediaStore keeps uploaded files on the local filesystem.
type MediaStore interface {
	Save(ctx context.Context, filename string, contentType string, r io.Reader) (*StoredMedia, error)
	Dir() string
}

type MediaStoreConfig struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

type localMediaStore struct {
	log *logger.Logger
	cfg MediaStoreConfig
}

func NewLocalMediaStore(baseLog *logger.Logger, cfg MediaStoreConfig) (MediaStore, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("media dir required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir media dir: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 200 << 20
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "/media"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &localMediaStore{
		log: baseLog.With("service", "MediaStore"),
		cfg: cfg,
	}, nil
}

func (s *localMediaStore) Dir() string { return s.cfg.Dir }

func (s *localMediaStore) Save(ctx context.Context, filename string, contentType string, r io.Reader) (*StoredMedia, error) {
	kind, ok := MediaKindFor(filename, contentType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported media type %q", errors.ErrInvalidArgument, contentType)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	path := filepath.Join(s.cfg.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(r, s.cfg.MaxBytes+1))
	closeErr := f.Close()
	if copyErr == nil && n > s.cfg.MaxBytes {
		copyErr = fmt.Errorf("%w: file exceeds %d bytes", errors.ErrInvalidArgument, s.cfg.MaxBytes)
	}
	if copyErr == nil && n == 0 {
		copyErr = fmt.Errorf("%w: empty file", errors.ErrInvalidArgument)
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.log.Warn("Failed to remove partial upload", "path", path, "error", rmErr)
		}
		return nil, copyErr
	}

	return &StoredMedia{
		Path: path,
		URL:  s.cfg.BaseURL + "/" + name,
		Kind: kind,
		Size: n,
	}, nil
}

var mediaExtKinds = map[string]types.MediaKind{
	".jpg":  types.MediaImage,
	".jpeg": types.MediaImage,
	".png":  types.MediaImage,
	".gif":  types.MediaImage,
	".webp": types.MediaImage,
	".heic": types.MediaImage,
	".mp4":  types.MediaVideo,
	".mov":  types.MediaVideo,
	".webm": types.MediaVideo,
	".mkv":  types.MediaVideo,
	".avi":  types.MediaVideo,
	".3gp":  types.MediaVideo,
}

// MediaKindFor classifies an upload by content type, then by extension.
func MediaKindFor(filename string, contentType string) (types.MediaKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return types.MediaImage, true
	case strings.HasPrefix(ct, "video/"):
		return types.MediaVideo, true
	}
	kind, ok := mediaExtKinds[strings.ToLower(filepath.Ext(filename))]
	return kind, ok
}
