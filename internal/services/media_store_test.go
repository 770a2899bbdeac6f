package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	apperrors "github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

func TestMediaKindFor(t *testing.T) {
	cases := []struct {
		filename, contentType string
		want                  types.MediaKind
		ok                    bool
	}{
		{"a.bin", "image/jpeg", types.MediaImage, true},
		{"a.bin", "video/mp4", types.MediaVideo, true},
		{"clip.MOV", "application/octet-stream", types.MediaVideo, true},
		{"photo.HEIC", "", types.MediaImage, true},
		{"notes.txt", "text/plain", "", false},
	}
	for _, tc := range cases {
		got, ok := MediaKindFor(tc.filename, tc.contentType)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("MediaKindFor(%q,%q): want=(%s,%v) got=(%s,%v)", tc.filename, tc.contentType, tc.want, tc.ok, got, ok)
		}
	}
}

func TestLocalMediaStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalMediaStore(logger.Nop(), MediaStoreConfig{Dir: dir, BaseURL: "https://cdn.example.org/media/", MaxBytes: 16})
	if err != nil {
		t.Fatalf("NewLocalMediaStore: %v", err)
	}
	ctx := context.Background()

	got, err := store.Save(ctx, "Smile.JPG", "", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.Kind != types.MediaImage || got.Size != 8 {
		t.Fatalf("Save: want image/8 got=%s/%d", got.Kind, got.Size)
	}
	if filepath.Dir(got.Path) != dir || filepath.Ext(got.Path) != ".jpg" {
		t.Fatalf("Save path: got=%s", got.Path)
	}
	if !strings.HasPrefix(got.URL, "https://cdn.example.org/media/") || !strings.HasSuffix(got.URL, filepath.Base(got.Path)) {
		t.Fatalf("Save url: got=%s", got.URL)
	}
	if data, _ := os.ReadFile(got.Path); string(data) != "jpegdata" {
		t.Fatalf("stored bytes: got=%q", data)
	}

	if _, err := store.Save(ctx, "big.mp4", "video/mp4", bytes.NewReader(make([]byte, 17))); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("Save(oversize): want ErrInvalidArgument got=%v", err)
	}
	if _, err := store.Save(ctx, "empty.png", "image/png", strings.NewReader("")); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("Save(empty): want ErrInvalidArgument got=%v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("media dir: want only the first upload got=%d entries", len(entries))
	}
}
