package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"estatehub/internal/config"
	"estatehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, G: 120, B: 40, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestDiskImageStore_Resolve(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskImageStore(&config.Config{UploadDir: dir, ImageMaxUploadSizeMB: 1})
	ctx := context.Background()

	url, err := store.Resolve(ctx, models.ImageUpload{Filename: "front.png", Data: pngBytes(t, 64, 48)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, UploadsURLPrefix+"/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestDiskImageStore_ResizesLargeImages(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskImageStore(&config.Config{UploadDir: dir, ImageMaxUploadSizeMB: 5})

	url, err := store.Resolve(context.Background(), models.ImageUpload{Filename: "wide.png", Data: pngBytes(t, 4096, 64)})
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, MasterMaxSize, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestDiskImageStore_Rejects(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskImageStore(&config.Config{UploadDir: dir, ImageMaxUploadSizeMB: 1})
	ctx := context.Background()

	tests := []struct {
		name   string
		upload models.ImageUpload
	}{
		{"empty", models.ImageUpload{Filename: "x.png"}},
		{"too large", models.ImageUpload{Filename: "x.png", Data: make([]byte, 2*1024*1024)}},
		{"not an image", models.ImageUpload{Filename: "notes.txt", Data: []byte("just some text")}},
		{"image extension with garbage", models.ImageUpload{Filename: "fake.png", Data: []byte("definitely not a png")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Resolve(ctx, tt.upload)
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, appCode(t, err))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewDiskImageStore_Defaults(t *testing.T) {
	store := NewDiskImageStore(nil)
	assert.Equal(t, DefaultImageUploadDir, store.Dir())
	assert.Equal(t, int64(DefaultImageMaxUploadSizeMB)*1024*1024, store.maxUploadSizeBytes)
}
