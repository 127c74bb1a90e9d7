package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"estatehub/internal/config"
	"estatehub/internal/middleware"
	"estatehub/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "uploads"
	DefaultImageMaxUploadSizeMB = 10
	// UploadsURLPrefix is where stored images are served from.
	UploadsURLPrefix = "/uploads"
	MasterMaxSize    = 2048
	WebPQuality      = 80
)

// DiskImageStore turns listing image uploads into hosted URLs. Every upload is
// normalized to a WebP no larger than MasterMaxSize on either edge.
type DiskImageStore struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewDiskImageStore(cfg *config.Config) *DiskImageStore {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &DiskImageStore{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir is the directory stored images are written to.
func (s *DiskImageStore) Dir() string {
	return s.uploadDir
}

// Resolve validates upload, stores it and returns its public URL.
func (s *DiskImageStore) Resolve(ctx context.Context, upload models.ImageUpload) (string, error) {
	if len(upload.Data) == 0 {
		return "", models.NewValidationError("No file uploaded", "image")
	}
	if int64(len(upload.Data)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)), "image")
	}

	detectedType := http.DetectContentType(upload.Data)
	if !isAllowedImageMIME(detectedType) && !isAllowedImageMIME(mime.TypeByExtension(filepath.Ext(upload.Filename))) {
		return "", models.NewValidationError("Invalid image type", "image")
	}

	decoded, format, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", models.NewValidationError("Invalid image file", "image")
	}
	if !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Unsupported image format", "image")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MasterMaxSize, MasterMaxSize), WebPQuality)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ".webp"
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), encoded, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "Stored listing image",
		"file", name,
		"source_format", format,
		"bytes", len(encoded),
	)
	return path.Join(UploadsURLPrefix, name), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
