package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/asset-service/internal/config"
)

// ErrInvalidLocator is returned when a locator does not belong to the backend.
var ErrInvalidLocator = errors.New("invalid storage locator")

// Backend stores raw image bytes and hands back a locator (URL or path)
// that later identifies the object for download and deletion.
type Backend interface {
	Put(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Delete(ctx context.Context, locator string) error
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	// Remote reports whether locators are URLs (true) or local paths.
	Remote() bool
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentType maps a filename extension to its MIME type.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// GenerateObjectName builds a unique, time-prefixed name for an upload.
// The uuid fragment keeps two uploads of the same file within one second apart.
func GenerateObjectName(filename string, now time.Time) string {
	base := filepath.Base(filepath.ToSlash(filename))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s_%s_%s", now.Format("20060102_150405"), uuid.New().String()[:8], base)
}

// NewBackend returns the local backend when cfg.Storage.UseLocal is set
// and the MinIO/S3 backend otherwise.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	if cfg.Storage.UseLocal {
		return NewLocal(cfg.Storage.LocalDir)
	}
	return NewMinIO(ctx, cfg.MinIO)
}
