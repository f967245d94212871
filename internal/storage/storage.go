// Package storage holds the payload backends for post documents and images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"blogpost/internal/config"
	"blogpost/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound is returned by Download when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey rejects keys that could escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectInfo describes a stored payload.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Backend stores opaque payloads under slash-separated keys.
// Delete of a missing key is not an error.
type Backend interface {
	Name() string
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by STORAGE_BACKEND, wrapped with metrics.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.StorageBackend {
	case "memory":
		b = NewMemory()
	case "", "fs":
		b, err = NewFS(cfg.StorageFSRoot)
	case "s3":
		b, err = NewS3(ctx, S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(b), nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// NewKey returns a unique key under prefix that keeps a sanitized extension of filename,
// e.g. "images/2025/10/10/8f14e45f-....png".
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	ext = unsafeChars.ReplaceAllString(ext, "")
	if len(ext) > 10 {
		ext = ""
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

// ValidateKey rejects empty, absolute and parent-relative keys.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

type instrumented struct {
	Backend
}

// Instrument counts every backend call in the storage operations metric.
func Instrument(b Backend) Backend {
	if _, ok := b.(instrumented); ok {
		return b
	}
	return instrumented{Backend: b}
}

func (i instrumented) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, span := observability.ClientSpan(ctx, "storage", "upload", attribute.String("storage.backend", i.Name()))
	defer span.End()

	err := i.Backend.Upload(ctx, key, r, contentType)
	span.SetError(err)
	observability.RecordStorage(i.Name(), "upload", err)
	return err
}

func (i instrumented) Download(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	ctx, span := observability.ClientSpan(ctx, "storage", "download", attribute.String("storage.backend", i.Name()))
	defer span.End()

	rc, info, err := i.Backend.Download(ctx, key)
	if errors.Is(err, ErrNotFound) {
		observability.RecordStorage(i.Name(), "download", nil)
	} else {
		span.SetError(err)
		observability.RecordStorage(i.Name(), "download", err)
	}
	return rc, info, err
}

func (i instrumented) Delete(ctx context.Context, key string) error {
	ctx, span := observability.ClientSpan(ctx, "storage", "delete", attribute.String("storage.backend", i.Name()))
	defer span.End()

	err := i.Backend.Delete(ctx, key)
	span.SetError(err)
	observability.RecordStorage(i.Name(), "delete", err)
	return err
}
