package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"blogpost/internal/middleware"
	"blogpost/internal/models"
	"blogpost/internal/observability"
	"blogpost/internal/repository"
	"blogpost/internal/storage"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	ThumbnailMaxSize = 256
	WebPQuality      = 70
	// MaxImagePixels bounds width*height before a full decode; a small payload can declare huge dimensions.
	MaxImagePixels = 40_000_000

	imageKeyPrefix     = "images"
	thumbnailKeyPrefix = "thumbnails"
)

type UploadImageInput struct {
	UserID      uint
	PostID      uint
	Filename    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	access             postAccess
	repo               repository.ImageRepository
	store              storage.Backend
	maxUploadSizeBytes int64
}

func NewImageService(
	repo repository.ImageRepository,
	posts repository.BlogPostRepository,
	users repository.UserRepository,
	store storage.Backend,
	maxUploadBytes int64,
) *ImageService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ImageService{
		access:             postAccess{posts: posts, users: users},
		repo:               repo,
		store:              store,
		maxUploadSizeBytes: maxUploadBytes,
	}
}

// Attach stores the original payload and a webp thumbnail, then records the image on the post.
func (s *ImageService) Attach(ctx context.Context, in UploadImageInput) (img *models.BlogPostImage, err error) {
	ctx, span := observability.StartSpan(ctx, "image", "attach", attribute.Int("blog_post.id", int(in.PostID)))
	defer func() { finish(span, err) }()

	if _, err := s.access.authorize(ctx, in.UserID, in.PostID); err != nil {
		return nil, err
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError(fmt.Sprintf("Image dimensions %dx%d exceed the %d pixel limit",
			cfg.Width, cfg.Height, MaxImagePixels))
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	thumb, err := encodeWebP(resizeToFit(decoded, ThumbnailMaxSize, ThumbnailMaxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	originalKey := storage.NewKey(imageKeyPrefix, in.Filename)
	thumbKey := storage.NewKey(thumbnailKeyPrefix, "thumb.webp")

	if err := s.store.Upload(ctx, originalKey, bytes.NewReader(in.Content), sourceMimeType); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.store.Upload(ctx, thumbKey, bytes.NewReader(thumb), "image/webp"); err != nil {
		s.cleanup(ctx, originalKey)
		return nil, models.NewInternalError(err)
	}

	b := decoded.Bounds()
	record := &models.BlogPostImage{
		BlogPostID:       in.PostID,
		Key:              originalKey,
		ThumbnailKey:     thumbKey,
		OriginalFilename: in.Filename,
		ContentType:      sourceMimeType,
		Width:            b.Dx(),
		Height:           b.Dy(),
		SizeBytes:        int64(len(in.Content)),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.cleanup(context.WithoutCancel(ctx), originalKey, thumbKey)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "image attached",
		slog.Uint64("post_id", uint64(in.PostID)),
		slog.Uint64("image_id", uint64(record.ID)),
		slog.String("format", format))
	return record, nil
}

// List returns the post's images in creation order. A missing post is NotFound.
func (s *ImageService) List(ctx context.Context, postID uint) ([]models.BlogPostImage, error) {
	if _, err := s.access.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListByPost(ctx, postID)
}

func (s *ImageService) cleanup(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove image payload",
				slog.String("key", k), slog.String("error", err.Error()))
		}
	}
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

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

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
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
