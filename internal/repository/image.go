package repository

import (
	"context"

	"blogpost/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines storage operations for blog post image metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *models.BlogPostImage) error
	ListByPost(ctx context.Context, postID uint) ([]models.BlogPostImage, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.BlogPostImage) error {
	return internal(r.db.WithContext(ctx).Create(image).Error)
}

// ListByPost returns the post's images in creation order.
func (r *imageRepository) ListByPost(ctx context.Context, postID uint) ([]models.BlogPostImage, error) {
	images := make([]models.BlogPostImage, 0)
	err := r.db.WithContext(ctx).
		Where("blog_post_id = ?", postID).
		Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, internal(err)
	}
	return images, nil
}
