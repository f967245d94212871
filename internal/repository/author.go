package repository

import (
	"context"
	"time"

	"blogpost/internal/models"

	"gorm.io/gorm"
)

// AuthorRepository defines persistence operations for authors.
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id uint) (*models.Author, error)
	List(ctx context.Context, limit, offset int) ([]models.Author, int64, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}) (*models.Author, error)
}

type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository returns a new AuthorRepository implementation.
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	return internal(r.db.WithContext(ctx).Create(author).Error)
}

func (r *authorRepository) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, notFoundOr(err, "Author", id)
	}
	return &author, nil
}

func (r *authorRepository) List(ctx context.Context, limit, offset int) ([]models.Author, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Author{}).Count(&total).Error; err != nil {
		return nil, 0, internal(err)
	}

	authors := make([]models.Author, 0)
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&authors).Error
	if err != nil {
		return nil, 0, internal(err)
	}
	return authors, total, nil
}

// Update applies column changes and returns the stored row.
func (r *authorRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) (*models.Author, error) {
	var author models.Author
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, id).Error; err != nil {
			return notFoundOr(err, "Author", id)
		}
		if len(changes) == 0 {
			return nil
		}
		changes["updated_at"] = time.Now()
		if err := tx.Model(&author).Updates(changes).Error; err != nil {
			return internal(err)
		}
		return tx.First(&author, id).Error
	})
	if err != nil {
		return nil, notFoundOr(err, "Author", id)
	}
	return &author, nil
}
