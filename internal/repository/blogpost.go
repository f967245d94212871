package repository

import (
	"context"
	"fmt"
	"time"

	"blogpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Orderings accepted by ListVisible.
const (
	OrderByOrder         = "order"
	OrderByOrderDesc     = "-order"
	OrderByCreatedAt     = "created_at"
	OrderByCreatedAtDesc = "-created_at"
)

var orderingClauses = map[string]string{
	OrderByOrder:         "display_order ASC, id ASC",
	OrderByOrderDesc:     "display_order DESC, id DESC",
	OrderByCreatedAt:     "created_at ASC, id ASC",
	OrderByCreatedAtDesc: "created_at DESC, id DESC",
}

// ValidOrdering reports whether ListVisible understands ordering.
func ValidOrdering(ordering string) bool {
	_, ok := orderingClauses[ordering]
	return ok
}

// Flag columns toggled by SetFlag.
const (
	FlagPublished = "published"
	FlagArchived  = "archived"
)

// BlogPostRepository defines persistence operations for blog posts and their author links.
type BlogPostRepository interface {
	Create(ctx context.Context, post *models.BlogPost, authorIDs []uint, fallback *models.Author) error
	GetByID(ctx context.Context, id uint) (*models.BlogPost, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}) (*models.BlogPost, error)
	SetFlag(ctx context.Context, id uint, flag string) error
	MarkDeleted(ctx context.Context, id uint, at time.Time) error
	SetDocument(ctx context.Context, id uint, doc models.Document) error
	ListVisible(ctx context.Context, ordering string, limit, offset int) ([]models.BlogPost, int64, error)
	ListByPublished(ctx context.Context, published bool) ([]models.BlogPost, error)
	AddAuthor(ctx context.Context, postID, authorID uint) error
	RemoveAuthor(ctx context.Context, postID, authorID uint) error
	ListAuthors(ctx context.Context, postID uint) ([]models.Author, error)
	NextOrder(ctx context.Context) (int64, error)
}

type blogPostRepository struct {
	db *gorm.DB
}

// NewBlogPostRepository returns a new BlogPostRepository implementation.
func NewBlogPostRepository(db *gorm.DB) BlogPostRepository {
	return &blogPostRepository{db: db}
}

func preloadAuthors(db *gorm.DB) *gorm.DB {
	return db.Order("authors.id ASC")
}

func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Order("blog_post_images.id ASC")
}

// duplicateLive reports whether a non-deleted post other than excludeID already uses title and text.
func duplicateLive(tx *gorm.DB, title, text string, excludeID uint) (bool, error) {
	q := tx.Model(&models.BlogPost{}).
		Where("title = ? AND text = ? AND deleted = ?", title, text, false)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func errDuplicatePost() error {
	return models.NewValidationError("a blog post with this title and text already exists")
}

// nextOrder increments the named sequence row and returns the new value.
// The row lock taken by UPDATE serializes concurrent callers until their transaction ends.
func nextOrder(tx *gorm.DB, name string) (int64, error) {
	var value int64
	res := tx.Raw("UPDATE order_sequences SET value = value + 1 WHERE name = ? RETURNING value", name).Scan(&value)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		return value, nil
	}

	seq := models.OrderSequence{Name: name, Value: 1}
	if err := tx.Create(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Create inserts post with its author links in one transaction. When authorIDs is empty
// fallback is inserted and linked instead. post.Order is drawn from the sequence unless preset.
func (r *blogPostRepository) Create(ctx context.Context, post *models.BlogPost, authorIDs []uint, fallback *models.Author) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := duplicateLive(tx, post.Title, post.Text, 0)
		if err != nil {
			return internal(err)
		}
		if dup {
			return errDuplicatePost()
		}

		if post.Order == 0 {
			order, err := nextOrder(tx, models.BlogPostOrderSequence)
			if err != nil {
				return internal(err)
			}
			post.Order = order
		}

		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicatePost()
			}
			return internal(err)
		}

		authors := make([]models.Author, 0, len(authorIDs))
		if ids := uniqueIDs(authorIDs); len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&authors).Error; err != nil {
				return internal(err)
			}
			if len(authors) != len(ids) {
				return models.NewValidationError("one or more authors do not exist")
			}
		} else {
			if fallback == nil {
				return models.NewValidationError("a blog post needs at least one author")
			}
			if err := tx.Create(fallback).Error; err != nil {
				return internal(err)
			}
			authors = append(authors, *fallback)
		}

		for _, a := range authors {
			link := models.BlogPostAuthor{BlogPostID: post.ID, AuthorID: a.ID}
			if err := tx.Create(&link).Error; err != nil {
				return internal(err)
			}
		}
		post.Authors = authors
		return nil
	})
}

func (r *blogPostRepository) GetByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Authors", preloadAuthors).
		Preload("Images", preloadImages).
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "BlogPost", id)
	}
	return &post, nil
}

// Update applies column changes, re-checking (title, text) uniqueness when either changes.
func (r *blogPostRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) (*models.BlogPost, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.BlogPost
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return notFoundOr(err, "BlogPost", id)
		}

		title, titleChanged := changes["title"].(string)
		text, textChanged := changes["text"].(string)
		if (titleChanged && title != current.Title) || (textChanged && text != current.Text) {
			if !titleChanged {
				title = current.Title
			}
			if !textChanged {
				text = current.Text
			}
			if !current.Deleted {
				dup, err := duplicateLive(tx, title, text, id)
				if err != nil {
					return internal(err)
				}
				if dup {
					return errDuplicatePost()
				}
			}
		}

		changes["updated_at"] = time.Now()
		if err := tx.Model(&current).Omit(clause.Associations).Updates(changes).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicatePost()
			}
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetFlag sets a boolean flag column to true. Already-set rows are left untouched.
func (r *blogPostRepository) SetFlag(ctx context.Context, id uint, flag string) error {
	switch flag {
	case FlagPublished, FlagArchived:
	default:
		return models.NewInternalError(fmt.Errorf("unknown flag %q", flag))
	}
	err := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ? AND "+flag+" = ?", id, false).
		Updates(map[string]interface{}{flag: true, "updated_at": time.Now()}).Error
	return internal(err)
}

// MarkDeleted flags the post deleted. deleted_at keeps the first deletion time.
func (r *blogPostRepository) MarkDeleted(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": at, "updated_at": at}).Error
	return internal(err)
}

func (r *blogPostRepository) SetDocument(ctx context.Context, id uint, doc models.Document) error {
	res := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"document_key":          doc.Key,
			"document_filename":     doc.Filename,
			"document_content_type": doc.ContentType,
			"document_size":         doc.Size,
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("BlogPost", id)
	}
	return nil
}

func (r *blogPostRepository) ListVisible(ctx context.Context, ordering string, limit, offset int) ([]models.BlogPost, int64, error) {
	orderClause, ok := orderingClauses[ordering]
	if !ok {
		orderClause = orderingClauses[OrderByOrder]
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("deleted = ?", false).Count(&total).Error; err != nil {
		return nil, 0, internal(err)
	}

	posts := make([]models.BlogPost, 0)
	err := r.db.WithContext(ctx).
		Preload("Authors", preloadAuthors).
		Where("deleted = ?", false).
		Order(orderClause).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, internal(err)
	}
	return posts, total, nil
}

// ListByPublished returns every visible post with the given published state, ordered by order.
func (r *blogPostRepository) ListByPublished(ctx context.Context, published bool) ([]models.BlogPost, error) {
	posts := make([]models.BlogPost, 0)
	err := r.db.WithContext(ctx).
		Preload("Authors", preloadAuthors).
		Where("deleted = ? AND published = ?", false, published).
		Order(orderingClauses[OrderByOrder]).
		Find(&posts).Error
	if err != nil {
		return nil, internal(err)
	}
	return posts, nil
}

// AddAuthor links an existing author to the post. Linking twice is a no-op.
func (r *blogPostRepository) AddAuthor(ctx context.Context, postID, authorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.Author
		if err := tx.First(&author, authorID).Error; err != nil {
			return notFoundOr(err, "Author", authorID)
		}
		link := models.BlogPostAuthor{BlogPostID: postID, AuthorID: authorID}
		return internal(tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error)
	})
}

// RemoveAuthor unlinks an author. The post row is locked so concurrent removals
// cannot leave it without authors.
func (r *blogPostRepository) RemoveAuthor(ctx context.Context, postID, authorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.BlogPost
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, postID).Error; err != nil {
			return notFoundOr(err, "BlogPost", postID)
		}

		var links []models.BlogPostAuthor
		if err := tx.Where("blog_post_id = ?", postID).Find(&links).Error; err != nil {
			return internal(err)
		}

		linked := false
		for _, l := range links {
			if l.AuthorID == authorID {
				linked = true
				break
			}
		}
		if !linked {
			return models.NewNotFoundError("Author on BlogPost", authorID)
		}
		if len(links) <= 1 {
			return models.NewValidationError("a blog post must keep at least one author")
		}

		err := tx.Where("blog_post_id = ? AND author_id = ?", postID, authorID).
			Delete(&models.BlogPostAuthor{}).Error
		return internal(err)
	})
}

// ListAuthors returns the post's authors in the order they were linked.
func (r *blogPostRepository) ListAuthors(ctx context.Context, postID uint) ([]models.Author, error) {
	authors := make([]models.Author, 0)
	err := r.db.WithContext(ctx).
		Select("authors.*").
		Joins("JOIN blog_post_authors ON blog_post_authors.author_id = authors.id").
		Where("blog_post_authors.blog_post_id = ?", postID).
		Order("blog_post_authors.created_at ASC, authors.id ASC").
		Find(&authors).Error
	if err != nil {
		return nil, internal(err)
	}
	return authors, nil
}

// NextOrder draws one value from the post order sequence in its own transaction.
func (r *blogPostRepository) NextOrder(ctx context.Context) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := nextOrder(tx, models.BlogPostOrderSequence)
		value = v
		return err
	})
	if err != nil {
		return 0, internal(err)
	}
	return value, nil
}
