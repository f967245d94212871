package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"blogpost/internal/middleware"
	"blogpost/internal/models"
	"blogpost/internal/observability"
	"blogpost/internal/repository"
	"blogpost/internal/storage"
	"blogpost/internal/validation"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxUploadBytes applies when no config is supplied.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

const documentKeyPrefix = "documents"

// UploadedFile is a file received from a client.
type UploadedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CreateBlogPostInput carries the fields accepted when creating a post.
type CreateBlogPostInput struct {
	UserID    uint
	Title     string
	Text      string
	Category  *models.Category
	Website   string
	AuthorIDs []uint
	Document  *UploadedFile
	// Order presets the display order instead of drawing from the sequence. Used by seeding.
	Order int64
}

// Validate checks the post fields with ozzo-validation.
func (in CreateBlogPostInput) Validate() error {
	return ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Title, validation.TitleRules()...),
		ozzo.Field(&in.Text, validation.TextRules()...),
		ozzo.Field(&in.Category, validation.CategoryRule),
		ozzo.Field(&in.Website, validation.WebsiteRules()...),
	)
}

// UpdateBlogPostInput holds the editable fields. Nil fields are left unchanged.
type UpdateBlogPostInput struct {
	Title     *string
	Text      *string
	Category  *models.Category
	Website   *string
	Active    *bool
	Published *bool
	Archived  *bool
}

// Validate checks the supplied fields only.
func (in UpdateBlogPostInput) Validate() error {
	return ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Title, ozzo.When(in.Title != nil, validation.TitleRules()...)),
		ozzo.Field(&in.Text, ozzo.When(in.Text != nil, validation.TextRules()...)),
		ozzo.Field(&in.Category, validation.CategoryRule),
		ozzo.Field(&in.Website, ozzo.When(in.Website != nil, validation.WebsiteRules()...)),
	)
}

func (in UpdateBlogPostInput) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.Text != nil {
		changes["text"] = *in.Text
	}
	if in.Category != nil {
		changes["category"] = *in.Category
	}
	if in.Website != nil {
		changes["website"] = *in.Website
	}
	if in.Active != nil {
		changes["active"] = *in.Active
	}
	if in.Published != nil {
		changes["published"] = *in.Published
	}
	if in.Archived != nil {
		changes["archived"] = *in.Archived
	}
	return changes
}

// postAccess resolves callers and enforces the owner-or-staff rule on posts.
type postAccess struct {
	posts repository.BlogPostRepository
	users repository.UserRepository
}

// caller loads the acting user. Anonymous or unknown callers are denied.
func (a postAccess) caller(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewPermissionDeniedError("authentication credentials were not provided")
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewPermissionDeniedError("unknown user")
		}
		return nil, err
	}
	return user, nil
}

// authorize returns the post when userID owns it or is staff.
func (a postAccess) authorize(ctx context.Context, userID, postID uint) (*models.BlogPost, error) {
	user, err := a.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := a.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != user.ID && !user.IsStaff {
		return nil, models.NewPermissionDeniedError("only the owner or staff may modify this blog post")
	}
	return post, nil
}

// BlogPostService implements the post lifecycle.
type BlogPostService struct {
	access         postAccess
	posts          repository.BlogPostRepository
	store          storage.Backend
	maxUploadBytes int64
	now            func() time.Time
}

// NewBlogPostService wires the lifecycle service. maxUploadBytes <= 0 selects DefaultMaxUploadBytes.
func NewBlogPostService(
	posts repository.BlogPostRepository,
	users repository.UserRepository,
	store storage.Backend,
	maxUploadBytes int64,
) *BlogPostService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &BlogPostService{
		access:         postAccess{posts: posts, users: users},
		posts:          posts,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func finish(span *observability.Span, err error) {
	if err != nil {
		span.SetError(err)
	}
	span.End()
}

// storeDocument uploads f and returns its descriptor. The caller owns cleanup.
func (s *BlogPostService) storeDocument(ctx context.Context, f *UploadedFile) (models.Document, error) {
	if len(f.Content) == 0 {
		return models.Document{}, models.NewValidationError("document is empty")
	}
	if int64(len(f.Content)) > s.maxUploadBytes {
		return models.Document{}, models.NewValidationError(
			fmt.Sprintf("document too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}
	if s.store == nil {
		return models.Document{}, models.NewInternalError(fmt.Errorf("no storage backend configured"))
	}

	contentType := strings.TrimSpace(f.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(f.Content)
	}
	filename := filepath.Base(strings.TrimSpace(f.Filename))
	if filename == "." || filename == string(filepath.Separator) {
		filename = ""
	}

	key := storage.NewKey(documentKeyPrefix, filename)
	if err := s.store.Upload(ctx, key, bytes.NewReader(f.Content), contentType); err != nil {
		return models.Document{}, models.NewInternalError(err)
	}
	return models.Document{
		Key:         key,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(f.Content)),
	}, nil
}

func (s *BlogPostService) discard(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove stored object",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Create validates the input and persists the post, its order value and its author links
// in one transaction. Without explicit authors an author derived from the owner is credited.
func (s *BlogPostService) Create(ctx context.Context, in CreateBlogPostInput) (post *models.BlogPost, err error) {
	ctx, span := observability.StartSpan(ctx, "blogpost", "create")
	defer func() { finish(span, err) }()

	owner, err := s.access.caller(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Website = strings.TrimSpace(in.Website)
	if err := validation.ToAppError(in.Validate()); err != nil {
		return nil, err
	}

	category := models.DefaultCategory
	if in.Category != nil {
		category = *in.Category
	}

	var doc models.Document
	if in.Document != nil {
		if doc, err = s.storeDocument(ctx, in.Document); err != nil {
			return nil, err
		}
	}

	post = &models.BlogPost{
		Title:    in.Title,
		Text:     in.Text,
		OwnerID:  owner.ID,
		Category: category,
		Website:  in.Website,
		Order:    in.Order,
		Document: doc,
		Active:   true,
	}

	var fallback *models.Author
	if len(in.AuthorIDs) == 0 {
		fallback = models.AuthorFromOwner(owner)
	}

	if err := s.posts.Create(ctx, post, in.AuthorIDs, fallback); err != nil {
		s.discard(context.WithoutCancel(ctx), doc.Key)
		return nil, err
	}

	observability.RecordTransition(observability.ActionCreate)
	span.AddAttributes(attribute.Int("blog_post.id", int(post.ID)), attribute.Int64("blog_post.order", post.Order))
	middleware.Logger.InfoContext(ctx, "blog post created",
		slog.Uint64("post_id", uint64(post.ID)), slog.Int64("order", post.Order))

	return s.posts.GetByID(ctx, post.ID)
}

// Get returns a post by id. Deleted posts remain retrievable.
func (s *BlogPostService) Get(ctx context.Context, id uint) (*models.BlogPost, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *BlogPostService) transition(ctx context.Context, action string, userID, postID uint, apply func(*models.BlogPost) error) (post *models.BlogPost, err error) {
	ctx, span := observability.StartSpan(ctx, "blogpost", action, attribute.Int("blog_post.id", int(postID)))
	defer func() { finish(span, err) }()

	post, err = s.access.authorize(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := apply(post); err != nil {
		return nil, err
	}

	observability.RecordTransition(action)
	middleware.Logger.InfoContext(ctx, "blog post transition",
		slog.String("action", action), slog.Uint64("post_id", uint64(postID)))
	return s.posts.GetByID(ctx, postID)
}

// Publish marks the post published. Repeating it changes nothing.
func (s *BlogPostService) Publish(ctx context.Context, userID, postID uint) (*models.BlogPost, error) {
	return s.transition(ctx, observability.ActionPublish, userID, postID, func(p *models.BlogPost) error {
		if p.Published {
			return nil
		}
		return s.posts.SetFlag(ctx, p.ID, repository.FlagPublished)
	})
}

// Archive marks the post archived without touching published.
func (s *BlogPostService) Archive(ctx context.Context, userID, postID uint) (*models.BlogPost, error) {
	return s.transition(ctx, observability.ActionArchive, userID, postID, func(p *models.BlogPost) error {
		if p.Archived {
			return nil
		}
		return s.posts.SetFlag(ctx, p.ID, repository.FlagArchived)
	})
}

// SoftDelete hides the post from every listing. deleted_at records the first deletion.
func (s *BlogPostService) SoftDelete(ctx context.Context, userID, postID uint) (*models.BlogPost, error) {
	return s.transition(ctx, observability.ActionSoftDelete, userID, postID, func(p *models.BlogPost) error {
		if p.Deleted {
			return nil
		}
		return s.posts.MarkDeleted(ctx, p.ID, s.now().UTC())
	})
}

// Update applies the editable fields and bumps updated_at.
func (s *BlogPostService) Update(ctx context.Context, userID, postID uint, in UpdateBlogPostInput) (post *models.BlogPost, err error) {
	ctx, span := observability.StartSpan(ctx, "blogpost", observability.ActionUpdate, attribute.Int("blog_post.id", int(postID)))
	defer func() { finish(span, err) }()

	if _, err := s.access.authorize(ctx, userID, postID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if in.Website != nil {
		w := strings.TrimSpace(*in.Website)
		in.Website = &w
	}
	if err := validation.ToAppError(in.Validate()); err != nil {
		return nil, err
	}

	post, err = s.posts.Update(ctx, postID, in.changes())
	if err != nil {
		return nil, err
	}
	observability.RecordTransition(observability.ActionUpdate)
	return post, nil
}

// ListVisible pages through non-deleted posts. An empty ordering means by order ascending.
func (s *BlogPostService) ListVisible(ctx context.Context, ordering string, limit, offset int) ([]models.BlogPost, int64, error) {
	if ordering == "" {
		ordering = repository.OrderByOrder
	}
	if !repository.ValidOrdering(ordering) {
		return nil, 0, models.NewValidationError(
			fmt.Sprintf("invalid ordering %q: use order, -order, created_at or -created_at", ordering))
	}
	return s.posts.ListVisible(ctx, ordering, limit, offset)
}

// ListPublished returns visible published posts ordered by order.
func (s *BlogPostService) ListPublished(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.ListByPublished(ctx, true)
}

// ListUnpublished returns visible unpublished posts ordered by order.
func (s *BlogPostService) ListUnpublished(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.ListByPublished(ctx, false)
}

// AddAuthor credits an existing author on the post.
func (s *BlogPostService) AddAuthor(ctx context.Context, userID, postID, authorID uint) ([]models.Author, error) {
	if _, err := s.access.authorize(ctx, userID, postID); err != nil {
		return nil, err
	}
	if authorID == 0 {
		return nil, models.NewValidationError("author_id is required")
	}
	if err := s.posts.AddAuthor(ctx, postID, authorID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError(fmt.Sprintf("author %d does not exist", authorID))
		}
		return nil, err
	}
	return s.posts.ListAuthors(ctx, postID)
}

// RemoveAuthor un-credits an author. The last author cannot be removed.
func (s *BlogPostService) RemoveAuthor(ctx context.Context, userID, postID, authorID uint) ([]models.Author, error) {
	if _, err := s.access.authorize(ctx, userID, postID); err != nil {
		return nil, err
	}
	if err := s.posts.RemoveAuthor(ctx, postID, authorID); err != nil {
		return nil, err
	}
	return s.posts.ListAuthors(ctx, postID)
}

// ListAuthors returns the authors credited on an existing post.
func (s *BlogPostService) ListAuthors(ctx context.Context, postID uint) ([]models.Author, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.posts.ListAuthors(ctx, postID)
}

// AttachDocument replaces the post's document. The previous payload is removed once the
// new one is recorded.
func (s *BlogPostService) AttachDocument(ctx context.Context, userID, postID uint, f *UploadedFile) (post *models.BlogPost, err error) {
	ctx, span := observability.StartSpan(ctx, "blogpost", "attach_document", attribute.Int("blog_post.id", int(postID)))
	defer func() { finish(span, err) }()

	current, err := s.access.authorize(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, models.NewValidationError("document is required")
	}

	doc, err := s.storeDocument(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetDocument(ctx, postID, doc); err != nil {
		s.discard(context.WithoutCancel(ctx), doc.Key)
		return nil, err
	}
	s.discard(ctx, current.Document.Key)

	return s.posts.GetByID(ctx, postID)
}
