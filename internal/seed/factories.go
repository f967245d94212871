// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"time"

	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every generated user.
const DefaultPassword = "password123"

// Options tune the generated data.
type Options struct {
	// SkipBcrypt stores a cheap hash so large seeds stay fast. Such users cannot log in.
	SkipBcrypt bool
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// PublishedRatio and ArchivedRatio are the chances a generated post gets the flag.
	PublishedRatio float64
	ArchivedRatio  float64
}

// DefaultOptions mirrors the lecture factories: 60% published, 20% archived.
func DefaultOptions() Options {
	return Options{MaxDays: 90, PublishedRatio: 0.6, ArchivedRatio: 0.2}
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	posts repository.BlogPostRepository
	store storage.Backend
	opts  Options
	rng   *rand.Rand
	// hashed once; bcrypt per user dominates seeding time otherwise
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB. store may be nil
// when no images are generated.
func NewFactory(db *gorm.DB, store storage.Backend, opts Options) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{
		db:    db,
		posts: repository.NewBlogPostRepository(db),
		store: store,
		opts:  opts,
		// #nosec G404: acceptable for seeding
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) chance(p float64) bool {
	return f.rng.Float64() < p
}

func (f *Factory) hash() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.passwordHash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash seed password: %w", err)
		}
		f.passwordHash = string(h)
	}
	return f.passwordHash, nil
}

func (f *Factory) createdAt() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().UTC().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hash()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    fmt.Sprintf("%d.%s", gofakeit.Number(1000, 999999), strings.ToLower(gofakeit.Email())),
		FullName: gofakeit.FirstName() + " " + gofakeit.LastName(),
		Password: hash,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAuthor constructs and persists a sample `models.Author`.
func (f *Factory) CreateAuthor(ctx context.Context, overrides ...func(*models.Author)) (*models.Author, error) {
	birth := gofakeit.DateRange(time.Now().AddDate(-80, 0, 0), time.Now().AddDate(-18, 0, 0)).UTC().Truncate(24 * time.Hour)
	author := &models.Author{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		BirthDate: &birth,
		Email:     strings.ToLower(gofakeit.Email()),
	}

	for _, override := range overrides {
		override(author)
	}

	if err := f.db.WithContext(ctx).Create(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

// BuildPost constructs a post owned by owner without persisting it.
func (f *Factory) BuildPost(owner *models.User, overrides ...func(*models.BlogPost)) *models.BlogPost {
	categories := models.Categories()
	post := &models.BlogPost{
		Title:     strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Text:      gofakeit.Paragraph(2, 4, 12, "\n\n"),
		OwnerID:   owner.ID,
		Category:  categories[f.rng.Intn(len(categories))],
		Website:   gofakeit.URL(),
		Active:    true,
		Published: f.chance(f.opts.PublishedRatio),
		Archived:  f.chance(f.opts.ArchivedRatio),
		CreatedAt: f.createdAt(),
	}
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a sample post for owner credited to authors. When authors is
// empty one to three fresh authors are generated. Order comes from the sequence
// unless an override presets it.
func (f *Factory) CreatePost(ctx context.Context, owner *models.User, authors []models.Author, overrides ...func(*models.BlogPost)) (*models.BlogPost, error) {
	if len(authors) == 0 {
		n := 1 + f.rng.Intn(3)
		for i := 0; i < n; i++ {
			a, err := f.CreateAuthor(ctx)
			if err != nil {
				return nil, fmt.Errorf("create author: %w", err)
			}
			authors = append(authors, *a)
		}
	}
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	post := f.BuildPost(owner, overrides...)
	if err := f.posts.Create(ctx, post, ids, nil); err != nil {
		return nil, err
	}
	return post, nil
}

// samplePNG renders a small gradient so every seeded image has a decodable payload.
func samplePNG(w, h int, tint uint8) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: tint, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CreatePostImage stores a generated png through the storage backend and records it on post.
func (f *Factory) CreatePostImage(ctx context.Context, post *models.BlogPost, overrides ...func(*models.BlogPostImage)) (*models.BlogPostImage, error) {
	if f.store == nil {
		return nil, fmt.Errorf("seed factory has no storage backend")
	}
	w, h := 64+f.rng.Intn(192), 64+f.rng.Intn(192)
	payload, err := samplePNG(w, h, uint8(f.rng.Intn(256)))
	if err != nil {
		return nil, fmt.Errorf("render sample image: %w", err)
	}

	filename := gofakeit.Word() + ".png"
	key := storage.NewKey("images", filename)
	if err := f.store.Upload(ctx, key, bytes.NewReader(payload), "image/png"); err != nil {
		return nil, fmt.Errorf("store sample image: %w", err)
	}

	img := &models.BlogPostImage{
		BlogPostID:       post.ID,
		Key:              key,
		OriginalFilename: filename,
		ContentType:      "image/png",
		Width:            w,
		Height:           h,
		SizeBytes:        int64(len(payload)),
	}
	for _, override := range overrides {
		override(img)
	}

	if err := f.db.WithContext(ctx).Create(img).Error; err != nil {
		_ = f.store.Delete(context.WithoutCancel(ctx), key)
		return nil, err
	}
	return img, nil
}
