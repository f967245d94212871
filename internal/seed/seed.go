package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"blogpost/internal/database"
	"blogpost/internal/models"
	"blogpost/internal/storage"

	"gorm.io/gorm"
)

// Plan describes how much data Seed creates.
type Plan struct {
	Users         int
	Authors       int
	Posts         int
	ImagesPerPost int
	Clean         bool
}

// Result summarizes what Seed created.
type Result struct {
	Users   []models.User
	Authors []models.Author
	Posts   []models.BlogPost
	Images  int
}

// tables in child-to-parent order so deletes never trip a foreign key.
var tables = []string{
	"blog_post_images",
	"blog_post_authors",
	"blog_posts",
	"authors",
	"custom_users",
}

// Seeder fills a database with generated users, authors, posts and images.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a seeder writing to db and store.
func NewSeeder(db *gorm.DB, store storage.Backend, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, store, opts)}
}

// Factory exposes the underlying factory for ad-hoc records.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll removes every blog row and resets the order sequence.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("truncate tables: %w", err)
		}
	} else {
		for _, table := range tables {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}
	return db.Model(&models.OrderSequence{}).
		Where("name = ?", models.BlogPostOrderSequence).
		Update("value", 0).Error
}

// Seed creates the records described by plan. Posts are owned by random users and
// credited to one to three of the seeded authors.
func (s *Seeder) Seed(ctx context.Context, plan Plan) (*Result, error) {
	log.Printf("🌱 Seeding %d users, %d authors, %d posts...", plan.Users, plan.Authors, plan.Posts)

	if plan.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}
	if err := database.EnsureSequences(ctx, s.db); err != nil {
		return nil, err
	}
	if plan.Users < 1 {
		plan.Users = 1
	}

	res := &Result{}
	f := s.factory

	for i := 0; i < plan.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		res.Users = append(res.Users, *u)
	}
	log.Printf("✓ %d users created", len(res.Users))

	for i := 0; i < plan.Authors; i++ {
		a, err := f.CreateAuthor(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create author: %w", err)
		}
		res.Authors = append(res.Authors, *a)
	}
	log.Printf("✓ %d authors created", len(res.Authors))

	for i := 0; i < plan.Posts; i++ {
		owner := res.Users[f.rng.Intn(len(res.Users))]
		post, err := f.CreatePost(ctx, &owner, s.pickAuthors(res.Authors))
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		for j := 0; j < plan.ImagesPerPost; j++ {
			if _, err := f.CreatePostImage(ctx, post); err != nil {
				return nil, fmt.Errorf("failed to create image: %w", err)
			}
			res.Images++
		}
		res.Posts = append(res.Posts, *post)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}
	log.Printf("✓ %d posts created with %d images", len(res.Posts), res.Images)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// pickAuthors returns one to three distinct authors from pool, or nil when the pool
// is empty so the factory generates fresh ones.
func (s *Seeder) pickAuthors(pool []models.Author) []models.Author {
	if len(pool) == 0 {
		return nil
	}
	n := 1 + s.factory.rng.Intn(3)
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]models.Author, 0, n)
	for _, idx := range s.factory.rng.Perm(len(pool))[:n] {
		picked = append(picked, pool[idx])
	}
	return picked
}
