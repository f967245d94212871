package service

import (
	"context"
	"testing"

	"blogpost/internal/database"
	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/storage"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv bundles repositories and services over a private in-memory database.
type testEnv struct {
	db      *gorm.DB
	users   repository.UserRepository
	authors repository.AuthorRepository
	posts   repository.BlogPostRepository
	images  repository.ImageRepository
	store   *storage.Memory

	blog      *BlogPostService
	authorSvc *AuthorService
	imageSvc  *ImageService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))

	env := &testEnv{
		db:      db,
		users:   repository.NewUserRepository(db),
		authors: repository.NewAuthorRepository(db),
		posts:   repository.NewBlogPostRepository(db),
		images:  repository.NewImageRepository(db),
		store:   storage.NewMemory(),
	}
	env.blog = NewBlogPostService(env.posts, env.users, env.store, 0)
	env.authorSvc = NewAuthorService(env.authors)
	env.imageSvc = NewImageService(env.images, env.posts, env.users, env.store, 0)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, fullName string, staff bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Email: email, FullName: fullName, Password: string(hash)}
	require.NoError(t, e.users.Create(context.Background(), u))
	if staff {
		require.NoError(t, e.users.SetStaff(context.Background(), u.ID, true))
		u.IsStaff = true
	}
	return u
}

func (e *testEnv) createPost(t *testing.T, owner *models.User, title string) *models.BlogPost {
	t.Helper()
	p, err := e.blog.Create(context.Background(), CreateBlogPostInput{
		UserID: owner.ID,
		Title:  title,
		Text:   "Body of " + title,
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T {
	return &v
}
