// Package bootstrap wires the process-wide dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"blogpost/internal/cache"
	"blogpost/internal/config"
	"blogpost/internal/database"
	"blogpost/internal/middleware"
	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/seed"
	"blogpost/internal/storage"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// DemoPlan seeds demo data into an empty database when set.
	DemoPlan *seed.Plan
}

// Runtime bundles the initialized dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store storage.Backend
}

// InitRuntime connects to the DB, Redis and the storage backend and optionally seeds data.
// Redis may come back nil; callers degrade instead of failing.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage backend init failed: %w", err)
	}

	if err := ensureDevStaff(ctx, cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development staff user: %w", err)
	}

	if opts.DemoPlan != nil {
		if err := seedIfEmpty(ctx, db, store, *opts.DemoPlan); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), Store: store}, nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB, store storage.Backend, plan seed.Plan) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.BlogPost{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	plan.Clean = false
	_, err := seed.NewSeeder(db, store, seed.DefaultOptions()).Seed(ctx, plan)
	return err
}

// ensureDevStaff creates or promotes the configured staff account in development.
func ensureDevStaff(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapStaff {
		return nil
	}

	email := repository.NormalizeEmail(cfg.DevStaffEmail)
	if email == "" {
		email = "staff@blog.local"
	}
	if cfg.DevStaffPassword == "" {
		return errors.New("DEV_STAFF_PASSWORD must be set when DEV_BOOTSTRAP_STAFF is enabled")
	}

	users := repository.NewUserRepository(db)
	existing, err := users.GetByEmail(ctx, email)
	var appErr *models.AppError
	switch {
	case err == nil:
		if existing.IsStaff {
			return nil
		}
		if err := users.SetStaff(ctx, existing.ID, true); err != nil {
			return err
		}
	case errors.As(err, &appErr) && appErr.Code == models.CodeNotFound:
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DevStaffPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash staff password: %w", err)
		}
		if err := users.Create(ctx, &models.User{
			Email:    email,
			FullName: "Staff User",
			Password: string(hash),
			IsStaff:  true,
		}); err != nil {
			return err
		}
	default:
		return err
	}

	middleware.Logger.Info("development staff user ensured", slog.String("email", email))
	return nil
}
