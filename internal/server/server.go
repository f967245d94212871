// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "blogpost/docs" // swagger docs
	"blogpost/internal/bootstrap"
	"blogpost/internal/cache"
	"blogpost/internal/config"
	"blogpost/internal/database"
	"blogpost/internal/middleware"
	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/seed"
	"blogpost/internal/service"
	"blogpost/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Backend
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	authorRepo     repository.AuthorRepository
	postRepo       repository.BlogPostRepository
	imageRepo      repository.ImageRepository
	blacklist      *cache.TokenBlacklist
	blogService    *service.BlogPostService
	authorService  *service.AuthorService
	imageService   *service.ImageService
	authService    *service.AuthService
	now            func() time.Time
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	opts := bootstrap.Options{}
	if cfg.Env == "development" && cfg.DevSeedDemo {
		opts.DemoPlan = &seed.Plan{Users: 5, Authors: 8, Posts: 25, ImagesPerPost: 1}
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, opts)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis/storage.
// redisClient may be nil; rate limiting then fails open and logout reports an error.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Backend) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if store == nil {
		return nil, errors.New("storage backend is required")
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("blog-api"),
		userRepo:       repository.NewUserRepository(db),
		authorRepo:     repository.NewAuthorRepository(db),
		postRepo:       repository.NewBlogPostRepository(db),
		imageRepo:      repository.NewImageRepository(db),
		now:            nowUTC,
	}

	maxUpload := cfg.MaxUploadBytes()
	server.blogService = service.NewBlogPostService(server.postRepo, server.userRepo, store, maxUpload)
	server.authorService = service.NewAuthorService(server.authorRepo)
	server.imageService = service.NewImageService(server.imageRepo, server.postRepo, server.userRepo, store, maxUpload)

	var revoker service.TokenRevoker
	if redisClient != nil {
		server.blacklist = cache.NewTokenBlacklist(redisClient)
		revoker = server.blacklist
	}
	server.authService = service.NewAuthService(server.userRepo, revoker, cfg.JWTSecret)

	return server, nil
}

// authConfig wires token verification to the redis blacklist when one is available.
func (s *Server) authConfig() middleware.AuthConfig {
	cfg := middleware.AuthConfig{Secret: s.config.JWTSecret}
	if s.blacklist != nil {
		cfg.Revocations = s.blacklist
	}
	return cfg
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Blog Post API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS sits ahead of the limiter so a 429 still carries the allow-origin header.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "too many requests, slow down",
					Code:  models.CodeRateLimited,
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Blog Post API Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Stored documents and images
	app.Get("/media/*", s.GetMedia)

	authCfg := s.authConfig()

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired(authCfg), s.Logout)
	auth.Get("/me", middleware.AuthRequired(authCfg), s.Me)
	auth.Post("/staff/:id", middleware.AuthRequired(authCfg), s.PromoteStaff)

	// Blog routes identify the caller when a token is sent; services decide what anonymous callers may do.
	blog := app.Group("/blog", middleware.OptionalAuth(authCfg))

	authors := blog.Group("/author")
	authors.Get("/", s.ListAuthors)
	authors.Post("/", s.CreateAuthor)
	authors.Get("/:id", s.GetAuthor)
	authors.Patch("/:id", s.UpdateAuthor)

	posts := blog.Group("/blogpost")
	posts.Get("/", s.ListBlogPosts)
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_blogpost"), s.CreateBlogPost)
	// Define collection actions BEFORE generic /:id route
	posts.Get("/not_published", s.ListUnpublishedPosts)
	posts.Get("/published_posts", s.ListPublishedPosts)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/publish", s.PublishBlogPost)
	posts.Post("/:id/archive", s.ArchiveBlogPost)
	posts.Put("/:id/document", s.AttachDocument)
	posts.Get("/:id/images", s.GetImages)
	posts.Post("/:id/images", middleware.RateLimit(
		s.redis, 20, time.Minute, "upload_image"), s.UploadImage)
	posts.Get("/:id/authors", s.ListPostAuthors)
	posts.Post("/:id/authors", s.AddPostAuthor)
	posts.Delete("/:id/authors/:authorId", s.RemovePostAuthor)
	// Generic /:id routes (for item detail, update, delete)
	posts.Get("/:id", s.GetBlogPost)
	posts.Patch("/:id", s.UpdateBlogPost)
	posts.Delete("/:id", s.DeleteBlogPost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
// Redis only backs rate limits and token revocation, so its absence degrades but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  s.store.Name(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Shutdown the HTTP server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
