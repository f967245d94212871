// Command main fills a development database with generated blog data.
package main

import (
	"context"
	"flag"
	"log"

	"blogpost/internal/config"
	"blogpost/internal/database"
	"blogpost/internal/seed"
	"blogpost/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numAuthors := flag.Int("authors", 20, "Number of authors to create")
	numPosts := flag.Int("posts", 100, "Number of blog posts to create")
	images := flag.Int("images", 1, "Images attached to every post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded users cannot log in")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage backend: %v", err)
	}

	opts := seed.DefaultOptions()
	opts.SkipBcrypt = *fast

	_, err = seed.NewSeeder(db, store, opts).Seed(ctx, seed.Plan{
		Users:         *numUsers,
		Authors:       *numAuthors,
		Posts:         *numPosts,
		ImagesPerPost: *images,
		Clean:         *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	if !*fast {
		log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
	}
}
