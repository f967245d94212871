// Command staff grants or revokes the staff flag that lets an account manage every blog post.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"blogpost/internal/config"
	"blogpost/internal/database"
	"blogpost/internal/models"
	"blogpost/internal/repository"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/staff promote <email>   - Grant staff rights")
	fmt.Println("  go run ./cmd/staff demote <email>    - Revoke staff rights")
	fmt.Println("  go run ./cmd/staff list              - List all staff accounts")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		setStaff(ctx, repository.NewUserRepository(db), os.Args[2], os.Args[1] == "promote")
	case "list":
		listStaff(ctx, db)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func setStaff(ctx context.Context, users repository.UserRepository, email string, staff bool) {
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			fmt.Printf("User %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.IsStaff == staff {
		fmt.Printf("User %s (ID: %d) already has staff=%t\n", user.Email, user.ID, staff)
		return
	}
	if err := users.SetStaff(ctx, user.ID, staff); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) now has staff=%t\n", user.Email, user.ID, staff)
}

func listStaff(ctx context.Context, db *gorm.DB) {
	var staff []models.User
	if err := db.WithContext(ctx).Where("is_staff = ?", true).Order("id").Find(&staff).Error; err != nil {
		log.Fatalf("Failed to fetch staff: %v", err)
	}

	if len(staff) == 0 {
		fmt.Println("No staff accounts found")
		return
	}

	fmt.Println("\n📋 Staff accounts:")
	fmt.Println("─────────────────────────────────────")
	for _, u := range staff {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", u.ID, u.FullName, u.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
