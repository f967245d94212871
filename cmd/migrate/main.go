// Command migrate runs schema operations for the blog database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"blogpost/internal/config"
	"blogpost/internal/database"

	"github.com/joho/godotenv"
)

const usage = "usage: go run ./cmd/migrate <up|down VERSION|auto|status>"

func main() {
	flag.Usage = func() { fmt.Println(usage) }
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	migrator := database.NewMigrator(db)

	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			return err
		}
		log.Println("sql migrations applied")

	case "down":
		if len(args) < 2 {
			return errors.New(usage)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := migrator.Down(ctx, version); err != nil {
			return err
		}
		log.Printf("rolled back migration %06d", version)

	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Println("models automigrated, order sequence ensured")

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		log.Printf("mode=%s env=%s sql=%t automigrate=%t applied=%v",
			status.Mode, status.Environment, status.SQL, status.AutoMigrate, status.AppliedVersions)
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %s", m)
		}

	default:
		return errors.New(usage)
	}
	return nil
}
