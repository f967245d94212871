package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blogpost/internal/config"
	"blogpost/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps run for a config.
type SchemaPlan struct {
	Mode        string
	Environment string
	SQL         bool
	AutoMigrate bool
}

// SchemaStatus is a SchemaPlan plus the migration state of the database.
type SchemaStatus struct {
	SchemaPlan
	AppliedVersions   []int
	PendingMigrations []Migration
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	if mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)); mode != "" {
		return mode
	}
	return SchemaModeHybrid
}

// PlanSchema decides the schema steps. The embedded SQL is Postgres DDL,
// so SQLite databases are always built by AutoMigrate. AutoMigrate never
// runs in production-like environments unless explicitly allowed.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: normalizedSchemaMode(cfg), Environment: cfg.Env}
	prodLike := isProdLikeEnv(cfg.Env)

	switch plan.Mode {
	case SchemaModeSQL, SchemaModeAuto, SchemaModeHybrid:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}

	if driverName(cfg) == "sqlite" {
		plan.AutoMigrate = true
		return plan, nil
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.AutoMigrate = !prodLike
	}
	return plan, nil
}

// ApplySchema brings the database schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := NewMigrator(db).Up(ctx); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.AutoMigrate {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("running gorm automigrate", slog.String("mode", plan.Mode), slog.String("env", plan.Environment))
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

// GetSchemaStatus reports the plan plus applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	m := NewMigrator(db)
	if status.AppliedVersions, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.PendingMigrations, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
