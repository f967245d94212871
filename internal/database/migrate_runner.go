package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"blogpost/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration records one applied SQL migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the migration bookkeeping table.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrator applies versioned SQL migrations and tracks them in schema_migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, migrations: Migrations()}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}
	return nil
}

// Applied lists applied versions in ascending order. A missing bookkeeping
// table means nothing has been applied yet.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaMigration{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.Model(&SchemaMigration{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations not applied yet, after checking that every
// applied version is still known.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAppliedVersions(applied, m.migrations); err != nil {
		return nil, err
	}

	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration, each in its own transaction together with
// its bookkeeping row, then makes sure the order sequence row exists.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	for _, mig := range pending {
		middleware.Logger.InfoContext(ctx, "applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", mig, err)
		}
	}

	if len(pending) == 0 {
		middleware.Logger.DebugContext(ctx, "schema up to date")
	}
	return EnsureSequences(ctx, m.db)
}

// Down reverts version, which must be the most recently applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := m.lookup(version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || applied[len(applied)-1] != version {
		return fmt.Errorf("migration %d is not the latest applied migration", version)
	}

	middleware.Logger.InfoContext(ctx, "rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig, err)
		}
		return tx.Where("version = ?", version).Delete(&SchemaMigration{}).Error
	})
}

func (m *Migrator) lookup(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

// validateAppliedVersions fails when the database has versions this build does not ship.
func validateAppliedVersions(applied []int, registered []Migration) error {
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []string
	sorted := append([]int(nil), applied...)
	sort.Ints(sorted)
	for _, v := range sorted {
		if _, ok := known[v]; !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("schema_migrations has versions this build does not know: %s", strings.Join(unknown, ", "))
}
