package database

import (
	"context"
	"fmt"

	"blogpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Author{},
		&models.BlogPost{},
		&models.BlogPostAuthor{},
		&models.BlogPostImage{},
		&models.OrderSequence{},
	}
}

// registerJoinTables binds the explicit join model to the many2many relation.
func registerJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.BlogPost{}, "Authors", &models.BlogPostAuthor{}); err != nil {
		return fmt.Errorf("setup blog_post_authors join table: %w", err)
	}
	return nil
}

const liveTitleTextIndex = "idx_blog_posts_title_text_live"

// liveTitleTextIndexSQL returns the partial unique index guarding (title, text) of live posts.
// Postgres indexes md5(text) so long bodies stay under the btree row size limit.
func liveTitleTextIndexSQL(dialect string) string {
	textExpr := "text"
	if dialect == "postgres" {
		textExpr = "md5(text)"
	}
	return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON blog_posts (title, %s) WHERE deleted = false",
		liveTitleTextIndex, textExpr)
}

// AutoMigrate creates or updates the schema from the models and seeds the order sequence.
func AutoMigrate(db *gorm.DB) error {
	if err := registerJoinTables(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	if err := db.Exec(liveTitleTextIndexSQL(db.Dialector.Name())).Error; err != nil {
		return fmt.Errorf("create %s: %w", liveTitleTextIndex, err)
	}
	return EnsureSequences(context.Background(), db)
}

// EnsureSequences inserts the named counters that do not exist yet.
func EnsureSequences(ctx context.Context, db *gorm.DB) error {
	seq := models.OrderSequence{Name: models.BlogPostOrderSequence}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("seed order sequence: %w", err)
	}
	return nil
}
