package database

import (
	"testing"

	modelspkg "blogpost/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesJoinAndSequence(t *testing.T) {
	var hasJoin, hasSequence bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.BlogPostAuthor:
			hasJoin = true
		case *modelspkg.OrderSequence:
			hasSequence = true
		}
	}
	require.True(t, hasJoin, "PersistentModels should include BlogPostAuthor")
	require.True(t, hasSequence, "PersistentModels should include OrderSequence")
}

func TestLiveTitleTextIndexSQL(t *testing.T) {
	pg := liveTitleTextIndexSQL("postgres")
	require.Contains(t, pg, "ON blog_posts (title, md5(text)) WHERE deleted = false")

	lite := liveTitleTextIndexSQL("sqlite")
	require.Contains(t, lite, "ON blog_posts (title, text) WHERE deleted = false")
	require.NotContains(t, lite, "md5")

	for _, ddl := range []string{pg, lite} {
		require.Contains(t, ddl, "CREATE UNIQUE INDEX IF NOT EXISTS idx_blog_posts_title_text_live")
	}
}

func TestAutoMigrate_LiveTitleTextIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasIndex(&modelspkg.BlogPost{}, "idx_blog_posts_title_text_live"))

	owner := modelspkg.User{Email: "owner@example.com", FullName: "Owner", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)

	newPost := func(order int64, deleted bool) *modelspkg.BlogPost {
		return &modelspkg.BlogPost{
			Title: "Same title", Text: "Same text", OwnerID: owner.ID,
			Category: 1, Order: order, Deleted: deleted,
		}
	}
	require.NoError(t, db.Create(newPost(1, true)).Error)
	require.NoError(t, db.Create(newPost(2, false)).Error)
	require.Error(t, db.Create(newPost(3, false)).Error)
}
