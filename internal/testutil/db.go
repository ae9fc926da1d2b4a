// Package testutil provides shared helpers for database-backed tests.
// Tests run against an isolated in-memory SQLite database so the suite
// needs no external services.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
)

// SetupTestDB opens an in-memory database named after the test and
// migrates the full schema into it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the
	// same in-memory store
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&domain.Post{},
		&domain.Vote{},
		&domain.PrivatePost{},
		&domain.TeamTag{},
		&domain.TeamPreference{},
		&domain.Team{},
		&domain.DigestLog{},
	)
	require.NoError(t, err)

	return db
}

// CreateTestPost inserts a live post authored by the given AAD object id
func CreateTestPost(t *testing.T, db *gorm.DB, authorObjectID, title string, postType domain.PostType, tags ...string) *domain.Post {
	t.Helper()

	post := &domain.Post{
		Title:             title,
		Description:       "Description for " + title,
		ContentURL:        "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Type:              postType,
		Tags:              domain.JoinTags(tags),
		CreatedByName:     "Test User",
		CreatedByObjectID: authorObjectID,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
