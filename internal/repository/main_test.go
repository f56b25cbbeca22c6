package repository

import (
	"os"
	"testing"

	"codefolio/internal/database"
	"codefolio/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// setupSQLiteDB gives each test an isolated in-memory database with the full
// schema, so ledger and cascade behavior run against real SQL.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password-value",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:       title,
		Description: "a test project",
		Content:     "some write-up",
		Type:        models.PostTypeOther,
		UserID:      userID,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
