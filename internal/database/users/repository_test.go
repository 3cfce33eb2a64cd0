package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/users.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	return NewRepository(db)
}

func createUser(t *testing.T, repo *Repository, username string, role entities.UserRole) *entities.User {
	t.Helper()
	user := &entities.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, repo.CreateUser(user))
	return user
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := setupTestDB(t)
	created := createUser(t, repo, "librarian", entities.UserRoleLibrarian)
	assert.NotZero(t, created.ID)

	byID, err := repo.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "librarian", byID.Username)
	assert.Equal(t, entities.UserRoleLibrarian, byID.Role)

	byName, err := repo.GetUserByLogin("librarian")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := repo.GetUserByLogin("librarian@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestRepository_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetUserByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetUserByLogin("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetUserByTokenHash("")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_TokenHashLookup(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "admin", entities.UserRoleSuperuser)

	require.NoError(t, repo.UpdateFields(user.ID, map[string]any{"token_hash": "abc123"}))

	found, err := repo.GetUserByTokenHash("abc123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.HasToken())
}

func TestRepository_Exists(t *testing.T) {
	repo := setupTestDB(t)
	createUser(t, repo, "viewer", entities.UserRoleViewer)

	exists, err := repo.Exists("viewer", "other@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists("other", "other@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_SetRoleAndDelete(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "viewer", entities.UserRoleViewer)
	createUser(t, repo, "alice", entities.UserRoleLibrarian)

	require.NoError(t, repo.SetRole(user.ID, entities.UserRoleLibrarian))
	found, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleLibrarian, found.Role)

	assert.ErrorIs(t, repo.SetRole(999, entities.UserRoleViewer), gorm.ErrRecordNotFound)

	list, err := repo.ListUsers()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)

	require.NoError(t, repo.DeleteUser(user.ID))
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, repo.DeleteUser(user.ID), gorm.ErrRecordNotFound)
}
