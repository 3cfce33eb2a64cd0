package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_MigratesSchema(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{
		entities.TableGenres, entities.TablePublishers, entities.TableLanguages,
		entities.TableAuthors, entities.TableBooks, entities.TableBookGenres,
		entities.TableBookInstances, "users", "audit_events", "settings",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}

	require.NoError(t, db.Ping(context.Background()))
}

func TestNewDatabase_ForeignKeysEnabled(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	require.NoError(t, db.DB.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: "oracle"})
	assert.Error(t, err)

	_, err = NewDatabase(config.Database{Driver: config.DriverPostgres})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", SQLiteDSN("a.db"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", SQLiteDSN("a.db?cache=shared"))
}

func TestDatabase_Counts(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.DB.Create(&entities.Genre{Name: "Fantasy"}).Error)
	require.NoError(t, db.DB.Create(&entities.Genre{Name: "Horror"}).Error)
	require.NoError(t, db.DB.Create(&entities.Author{FirstName: "Terry", LastName: "Pratchett"}).Error)

	counts, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[entities.ModelGenre])
	assert.Equal(t, int64(1), counts[entities.ModelAuthor])
	assert.Equal(t, int64(0), counts[entities.ModelBookInstance])
}
