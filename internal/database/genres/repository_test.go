package genres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/dbtest"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

func setupTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	db := dbtest.Open(t)
	return NewRepository(db), db
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupTestRepo(t)

	genre, err := entities.NewGenre("Science Fiction")
	require.NoError(t, err)
	require.NoError(t, repo.Create(genre))
	assert.NotZero(t, genre.ID)

	got, err := repo.Get(genre.ID)
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", got.Name)

	byName, err := repo.GetByName("Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, genre.ID, byName.ID)

	_, err = repo.Get(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_CreateDuplicateName(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Genre{Name: "Horror"}))

	err := repo.Create(&entities.Genre{Name: "Horror"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrUniquenessViolation))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_UpdateDuplicateName(t *testing.T) {
	repo, _ := setupTestRepo(t)

	horror := &entities.Genre{Name: "Horror"}
	drama := &entities.Genre{Name: "Drama"}
	require.NoError(t, repo.Create(horror))
	require.NoError(t, repo.Create(drama))

	drama.Name = "Horror"
	assert.ErrorIs(t, repo.Update(drama), entities.ErrUniquenessViolation)

	horror.Name = "Gothic Horror"
	require.NoError(t, repo.Update(horror))
	got, err := repo.Get(horror.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gothic Horror", got.Name)

	assert.ErrorIs(t, repo.Update(&entities.Genre{ID: 999, Name: "Ghost"}), gorm.ErrRecordNotFound)
}

func TestRepository_CreateInvalid(t *testing.T) {
	repo, _ := setupTestRepo(t)
	assert.ErrorIs(t, repo.Create(&entities.Genre{Name: ""}), entities.ErrValidation)
}

func TestRepository_ListSearchAndPaging(t *testing.T) {
	repo, _ := setupTestRepo(t)
	for _, name := range []string{"Satire", "Fantasy", "Drama", "Horror", "Dark Fantasy"} {
		require.NoError(t, repo.Create(&entities.Genre{Name: name}))
	}

	items, total, err := repo.List(listing.Params{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Dark Fantasy", items[0].Name)
	assert.Equal(t, "Drama", items[1].Name)

	items, total, err = repo.List(listing.Params{Page: 1, PageSize: 10, Search: "fantasy"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestRepository_DeleteRemovesBookLinks(t *testing.T) {
	repo, db := setupTestRepo(t)

	genre := &entities.Genre{Name: "Fantasy"}
	require.NoError(t, repo.Create(genre))
	book := &entities.Book{Title: "Mort", Summary: "s", ISBN: "9780552131063"}
	require.NoError(t, db.Create(book).Error)
	require.NoError(t, db.Create(&entities.BookGenre{BookID: book.ID, GenreID: genre.ID}).Error)

	require.NoError(t, repo.Delete(genre.ID))

	var links int64
	require.NoError(t, db.Model(&entities.BookGenre{}).Where("book_id = ?", book.ID).Count(&links).Error)
	assert.Zero(t, links)

	assert.ErrorIs(t, repo.Delete(genre.ID), gorm.ErrRecordNotFound)
}
