package languages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/dbtest"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

func TestRepository_CRUD(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	item, err := entities.NewLanguage("English")
	require.NoError(t, err)
	require.NoError(t, repo.Create(item))

	// Names are not unique for this model.
	require.NoError(t, repo.Create(&entities.Language{Name: "English"}))

	item.Name = "English Ltd"
	require.NoError(t, repo.Update(item))
	got, err := repo.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "English Ltd", got.String())

	items, total, err := repo.List(listing.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "English", items[0].Name)

	all, err := repo.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, repo.Create(&entities.Language{Name: " "}), entities.ErrValidation)
	assert.ErrorIs(t, repo.Update(&entities.Language{ID: 999, Name: "x"}), gorm.ErrRecordNotFound)
}

func TestRepository_DeleteNullifiesBooks(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	item := &entities.Language{Name: "English"}
	require.NoError(t, repo.Create(item))
	book := &entities.Book{Title: "Mort", Summary: "s", ISBN: "9780552131063", LanguageID: &item.ID}
	require.NoError(t, db.Create(book).Error)

	require.NoError(t, repo.Delete(item.ID))

	var reloaded entities.Book
	require.NoError(t, db.First(&reloaded, book.ID).Error)
	assert.Nil(t, reloaded.LanguageID)
	assert.Equal(t, "Mort", reloaded.Title)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
