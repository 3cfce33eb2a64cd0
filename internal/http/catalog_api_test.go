package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

type bookResponse struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	DisplayGenre string `json:"display_genre"`
}

type instanceResponse struct {
	ID      string `json:"id"`
	BookID  uint   `json:"book_id"`
	Imprint string `json:"imprint"`
	Status  string `json:"status"`
}

func TestGenresAPI(t *testing.T) {
	router, _, auditor := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/genres", gin.H{"name": "Fantasy"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Genre](t, w)
	assert.Equal(t, "Fantasy", created.Name)

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/genres", gin.H{"name": "Fantasy"})
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, CodeUnique, resp.Code)
	})

	t.Run("blank name is a validation error", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/genres", gin.H{"name": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, CodeValidation, resp.Code)
	})

	t.Run("list searches by name", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/genres?q=fan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[listing.Page[entities.Genre]](t, w)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Metadata.TotalRecords)
	})

	t.Run("rename", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/genres/"+uintString(created.ID), gin.H{"name": "High Fantasy"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "High Fantasy", decode[entities.Genre](t, w).Name)
	})

	t.Run("delete then 404", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/genres/"+uintString(created.ID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(router, http.MethodGet, "/api/genres/"+uintString(created.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.Equal(t, []string{
		"create genre",
		"rejected:create genre",
		"update genre",
		"delete genre",
	}, auditor.actions())
}

func TestBooksAPI(t *testing.T) {
	router, db, _ := newTestRouter(t, nil)
	stores := newTestStores(db.DB)

	satire, err := entities.NewGenre("Satire")
	require.NoError(t, err)
	require.NoError(t, stores.Genres.Create(satire))
	philosophy, err := entities.NewGenre("Philosophy")
	require.NoError(t, err)
	require.NoError(t, stores.Genres.Create(philosophy))
	author, err := entities.NewAuthor("Voltaire", "Arouet")
	require.NoError(t, err)
	require.NoError(t, stores.Authors.Create(author))

	w := doRequest(router, http.MethodPost, "/api/books", gin.H{
		"title":     "Candide",
		"summary":   "Optimism put to the test.",
		"isbn":      "9780140440041",
		"author_id": author.ID,
		"genre_ids": []uint{satire.ID, philosophy.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := decode[bookResponse](t, w)
	assert.Equal(t, "Satire, Philosophy", book.DisplayGenre)
	bookPath := "/api/books/" + uintString(book.ID)

	t.Run("duplicate isbn", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/books", gin.H{
			"title":   "Candide again",
			"summary": "Same book.",
			"isbn":    "9780140440041",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed isbn reports the field", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/books", gin.H{
			"title":   "Short",
			"summary": "Bad isbn.",
			"isbn":    "123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		details, ok := resp.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "isbn")
	})

	t.Run("filters", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/books?genre_id="+uintString(satire.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[listing.Page[bookResponse]](t, w).Items, 1)

		w = doRequest(router, http.MethodGet, "/api/books?author_id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	copyOf, err := entities.NewBookInstance(book.ID, "Penguin Classics", nil, "available")
	require.NoError(t, err)
	require.NoError(t, stores.Instances.Create(copyOf))

	t.Run("instances of a book", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, bookPath+"/instances", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string][]instanceResponse](t, w)
		assert.Len(t, resp["instances"], 1)
	})

	t.Run("delete is restricted while copies exist", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, bookPath, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeRestricted, decode[ErrorResponse](t, w).Code)

		require.NoError(t, stores.Instances.Delete(copyOf.ID))
		w = doRequest(router, http.MethodDelete, bookPath, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestInstancesAPI(t *testing.T) {
	router, db, _ := newTestRouter(t, nil)
	stores := newTestStores(db.DB)

	book, err := entities.NewBook("Dracula", "A count travels to England.", "9780141439846")
	require.NoError(t, err)
	require.NoError(t, stores.Books.Create(book, nil))

	t.Run("unknown status", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/instances", gin.H{
			"book_id": book.ID,
			"imprint": "Penguin",
			"status":  "lost",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeInvalidEnum, decode[ErrorResponse](t, w).Code)
	})

	t.Run("bad due date", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/instances", gin.H{
			"book_id":  book.ID,
			"imprint":  "Penguin",
			"due_back": "2024-13-45",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		details, ok := decode[ErrorResponse](t, w).Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "due_back")
	})

	w := doRequest(router, http.MethodPost, "/api/instances", gin.H{
		"book_id":  book.ID,
		"imprint":  "Penguin",
		"due_back": "2020-01-01",
		"status":   "on-loan",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loaned := decode[instanceResponse](t, w)

	w = doRequest(router, http.MethodPost, "/api/instances", gin.H{
		"book_id": book.ID,
		"imprint": "Oxford",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, string(entities.LoanStatusMaintenance), decode[instanceResponse](t, w).Status)

	t.Run("status filter", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/instances?status=on-loan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[listing.Page[instanceResponse]](t, w)
		require.Len(t, page.Items, 1)
		assert.Equal(t, loaned.ID, page.Items[0].ID)

		w = doRequest(router, http.MethodGet, "/api/instances?status=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("due date filter", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/instances?due_back=no_date", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[listing.Page[instanceResponse]](t, w)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Oxford", page.Items[0].Imprint)

		w = doRequest(router, http.MethodGet, "/api/instances?due_back=someday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status change", func(t *testing.T) {
		w := doRequest(router, http.MethodPatch, "/api/instances/"+loaned.ID+"/status", gin.H{"status": "a"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, string(entities.LoanStatusAvailable), decode[instanceResponse](t, w).Status)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/instances/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCatalogAPI(t *testing.T) {
	router, db, _ := newTestRouter(t, nil)
	_, err := demo.Seed(db.DB, entities.Today())
	require.NoError(t, err)

	t.Run("models", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/admin/models", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string][]ModelConfigResponse](t, w)
		assert.Len(t, resp["models"], 6)
	})

	t.Run("model by path or name", func(t *testing.T) {
		for _, name := range []string{"instances", entities.ModelBookInstance} {
			w := doRequest(router, http.MethodGet, "/api/admin/models/"+name, nil)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[ModelConfigResponse](t, w)
			assert.Equal(t, entities.ModelBookInstance, resp.Model)
			assert.Len(t, resp.Filters, 2)
		}

		w := doRequest(router, http.MethodGet, "/api/admin/models/unicorns", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/catalog/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SummaryResponse](t, w)
		assert.Equal(t, int64(8), resp.Counts[entities.ModelBook])
		assert.Equal(t, int64(12), resp.Counts[entities.ModelBookInstance])
		assert.Equal(t, 3, resp.Overdue)
	})
}

func TestRouter_DemoModeBlocksWrites(t *testing.T) {
	router, _, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.DemoMiddleware = demo.NewMiddleware(true)
	})

	w := doRequest(router, http.MethodPost, "/api/genres", gin.H{"name": "Horror"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), demo.BlockedMessage)

	w = doRequest(router, http.MethodGet, "/api/genres", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/health", nil)
	assert.Contains(t, w.Body.String(), `"demo_mode":true`)
}
