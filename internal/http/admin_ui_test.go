package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func TestLoadTemplates_Embedded(t *testing.T) {
	tmpl, err := LoadTemplates("")
	require.NoError(t, err)

	for _, name := range []string{"admin_index", "admin_changelist", "admin_form", "admin_delete", "admin_error", "login", "setup"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestAdminUI_Pages(t *testing.T) {
	router, db, _ := newTestRouter(t, nil)
	_, err := demo.Seed(db.DB, entities.Today())
	require.NoError(t, err)

	t.Run("root redirects to the admin", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/", w.Header().Get("Location"))
	})

	t.Run("index lists every model", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Site administration")
		assert.Contains(t, body, `href="/admin/books"`)
		assert.Contains(t, body, `href="/admin/instances"`)
	})

	t.Run("changelist shows configured columns", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/books?q=candide", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Candide")
		assert.Contains(t, body, "Satire, Philosophy, Fiction")
		assert.NotContains(t, body, "Dracula")
	})

	t.Run("instance filters", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/instances?status=on-loan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "By Status")

		w = doRequest(router, http.MethodGet, "/admin/instances?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(router, http.MethodGet, "/admin/instances?due_back=someday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown model", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/unicorns", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("add form defaults the status", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/instances/add", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<option value="maintenance" selected>`)
	})

	t.Run("change form preselects genres", func(t *testing.T) {
		candide, err := books.NewRepository(db.DB).GetByISBN("9780140440041")
		require.NoError(t, err)
		require.NotEmpty(t, candide.Genres)

		w := doRequest(router, http.MethodGet, "/admin/books/"+uintString(candide.ID)+"/change", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<option value="`+uintString(candide.Genres[0].ID)+`" selected>`)
	})

	t.Run("missing record", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/admin/books/99999/change", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(router, http.MethodGet, "/admin/instances/not-a-uuid/change", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminUI_Forms(t *testing.T) {
	router, db, auditor := newTestRouter(t, nil)
	_, err := demo.Seed(db.DB, entities.Today())
	require.NoError(t, err)

	t.Run("add genre redirects to the changelist", func(t *testing.T) {
		w := doForm(router, "/admin/genres/add", url.Values{"name": {"Horror"}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/genres", w.Header().Get("Location"))
	})

	t.Run("duplicate genre re-renders the form", func(t *testing.T) {
		w := doForm(router, "/admin/genres/add", url.Values{"name": {"Horror"}})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Please correct the errors below.")
		assert.Contains(t, w.Body.String(), "already exists")
	})

	t.Run("invalid book keeps submitted values", func(t *testing.T) {
		w := doForm(router, "/admin/books/add", url.Values{
			"title":   {"Untitled draft"},
			"summary": {""},
			"isbn":    {"123"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `value="Untitled draft"`)
		assert.Contains(t, body, "Enter a valid ISBN")
	})

	t.Run("add book instance", func(t *testing.T) {
		candide, err := books.NewRepository(db.DB).GetByISBN("9780140440041")
		require.NoError(t, err)

		w := doForm(router, "/admin/instances/add", url.Values{
			"book":     {uintString(candide.ID)},
			"imprint":  {"Folio"},
			"due_back": {""},
			"status":   {"r"},
		})
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("restricted delete shows the protected copies", func(t *testing.T) {
		candide, err := books.NewRepository(db.DB).GetByISBN("9780140440041")
		require.NoError(t, err)
		path := "/admin/books/" + uintString(candide.ID) + "/delete"

		w := doRequest(router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "protected related objects")

		w = doForm(router, path, url.Values{})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Cannot delete book")
	})

	assert.Equal(t, []string{
		"create genre",
		"rejected:create genre",
		"create bookinstance",
		"rejected:delete book",
	}, auditor.actions())
}
