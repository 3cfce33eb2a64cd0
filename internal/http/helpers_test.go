package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testContext builds a context for target with optional path params.
func testContext(target string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	return c, w
}

func TestParseIDParam(t *testing.T) {
	c, w := testContext("/", gin.Param{Key: "id", Value: "123"})
	id, ok := parseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, raw := range []string{"abc", "-1", "0", "", "99999999999"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			c, w := testContext("/", gin.Param{Key: "id", Value: raw})
			id, ok := parseIDParam(c, "id")
			assert.False(t, ok)
			assert.Zero(t, id)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid id")
		})
	}
}

func TestParseUUIDParam(t *testing.T) {
	c, _ := testContext("/", gin.Param{Key: "id", Value: "0b8f6e0e-4a5b-4c1d-9f3e-2a7d5c6b8e91"})
	id, ok := parseUUIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "0b8f6e0e-4a5b-4c1d-9f3e-2a7d5c6b8e91", id.String())

	c, w := testContext("/", gin.Param{Key: "id", Value: "not-a-uuid"})
	_, ok = parseUUIDParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseOptionalQueryID(t *testing.T) {
	c, _ := testContext("/")
	id, ok := parseOptionalQueryID(c, "book_id")
	assert.True(t, ok)
	assert.Nil(t, id)

	c, _ = testContext("/?book_id=456")
	id, ok = parseOptionalQueryID(c, "book_id")
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, uint(456), *id)

	c, w := testContext("/?book_id=x")
	_, ok = parseOptionalQueryID(c, "book_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid book_id")
}

func TestListParams(t *testing.T) {
	c, _ := testContext("/?page=3&page_size=500&q=+dune+")

	p := listParams(c, config.Catalog{PageSize: 10, MaxPageSize: 50})

	assert.Equal(t, listing.Params{Page: 3, PageSize: 50, Search: "dune"}, p)
}

func TestStatusForError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":         {gorm.ErrRecordNotFound, http.StatusNotFound},
		"wrapped not found": {fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		"validation":        {entities.NewValidationError(entities.ModelBook, "title", "required"), http.StatusBadRequest},
		"enum":              {&entities.ConstraintError{Kind: entities.ErrInvalidEnumValue, Field: "status"}, http.StatusBadRequest},
		"unique":            {&entities.ConstraintError{Kind: entities.ErrUniquenessViolation, Field: "name"}, http.StatusConflict},
		"restrict":          {&entities.ConstraintError{Kind: entities.ErrReferentialRestriction, Count: 2}, http.StatusConflict},
		"anything else":     {errors.New("disk full"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusForError(tc.err))
		})
	}
}

func TestIsConstraintError(t *testing.T) {
	assert.True(t, isConstraintError(&entities.ConstraintError{Kind: entities.ErrReferentialRestriction}))
	assert.True(t, isConstraintError(&entities.ConstraintError{Kind: entities.ErrUniquenessViolation}))
	assert.False(t, isConstraintError(entities.NewValidationError(entities.ModelGenre, "name", "required")))
	assert.False(t, isConstraintError(gorm.ErrRecordNotFound))
}

func TestRespondStoreError(t *testing.T) {
	c, w := testContext("/api/genres")
	respondStoreError(c, &entities.ConstraintError{
		Kind:   entities.ErrUniquenessViolation,
		Entity: entities.ModelGenre,
		Field:  "name",
		Value:  "Fantasy",
	}, "genre")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"uniqueness_violation"`)
	assert.Contains(t, w.Body.String(), `"name":`)

	c, w = testContext("/api/genres/9")
	respondStoreError(c, gorm.ErrRecordNotFound, "genre")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"genre not found","code":"not_found"}`, w.Body.String())

	c, w = testContext("/api/genres")
	respondStoreError(c, errors.New("secret dsn leaked"), "genre")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestNewPage_EmptyItems(t *testing.T) {
	page := newPage[entities.Genre](nil, 0, listing.Params{Page: 1, PageSize: 10})

	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Metadata.LastPage)
}
