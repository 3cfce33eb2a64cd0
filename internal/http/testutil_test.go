package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/genres"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/database/languages"
	"github.com/mrlokans/locallibrary/internal/database/publishers"
)

// recordingAuditor keeps "<action> <entity>" lines for assertions.
type recordingAuditor struct {
	mu      sync.Mutex
	records []string
}

func (a *recordingAuditor) add(action, entity string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, action+" "+entity)
}

func (a *recordingAuditor) LogCreate(_ uint, entity, _, _ string) { a.add("create", entity) }
func (a *recordingAuditor) LogUpdate(_ uint, entity, _, _ string) { a.add("update", entity) }
func (a *recordingAuditor) LogDelete(_ uint, entity, _, _ string) { a.add("delete", entity) }
func (a *recordingAuditor) LogRejected(_ uint, entity, _, operation string, _ error) {
	a.add("rejected:"+operation, entity)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.records...)
}

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStores(db *gorm.DB) Stores {
	return Stores{
		Genres:     genres.NewRepository(db),
		Publishers: publishers.NewRepository(db),
		Languages:  languages.NewRepository(db),
		Authors:    authors.NewRepository(db),
		Books:      books.NewRepository(db),
		Instances:  instances.NewRepository(db),
	}
}

var testCatalog = config.Catalog{PageSize: 25, MaxPageSize: 100}

// newTestRouter builds the full router on a fresh catalog with auth disabled.
func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (*gin.Engine, *database.Database, *recordingAuditor) {
	t.Helper()
	db := newTestDatabase(t)
	auditor := &recordingAuditor{}
	cfg := RouterConfig{
		Stores:       newTestStores(db.DB),
		Database:     db,
		LoanReporter: instances.NewRepository(db.DB),
		Catalog:      testCatalog,
		Auditor:      auditor,
		AuthConfig:   config.Auth{Mode: config.AuthModeNone},
		Version:      "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	router, stop := NewRouter(cfg)
	t.Cleanup(stop)
	return router, db, auditor
}

func jsonReader(body any) *bytes.Reader {
	if body == nil {
		return bytes.NewReader(nil)
	}
	data, _ := json.Marshal(body)
	return bytes.NewReader(data)
}

func doRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, jsonReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
