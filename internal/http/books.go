package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// BookRequest is the body of book writes. GenreIDs keeps its order; the
// first three genres make up the book's display genre.
type BookRequest struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	ISBN        string `json:"isbn"`
	AuthorID    *uint  `json:"author_id"`
	LanguageID  *uint  `json:"language_id"`
	PublisherID *uint  `json:"publisher_id"`
	GenreIDs    []uint `json:"genre_ids"`
}

func (r BookRequest) book(id uint) (*entities.Book, error) {
	book, err := entities.NewBook(r.Title, r.Summary, r.ISBN)
	if err != nil {
		return nil, err
	}
	book.ID = id
	book.AuthorID = r.AuthorID
	book.LanguageID = r.LanguageID
	book.PublisherID = r.PublisherID
	return book, nil
}

type BooksController struct {
	store     BookStore
	instances InstanceStore
	auditor   CatalogAuditor
	catalog   config.Catalog
}

func NewBooksController(store BookStore, instances InstanceStore, auditor CatalogAuditor, catalog config.Catalog) *BooksController {
	return &BooksController{
		store:     store,
		instances: instances,
		auditor:   auditorOrNoop(auditor),
		catalog:   catalog,
	}
}

func (bc *BooksController) RegisterRoutes(group gin.IRoutes) {
	group.GET("", bc.List)
	group.POST("", bc.Create)
	group.GET("/:id", bc.Get)
	group.PUT("/:id", bc.Update)
	group.DELETE("/:id", bc.Delete)
	group.GET("/:id/instances", bc.Instances)
}

// List handles GET /api/books?q=&author_id=&genre_id=&language_id=&publisher_id=
func (bc *BooksController) List(c *gin.Context) {
	f := books.Filter{Params: listParams(c, bc.catalog)}
	var ok bool
	if f.AuthorID, ok = parseOptionalQueryID(c, "author_id"); !ok {
		return
	}
	if f.GenreID, ok = parseOptionalQueryID(c, "genre_id"); !ok {
		return
	}
	if f.LanguageID, ok = parseOptionalQueryID(c, "language_id"); !ok {
		return
	}
	if f.PublisherID, ok = parseOptionalQueryID(c, "publisher_id"); !ok {
		return
	}

	items, total, err := bc.store.List(f)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, newPage(items, total, f.Params))
}

// Get handles GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.store.Get(id)
	if err != nil {
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	c.JSON(http.StatusOK, book)
}

// Instances handles GET /api/books/:id/instances
func (bc *BooksController) Instances(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := bc.store.Get(id); err != nil {
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	items, err := bc.instances.ListForBook(id)
	if err != nil {
		respondInternalError(c, err, "list book instances")
		return
	}
	if items == nil {
		items = []entities.BookInstance{}
	}
	c.JSON(http.StatusOK, gin.H{"instances": items})
}

// Create handles POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := req.book(0)
	if err != nil {
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	if err := bc.store.Create(book, req.GenreIDs); err != nil {
		if isConstraintError(err) {
			bc.auditor.LogRejected(GetUserID(c), entities.ModelBook, "", "create", err)
		}
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	bc.auditor.LogCreate(GetUserID(c), entities.ModelBook, uintString(book.ID), book.String())
	respondCreated(c, book)
}

// Update handles PUT /api/books/:id. The genre list is replaced.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := req.book(id)
	if err != nil {
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	if err := bc.store.Update(book, req.GenreIDs); err != nil {
		if isConstraintError(err) {
			bc.auditor.LogRejected(GetUserID(c), entities.ModelBook, uintString(id), "update", err)
		}
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	bc.auditor.LogUpdate(GetUserID(c), entities.ModelBook, uintString(id), book.String())
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id. Refused with 409 while copies of
// the book exist.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	label := ""
	if book, err := bc.store.Get(id); err == nil {
		label = book.String()
	}
	if err := bc.store.Delete(id); err != nil {
		if isConstraintError(err) {
			bc.auditor.LogRejected(GetUserID(c), entities.ModelBook, uintString(id), "delete", err)
		}
		respondStoreError(c, err, entities.ModelBook)
		return
	}
	bc.auditor.LogDelete(GetUserID(c), entities.ModelBook, uintString(id), label)
	c.Status(http.StatusNoContent)
}
