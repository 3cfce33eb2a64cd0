package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func buildGenre(id uint, name string) (*entities.Genre, error) {
	g, err := entities.NewGenre(name)
	if err != nil {
		return nil, err
	}
	g.ID = id
	return g, nil
}

func buildPublisher(id uint, name string) (*entities.Publisher, error) {
	p, err := entities.NewPublisher(name)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

func buildLanguage(id uint, name string) (*entities.Language, error) {
	l, err := entities.NewLanguage(name)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// NewGenresController serves /api/genres.
func NewGenresController(store GenreStore, auditor CatalogAuditor, catalog config.Catalog) *NamedController[entities.Genre] {
	return NewNamedController(store, entities.ModelGenre, buildGenre,
		func(g *entities.Genre) uint { return g.ID }, auditor, catalog)
}

// NewPublishersController serves /api/publishers.
func NewPublishersController(store PublisherStore, auditor CatalogAuditor, catalog config.Catalog) *NamedController[entities.Publisher] {
	return NewNamedController(store, entities.ModelPublisher, buildPublisher,
		func(p *entities.Publisher) uint { return p.ID }, auditor, catalog)
}

// NewLanguagesController serves /api/languages.
func NewLanguagesController(store LanguageStore, auditor CatalogAuditor, catalog config.Catalog) *NamedController[entities.Language] {
	return NewNamedController(store, entities.ModelLanguage, buildLanguage,
		func(l *entities.Language) uint { return l.ID }, auditor, catalog)
}

// AuthorRequest is the body of author writes.
type AuthorRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

type AuthorsController struct {
	store   AuthorStore
	auditor CatalogAuditor
	catalog config.Catalog
}

func NewAuthorsController(store AuthorStore, auditor CatalogAuditor, catalog config.Catalog) *AuthorsController {
	return &AuthorsController{store: store, auditor: auditorOrNoop(auditor), catalog: catalog}
}

func (ac *AuthorsController) RegisterRoutes(group gin.IRoutes) {
	group.GET("", ac.List)
	group.POST("", ac.Create)
	group.GET("/:id", ac.Get)
	group.PUT("/:id", ac.Update)
	group.DELETE("/:id", ac.Delete)
}

// List handles GET /api/authors
func (ac *AuthorsController) List(c *gin.Context) {
	p := listParams(c, ac.catalog)
	items, total, err := ac.store.List(p)
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, newPage(items, total, p))
}

// Get handles GET /api/authors/:id
func (ac *AuthorsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := ac.store.Get(id)
	if err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	c.JSON(http.StatusOK, author)
}

// Create handles POST /api/authors
func (ac *AuthorsController) Create(c *gin.Context) {
	var req AuthorRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	author, err := entities.NewAuthor(req.FirstName, req.LastName)
	if err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	if err := ac.store.Create(author); err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	ac.auditor.LogCreate(GetUserID(c), entities.ModelAuthor, uintString(author.ID), author.String())
	respondCreated(c, author)
}

// Update handles PUT /api/authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AuthorRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	author, err := entities.NewAuthor(req.FirstName, req.LastName)
	if err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	author.ID = id
	if err := ac.store.Update(author); err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	ac.auditor.LogUpdate(GetUserID(c), entities.ModelAuthor, uintString(id), author.String())
	c.JSON(http.StatusOK, author)
}

// Delete handles DELETE /api/authors/:id. The author's books are kept
// with their author cleared.
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	label := ""
	if author, err := ac.store.Get(id); err == nil {
		label = author.String()
	}
	if err := ac.store.Delete(id); err != nil {
		respondStoreError(c, err, entities.ModelAuthor)
		return
	}
	ac.auditor.LogDelete(GetUserID(c), entities.ModelAuthor, uintString(id), label)
	c.Status(http.StatusNoContent)
}
