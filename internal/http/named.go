package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
)

// NameRequest is the body of genre, publisher and language writes.
type NameRequest struct {
	Name string `json:"name" form:"name"`
}

// NamedController serves CRUD for a model whose only field is its name.
type NamedController[T fmt.Stringer] struct {
	store   NamedStore[T]
	entity  string
	build   func(id uint, name string) (*T, error)
	idOf    func(*T) uint
	auditor CatalogAuditor
	catalog config.Catalog
}

// NewNamedController creates a controller. build validates a name into a
// record with the given id (0 when creating).
func NewNamedController[T fmt.Stringer](
	store NamedStore[T],
	entity string,
	build func(id uint, name string) (*T, error),
	idOf func(*T) uint,
	auditor CatalogAuditor,
	catalog config.Catalog,
) *NamedController[T] {
	return &NamedController[T]{
		store:   store,
		entity:  entity,
		build:   build,
		idOf:    idOf,
		auditor: auditorOrNoop(auditor),
		catalog: catalog,
	}
}

// RegisterRoutes mounts the controller under group.
func (nc *NamedController[T]) RegisterRoutes(group gin.IRoutes) {
	group.GET("", nc.List)
	group.POST("", nc.Create)
	group.GET("/:id", nc.Get)
	group.PUT("/:id", nc.Update)
	group.DELETE("/:id", nc.Delete)
}

// List handles GET /api/<model>?q=&page=&page_size=
func (nc *NamedController[T]) List(c *gin.Context) {
	p := listParams(c, nc.catalog)
	items, total, err := nc.store.List(p)
	if err != nil {
		respondInternalError(c, err, "list "+nc.entity)
		return
	}
	c.JSON(http.StatusOK, newPage(items, total, p))
}

// Get handles GET /api/<model>/:id
func (nc *NamedController[T]) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := nc.store.Get(id)
	if err != nil {
		respondStoreError(c, err, nc.entity)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST /api/<model>
func (nc *NamedController[T]) Create(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	item, err := nc.build(0, req.Name)
	if err != nil {
		respondStoreError(c, err, nc.entity)
		return
	}
	if err := nc.store.Create(item); err != nil {
		if isConstraintError(err) {
			nc.auditor.LogRejected(GetUserID(c), nc.entity, "", "create", err)
		}
		respondStoreError(c, err, nc.entity)
		return
	}

	nc.auditor.LogCreate(GetUserID(c), nc.entity, uintString(nc.idOf(item)), (*item).String())
	respondCreated(c, item)
}

// Update handles PUT /api/<model>/:id
func (nc *NamedController[T]) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	item, err := nc.build(id, req.Name)
	if err != nil {
		respondStoreError(c, err, nc.entity)
		return
	}
	if err := nc.store.Update(item); err != nil {
		if isConstraintError(err) {
			nc.auditor.LogRejected(GetUserID(c), nc.entity, uintString(id), "update", err)
		}
		respondStoreError(c, err, nc.entity)
		return
	}

	nc.auditor.LogUpdate(GetUserID(c), nc.entity, uintString(id), (*item).String())
	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/<model>/:id
func (nc *NamedController[T]) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Label for the audit record
	label := ""
	if item, err := nc.store.Get(id); err == nil {
		label = (*item).String()
	}

	if err := nc.store.Delete(id); err != nil {
		if isConstraintError(err) {
			nc.auditor.LogRejected(GetUserID(c), nc.entity, uintString(id), "delete", err)
		}
		respondStoreError(c, err, nc.entity)
		return
	}

	nc.auditor.LogDelete(GetUserID(c), nc.entity, uintString(id), label)
	c.Status(http.StatusNoContent)
}
