package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/admin"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// InstanceRequest is the body of book copy writes. An empty status yields
// maintenance; an empty ID on create yields a random one.
type InstanceRequest struct {
	ID      string `json:"id"`
	BookID  uint   `json:"book_id"`
	Imprint string `json:"imprint"`
	DueBack string `json:"due_back"` // YYYY-MM-DD or empty
	Status  string `json:"status"`
}

// StatusRequest changes the availability of a copy.
type StatusRequest struct {
	Status  string `json:"status"`
	DueBack string `json:"due_back"`
}

func parseDueBack(raw string) (*entities.Date, error) {
	due, err := entities.ParseOptionalDate(raw)
	if err != nil {
		return nil, entities.NewValidationError(entities.ModelBookInstance, "due_back", err.Error())
	}
	return due, nil
}

func (r InstanceRequest) instance() (*entities.BookInstance, error) {
	due, err := parseDueBack(r.DueBack)
	if err != nil {
		return nil, err
	}
	item, err := entities.NewBookInstance(r.BookID, r.Imprint, due, r.Status)
	if err != nil {
		return nil, err
	}
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, entities.NewValidationError(entities.ModelBookInstance, "id", "Enter a valid UUID.")
		}
		item.ID = id
	}
	return item, nil
}

type InstancesController struct {
	store   InstanceStore
	auditor CatalogAuditor
	catalog config.Catalog
	today   func() entities.Date
}

func NewInstancesController(store InstanceStore, auditor CatalogAuditor, catalog config.Catalog) *InstancesController {
	return &InstancesController{
		store:   store,
		auditor: auditorOrNoop(auditor),
		catalog: catalog,
		today:   entities.Today,
	}
}

func (ic *InstancesController) RegisterRoutes(group gin.IRoutes) {
	group.GET("", ic.List)
	group.POST("", ic.Create)
	group.GET("/:id", ic.Get)
	group.PUT("/:id", ic.Update)
	group.PATCH("/:id/status", ic.UpdateStatus)
	group.DELETE("/:id", ic.Delete)
}

// instanceFilter reads status (repeatable), due_back (date bucket) and book_id.
func (ic *InstancesController) instanceFilter(c *gin.Context) (instances.Filter, bool) {
	f := instances.Filter{Params: listParams(c, ic.catalog)}

	for _, raw := range c.QueryArray("status") {
		if raw == "" {
			continue
		}
		status, err := entities.ParseLoanStatus(raw)
		if err != nil {
			respondStoreError(c, err, entities.ModelBookInstance)
			return f, false
		}
		f.Statuses = append(f.Statuses, status)
	}

	dueBack, err := admin.DateRangeFor(c.Query("due_back"), ic.today())
	if err != nil {
		respondBadRequest(c, err.Error())
		return f, false
	}
	f.DueBack = dueBack

	var ok bool
	if f.BookID, ok = parseOptionalQueryID(c, "book_id"); !ok {
		return f, false
	}
	return f, true
}

// List handles GET /api/instances?status=&due_back=&book_id=&q=
// Copies are ordered by due_back with undated copies last.
func (ic *InstancesController) List(c *gin.Context) {
	f, ok := ic.instanceFilter(c)
	if !ok {
		return
	}
	items, total, err := ic.store.List(f)
	if err != nil {
		respondInternalError(c, err, "list book instances")
		return
	}
	c.JSON(http.StatusOK, newPage(items, total, f.Params))
}

// Get handles GET /api/instances/:id
func (ic *InstancesController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := ic.store.Get(id)
	if err != nil {
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST /api/instances
func (ic *InstancesController) Create(c *gin.Context) {
	var req InstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	item, err := req.instance()
	if err != nil {
		if isConstraintError(err) {
			ic.auditor.LogRejected(GetUserID(c), entities.ModelBookInstance, req.ID, "create", err)
		}
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	if err := ic.store.Create(item); err != nil {
		if isConstraintError(err) {
			ic.auditor.LogRejected(GetUserID(c), entities.ModelBookInstance, item.ID.String(), "create", err)
		}
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	ic.auditor.LogCreate(GetUserID(c), entities.ModelBookInstance, item.ID.String(), item.String())
	respondCreated(c, item)
}

// Update handles PUT /api/instances/:id. The id in the path wins over
// any id in the body.
func (ic *InstancesController) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req InstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.ID = ""
	item, err := req.instance()
	if err != nil {
		if isConstraintError(err) {
			ic.auditor.LogRejected(GetUserID(c), entities.ModelBookInstance, id.String(), "update", err)
		}
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	item.ID = id
	if err := ic.store.Update(item); err != nil {
		if isConstraintError(err) {
			ic.auditor.LogRejected(GetUserID(c), entities.ModelBookInstance, id.String(), "update", err)
		}
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	ic.auditor.LogUpdate(GetUserID(c), entities.ModelBookInstance, id.String(), item.String())
	c.JSON(http.StatusOK, item)
}

// UpdateStatus handles PATCH /api/instances/:id/status
func (ic *InstancesController) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	status, err := entities.ParseLoanStatus(req.Status)
	if err != nil {
		ic.auditor.LogRejected(GetUserID(c), entities.ModelBookInstance, id.String(), "update", err)
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	due, err := parseDueBack(req.DueBack)
	if err != nil {
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	if err := ic.store.UpdateStatus(id, status, due); err != nil {
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}

	item, err := ic.store.Get(id)
	if err != nil {
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	ic.auditor.LogUpdate(GetUserID(c), entities.ModelBookInstance, id.String(), item.String())
	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/instances/:id
func (ic *InstancesController) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	label := id.String()
	if item, err := ic.store.Get(id); err == nil {
		label = item.String()
	}
	if err := ic.store.Delete(id); err != nil {
		respondStoreError(c, err, entities.ModelBookInstance)
		return
	}
	ic.auditor.LogDelete(GetUserID(c), entities.ModelBookInstance, id.String(), label)
	c.Status(http.StatusNoContent)
}
