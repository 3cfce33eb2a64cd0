package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/admin"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// CatalogCounter counts rows per catalog model.
type CatalogCounter interface {
	Counts() (map[string]int64, error)
}

// LoanReporter summarizes copy availability.
type LoanReporter interface {
	CountByStatus() (map[entities.LoanStatus]int64, error)
	ListOverdue(today entities.Date) ([]entities.BookInstance, error)
}

// ColumnInfo is one changelist column.
type ColumnInfo struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// FilterInfo is one changelist filter and its choices.
type FilterInfo struct {
	Field   string         `json:"field"`
	Label   string         `json:"label"`
	Choices []admin.Choice `json:"choices"`
}

// ModelConfigResponse is the admin configuration of one model with the
// defaults applied.
type ModelConfigResponse struct {
	*admin.ModelAdmin
	Columns            []ColumnInfo     `json:"columns"`
	Filters            []FilterInfo     `json:"filters"`
	EffectiveFieldsets []admin.Fieldset `json:"effective_fieldsets"`
}

func modelConfig(m *admin.ModelAdmin) ModelConfigResponse {
	resp := ModelConfigResponse{
		ModelAdmin:         m,
		Columns:            []ColumnInfo{},
		Filters:            []FilterInfo{},
		EffectiveFieldsets: m.EffectiveFieldsets(),
	}
	for _, col := range m.EffectiveListDisplay() {
		resp.Columns = append(resp.Columns, ColumnInfo{Field: col, Label: m.ColumnLabel(col)})
	}
	for _, field := range m.ListFilter {
		resp.Filters = append(resp.Filters, FilterInfo{
			Field:   field,
			Label:   m.ColumnLabel(field),
			Choices: admin.FilterChoices(field),
		})
	}
	return resp
}

// SummaryResponse is returned by GET /api/catalog/summary.
type SummaryResponse struct {
	Counts            map[string]int64 `json:"counts"`
	InstancesByStatus map[string]int64 `json:"instances_by_status"`
	Overdue           int              `json:"overdue"`
	Today             string           `json:"today"`
}

// CatalogController serves the admin configuration and catalog summary.
type CatalogController struct {
	site    *admin.Site
	counter CatalogCounter
	loans   LoanReporter
	today   func() entities.Date
}

func NewCatalogController(site *admin.Site, counter CatalogCounter, loans LoanReporter) *CatalogController {
	return &CatalogController{
		site:    site,
		counter: counter,
		loans:   loans,
		today:   entities.Today,
	}
}

// Models handles GET /api/admin/models
func (cc *CatalogController) Models(c *gin.Context) {
	models := cc.site.Models()
	out := make([]ModelConfigResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelConfig(m))
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

// Model handles GET /api/admin/models/:model. The model may be named by
// model name ("bookinstance") or URL segment ("instances").
func (cc *CatalogController) Model(c *gin.Context) {
	name := c.Param("model")
	m, ok := cc.site.Lookup(name)
	if !ok {
		m, ok = cc.site.LookupPath(name)
	}
	if !ok {
		respondNotFound(c, "model")
		return
	}
	c.JSON(http.StatusOK, modelConfig(m))
}

// Summary handles GET /api/catalog/summary
func (cc *CatalogController) Summary(c *gin.Context) {
	counts, err := cc.counter.Counts()
	if err != nil {
		respondInternalError(c, err, "catalog counts")
		return
	}
	byStatus, err := cc.loans.CountByStatus()
	if err != nil {
		respondInternalError(c, err, "status counts")
		return
	}
	today := cc.today()
	overdue, err := cc.loans.ListOverdue(today)
	if err != nil {
		respondInternalError(c, err, "overdue copies")
		return
	}

	statuses := make(map[string]int64, len(byStatus))
	for status, n := range byStatus {
		statuses[string(status)] = n
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Counts:            counts,
		InstancesByStatus: statuses,
		Overdue:           len(overdue),
		Today:             today.String(),
	})
}
