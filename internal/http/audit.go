package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// AuditReader reads recorded audit events. *audit.Service implements it.
type AuditReader interface {
	GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
	History(entity, id string, limit int) ([]entities.AuditEvent, error)
}

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&entity=&entity_id=&user_id=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	filter := audit.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity"),
		EntityID:   c.Query("entity_id"),
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = uint(userID)
	}

	events, total, err := ac.reader.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
		"event_types":  getEventTypes(),
	})
}

// GetHistory returns the change history of one record, newest first.
// GET /api/audit/:entity/:id
func (ac *AuditController) GetHistory(c *gin.Context) {
	events, err := ac.reader.History(c.Param("entity"), c.Param("id"), 50)
	if err != nil {
		respondInternalError(c, err, "load record history")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func getEventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventCreate), Label: "Addition"},
		{Value: string(entities.AuditEventUpdate), Label: "Change"},
		{Value: string(entities.AuditEventDelete), Label: "Deletion"},
		{Value: string(entities.AuditEventRejected), Label: "Rejected"},
		{Value: string(entities.AuditEventOverdue), Label: "Overdue"},
		{Value: string(entities.AuditEventMaintenance), Label: "Maintenance"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
	}
}
