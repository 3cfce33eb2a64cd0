package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency. *database.Database implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthPingTimeout = 2 * time.Second

// HealthResponse is served on /health. DemoMode tells clients that writes
// will be refused.
type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Version  string            `json:"version,omitempty"`
	DemoMode bool              `json:"demo_mode"`
	Checks   map[string]string `json:"checks"`
}

type HealthController struct {
	db       Pinger
	version  string
	demoMode bool
}

func NewHealthController(db Pinger, version string, demoMode bool) *HealthController {
	return &HealthController{db: db, version: version, demoMode: demoMode}
}

// Status handles GET /health. A failing database answers 503.
func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Version:  h.version,
		DemoMode: h.demoMode,
		Checks:   map[string]string{"database": "not configured"},
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		resp.Checks["database"] = "ok"
		if err := h.db.Ping(ctx); err != nil {
			resp.Checks["database"] = "error: " + err.Error()
			resp.Status = "unhealthy"
		}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Ping handles GET /ping
func Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
