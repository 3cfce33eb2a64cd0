package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	Enabled   bool              // Whether auth is enabled (AuthModeLocal)
	LoggedIn  bool              // Whether user is logged in
	Username  string            // Current user's username (empty if not logged in)
	Role      entities.UserRole // Current user's role
	CanEdit   bool              // Whether change forms accept submissions
	CSRFToken string            // CSRF token for forms (empty when auth disabled)
	DemoMode  bool              // Read-only demo catalog
}

const authTemplateDataKey = "auth_template_data"

// AuthContextMiddleware injects authentication data into Gin context for templates.
// Templates can access auth data via .Auth in the template data.
func AuthContextMiddleware(authMode config.AuthMode) gin.HandlerFunc {
	authEnabled := authMode == config.AuthModeLocal

	return func(c *gin.Context) {
		authData := AuthTemplateData{
			Enabled:   authEnabled,
			Role:      auth.GetUserRole(c),
			CanEdit:   auth.CanEditCatalog(c),
			CSRFToken: auth.GetCSRFToken(c),
		}

		if authEnabled {
			if auth.GetUserID(c) != 0 {
				authData.LoggedIn = true
				authData.Username = auth.GetUsername(c)
			}
		}

		c.Set(authTemplateDataKey, authData)
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
// Demo mode is read late because its middleware runs after this one.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	var authData AuthTemplateData
	if data, exists := c.Get(authTemplateDataKey); exists {
		if d, ok := data.(AuthTemplateData); ok {
			authData = d
		}
	}
	if enabled, ok := c.Get(demo.ContextKeyDemoMode); ok {
		authData.DemoMode, _ = enabled.(bool)
	}
	if authData.DemoMode {
		authData.CanEdit = false
	}
	return authData
}
