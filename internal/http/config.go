package http

import (
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/demo"
)

// CatalogDatabase is the database handle seen by the router.
// *database.Database implements it.
type CatalogDatabase interface {
	Pinger
	CatalogCounter
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Catalog
	Stores       Stores
	Database     CatalogDatabase
	LoanReporter LoanReporter
	Catalog      config.Catalog

	// Audit log
	Auditor     CatalogAuditor
	AuditReader AuditReader

	// Maintenance jobs (optional)
	TaskQueue    TaskQueue
	JobScheduler JobScheduler
	JobSettings  JobSettings

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	AuthEvents     auth.AuthEventLogger
	CSRFSecret     []byte
	SecureCookies  bool

	// API throttling
	RateLimit config.RateLimit

	DemoMiddleware *demo.Middleware

	// UI paths; an empty TemplatesPath uses the embedded templates
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
