package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/genres"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/database/languages"
	"github.com/mrlokans/locallibrary/internal/database/publishers"
	"github.com/mrlokans/locallibrary/internal/http"
	"github.com/mrlokans/locallibrary/internal/scheduler"
	"github.com/mrlokans/locallibrary/internal/settingsstore"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// =============================================================================
// Catalog Stores
// =============================================================================

var _ http.GenreStore = (*genres.Repository)(nil)
var _ http.PublisherStore = (*publishers.Repository)(nil)
var _ http.LanguageStore = (*languages.Repository)(nil)
var _ http.AuthorStore = (*authors.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.InstanceStore = (*instances.Repository)(nil)

// LoanReporter and overdue scans read loan state from the copy repository
var _ http.LoanReporter = (*instances.Repository)(nil)
var _ tasks.OverdueFinder = (*instances.Repository)(nil)

// CatalogDatabase implementations
var _ http.CatalogDatabase = (*database.Database)(nil)

// =============================================================================
// Audit Log
// =============================================================================

var _ http.CatalogAuditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ auth.AuthEventLogger = (*audit.Service)(nil)
var _ tasks.OverdueRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventArchiver = (*audit.Service)(nil)
var _ tasks.MaintenanceLogger = (*audit.Service)(nil)

// =============================================================================
// Accounts and Sessions
// =============================================================================

var _ http.UserManager = (*auth.Service)(nil)
var _ http.Flasher = (*auth.SessionManager)(nil)

// =============================================================================
// Maintenance Jobs
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.JobScheduler = (*scheduler.MaintenanceScheduler)(nil)
var _ http.JobSettings = (*settingsstore.SettingsStore)(nil)
