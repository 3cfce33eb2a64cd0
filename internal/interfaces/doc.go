// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and see which concrete types satisfy them.
//
// # Interface Categories
//
// ## Catalog Stores
//
//   - NamedStore[T]: genres, publishers and languages (internal/http/stores.go)
//   - AuthorStore, BookStore, InstanceStore: catalog CRUD (internal/http/stores.go)
//   - LoanReporter: copy availability and overdue loans (internal/http/catalog.go)
//   - CatalogDatabase: health checks and row counts (internal/http/config.go)
//
// ## Audit Log
//
//   - CatalogAuditor: records catalog writes and rejected writes (internal/http/stores.go)
//   - AuditReader: audit history queries (internal/http/audit.go)
//   - AuthEventLogger: login and logout events (internal/auth/handlers.go)
//
// ## Maintenance Jobs
//
//   - TaskQueue, JobScheduler, JobSettings: task queue management (internal/http/tasks.go)
//   - OverdueFinder, OverdueRecorder: overdue loan scans (internal/tasks/overdue_scan.go)
//   - AuditEventArchiver, MaintenanceLogger: audit retention (internal/tasks/cleanup_audit.go)
//
// # Adding a New Catalog Model
//
// To register another model on the admin site and the JSON API:
//
//  1. Add the entity in internal/entities/ with a constructor that validates
//     input and returns *entities.ValidationError on bad fields.
//
//  2. Create sub-package internal/database/<model>/ with a Repository that
//     translates driver errors through internal/database/constraints.
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register a ModelAdmin in internal/admin/site.go so the changelist,
//     forms and /api/admin/models pick it up.
//
//  4. Add the store to http.Stores, a controller and its modelOps entry,
//     then wire the repository in entrypoint.Stores.
//
//  5. Add compile-time checks to checks.go:
//
//     var _ http.SomeStore = (*some.Repository)(nil)
//
// # Adding a New Maintenance Job
//
//  1. Define the task and its processor in internal/tasks/ and list it in
//     tasks.Types so /api/tasks can run it on demand.
//
//  2. Add the job to settingsstore so its schedule can be changed at runtime.
//
//  3. Register the queue in entrypoint.Run.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
