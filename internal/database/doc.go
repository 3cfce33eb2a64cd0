// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── constraints/     # On-delete policies, uniqueness checks, error translation
//	├── genres/          # Genre CRUD
//	├── publishers/      # Publisher CRUD
//	├── languages/       # Language CRUD
//	├── authors/         # Author CRUD
//	├── books/           # Book CRUD and genre associations
//	├── instances/       # Book copies, status and due date queries
//	├── audit/           # Audit event log
//	├── settings/        # Application settings
//	├── users/           # Staff accounts
//	└── dbtest/          # Test database helper
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.Get(42)
//
// # Deletion
//
// Every repository deletes through constraints.Delete, which applies the
// policies of entities.Relations in one transaction: RESTRICT relations are
// checked first, then SET NULL columns are cleared and CASCADE link rows
// removed. The same policies are declared as foreign keys so the store
// enforces them under concurrent writes as well.
//
// # Errors
//
// Missing rows surface as gorm.ErrRecordNotFound. Constraint failures
// surface as *entities.ConstraintError or *entities.ValidationError.
package database
