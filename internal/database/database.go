package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/logging"
)

type Database struct {
	DB     *gorm.DB
	Driver string
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&entities.Genre{},
		&entities.Publisher{},
		&entities.Language{},
		&entities.Author{},
		&entities.Book{},
		&entities.BookGenre{},
		&entities.BookInstance{},
		&entities.User{},
		&entities.AuditEvent{},
		&entities.Setting{},
	}
}

// NewDatabase opens the configured store and migrates the schema.
func NewDatabase(cfg config.Database) (*Database, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = config.DriverSQLite
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.Path))
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for the %s driver", driver)
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logging.GormLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("database initialized", "driver", driver, "path", cfg.Path)

	return &Database{DB: db, Driver: driver}, nil
}

// SQLiteDSN appends the connection options the catalog relies on. Foreign
// keys must be on for the on-delete policies to hold in the store.
func SQLiteDSN(path string) string {
	if path == "" {
		path = config.DefaultDatabasePath
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Counts returns the number of rows per catalog model.
func (d *Database) Counts() (map[string]int64, error) {
	models := map[string]any{
		entities.ModelGenre:        &entities.Genre{},
		entities.ModelPublisher:    &entities.Publisher{},
		entities.ModelLanguage:     &entities.Language{},
		entities.ModelAuthor:       &entities.Author{},
		entities.ModelBook:         &entities.Book{},
		entities.ModelBookInstance: &entities.BookInstance{},
	}

	counts := make(map[string]int64, len(models))
	for name, model := range models {
		var count int64
		if err := d.DB.Model(model).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = count
	}
	return counts, nil
}
