package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./locallibrary.db"

	// DefaultDemoDatabasePath is where generate_demo writes the demo catalog
	DefaultDemoDatabasePath = "./demo/locallibrary-demo.db"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
