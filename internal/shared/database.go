package shared

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Database wraps a [sql.DB] with the driver name so queries can be rebound per dialect.
type Database struct {
	*sql.DB
	Driver string
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*Database, error) {
	return OpenDatabase(DriverSQLite, path)
}

// OpenDatabase opens and pings a connection for the given driver and data source.
func OpenDatabase(driver, dsn string) (*Database, error) {
	memory := false
	switch driver {
	case DriverSQLite:
		memory = dsn == ":memory:"
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on&_busy_timeout=5000"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("%w: postgres dsn is empty", ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Every new connection to ":memory:" is a fresh database, so pin the pool to one.
	if memory {
		db.SetMaxOpenConns(1)
	}

	return &Database{DB: db, Driver: driver}, nil
}

// OpenFromConfig opens the database described by [DatabaseConfig] and applies pool settings.
func OpenFromConfig(cfg DatabaseConfig) (*Database, error) {
	dsn := cfg.Path
	if cfg.Driver == DriverPostgres {
		dsn = cfg.DSN
	}
	if cfg.Driver == "" {
		return nil, fmt.Errorf("%w: database driver", ErrMissingConfig)
	}

	db, err := OpenDatabase(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if dsn != ":memory:" {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *Database, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// Rebind rewrites "?" placeholders into the driver's bind syntax.
func (d *Database) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
