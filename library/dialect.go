package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	_ "github.com/jackc/pgx/v5/stdlib"                  // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

// dialect captures the SQL differences between the supported backends.
type dialect struct {
	driver string
	goqu   goqu.DialectWrapper

	// autoIncrementPK is the column definition of a surrogate integer key.
	autoIncrementPK string
	// columnExists is a query taking (table, column) and yielding a count.
	columnExists string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{
			driver:          driver,
			goqu:            goqu.Dialect("sqlite3"),
			autoIncrementPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
			columnExists:    `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		}, nil
	case DriverPostgres, DriverPGX:
		return dialect{
			driver:          driver,
			goqu:            goqu.Dialect("postgres"),
			autoIncrementPK: "BIGSERIAL PRIMARY KEY",
			columnExists: `SELECT COUNT(*) FROM information_schema.columns
				WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`,
		}, nil
	default:
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// openDB opens the database for driver. For sqlite the dsn is a file path.
func openDB(driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverSQLite {
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping %s: %w", driver, err)
		}
		return db, nil
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sqlx.Open(DriverSQLite, fmt.Sprintf("file:%s?_busy_timeout=5000", dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL keeps readers from blocking the single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}
