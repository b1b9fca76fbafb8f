package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration is one ordered schema step. Steps that alter an existing table
// name the column they introduce so a database created before version
// tracking existed can be adopted without re-running them.
type migration struct {
	version int
	table   string
	column  string
	stmt    func(d dialect) string
}

var migrations = []migration{
	{version: 1, stmt: func(d dialect) string {
		return `CREATE TABLE IF NOT EXISTS users (
            u_id ` + d.autoIncrementPK + `,
            username TEXT UNIQUE NOT NULL,
            password TEXT NOT NULL
        )`
	}},
	{version: 2, stmt: func(dialect) string {
		return `CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            author TEXT,
            year INTEGER,
            status TEXT DEFAULT 'Available',
            borrower_name TEXT,
            program TEXT,
            borrow_date TEXT
        )`
	}},
	{version: 3, table: "books", column: "year_published", stmt: func(dialect) string {
		return `ALTER TABLE books RENAME COLUMN year TO year_published`
	}},
	{version: 4, table: "books", column: "genre", stmt: func(dialect) string {
		return `ALTER TABLE books ADD COLUMN genre TEXT`
	}},
	{version: 5, table: "books", column: "due_date", stmt: func(dialect) string {
		return `ALTER TABLE books ADD COLUMN due_date TEXT`
	}},
	{version: 6, table: "books", column: "borrower_id", stmt: func(dialect) string {
		return `ALTER TABLE books ADD COLUMN borrower_id INTEGER`
	}},
	{version: 7, table: "users", column: "program", stmt: func(dialect) string {
		return `ALTER TABLE users ADD COLUMN program TEXT`
	}},
}

// schemaVersion is the version a fully migrated database records.
var schemaVersion = migrations[len(migrations)-1].version

func applyMigrations(db *sqlx.DB, d dialect) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return errors.Join(ErrSchema, err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return errors.Join(ErrSchema, err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, d, m); err != nil {
			return errors.Join(ErrSchema, fmt.Errorf("migration %d: %w", m.version, err))
		}
	}
	return nil
}

func currentVersion(db *sqlx.DB) (int, error) {
	var current int
	err := db.Get(&current, db.Rebind(`SELECT CAST(value AS INTEGER) FROM meta WHERE key = ?`), "schema_version")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return current, err
}

// applyMigration runs one step and records its version in the same transaction.
func applyMigration(db *sqlx.DB, d dialect, m migration) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	apply := true
	if m.column != "" {
		var n int
		if err := tx.Get(&n, d.columnExists, m.table, m.column); err != nil {
			return fmt.Errorf("inspect %s.%s: %w", m.table, m.column, err)
		}
		apply = n == 0
	}

	if apply {
		if _, err := tx.Exec(m.stmt(d)); err != nil {
			return err
		}
	}

	upsert := tx.Rebind(`INSERT INTO meta(key, value) VALUES(?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if _, err := tx.Exec(upsert, "schema_version", fmt.Sprint(m.version)); err != nil {
		return err
	}
	return tx.Commit()
}
