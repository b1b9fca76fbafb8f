package library

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrSchema             = errors.New("schema migration failed")
	ErrDuplicateID        = errors.New("a book with this id already exists")
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrBookNotFound       = errors.New("book not found")
	ErrAlreadyBorrowed    = errors.New("book is already borrowed")
	ErrEmptyID            = errors.New("book id cannot be empty")
	ErrEmptyName          = errors.New("book name cannot be empty")
	ErrEmptyBorrower      = errors.New("borrower name cannot be empty")
	ErrEmptyCredentials   = errors.New("username and password cannot be empty")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidDueDate     = errors.New("due date is before the borrow date")
	ErrNoSession          = errors.New("no user is logged in")
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a primary key or unique constraint
// failure from any of the supported drivers.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return false
}
