package library

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

const (
	tableBooks = "books"
	tableUsers = "users"

	colID            = "id"
	colName          = "name"
	colAuthor        = "author"
	colGenre         = "genre"
	colYearPublished = "year_published"
	colStatus        = "status"
	colBorrowerName  = "borrower_name"
	colProgram       = "program"
	colBorrowDate    = "borrow_date"
	colDueDate       = "due_date"
	colBorrowerID    = "borrower_id"

	colUserID   = "u_id"
	colUsername = "username"
	colPassword = "password"

	logMsgBuildQueryFailed = "failed to build query"
	logMsgDBExecFailed     = "database execution failed"
	logMsgDBQueryFailed    = "database query failed"
	logMsgSQLExecuted      = "executed sql"
	logMsgBookAdded        = "book added"
	logMsgBookRemoved      = "book removed"
	logMsgBookBorrowed     = "book borrowed"
	logMsgBookReturned     = "book returned"
	logMsgNoSuchBook       = "no book with this id, nothing changed"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrBookID          = "book_id"
	logAttrBorrowerID      = "borrower_id"
	logAttrDueDate         = "due_date"
	logAttrDurationMS      = "duration_ms"
	logAttrRows            = "rows"
)

var bookColumns = []any{
	colID, colName, colAuthor, colGenre, colYearPublished, colStatus,
	colBorrowerName, colProgram, colBorrowDate, colDueDate, colBorrowerID,
}

// Logger receives SQL statements at debug level, completed writes at info,
// no-op writes and rejected logins at warn, and storage failures at error.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Database provides the catalog and user operations over a SQL connection.
type Database struct {
	db      *sqlx.DB
	dialect dialect
	logger  Logger
}

// Option configures a Database or a LibraryManager.
type Option func(*settings)

type settings struct {
	logger   Logger
	now      func() time.Time
	loanDays int
}

func newSettings(options []Option) settings {
	s := settings{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		loanDays: DefaultLoanDays,
	}
	for _, option := range options {
		option(&s)
	}
	return s
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the source of "today" for due dates and Days Remaining.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLoanDays sets the loan period used when borrowing without a due date.
func WithLoanDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.loanDays = days
		}
	}
}

// NewDatabase opens (or creates) the database behind driver and dsn and
// applies schema migrations. For sqlite the dsn is a file path.
func NewDatabase(driver, dsn string, options ...Option) (*Database, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, d); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{
		db:      db,
		dialect: d,
		logger:  newSettings(options).logger,
	}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Execution helpers
// ---------------------------------------------------------------------------

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (d *Database) exec(b sqlBuilder) (int64, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		d.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return 0, fmt.Errorf("build statement: %w", err)
	}

	start := time.Now()
	res, err := d.db.Exec(query, args...)
	if err != nil {
		if !isUniqueViolation(err) {
			d.logger.Error(logMsgDBExecFailed, logAttrError, err.Error(), logAttrQuery, query)
		}
		return 0, err
	}
	d.logger.Debug(logMsgSQLExecuted, logAttrQuery, query, logAttrDurationMS, time.Since(start).Milliseconds())
	return res.RowsAffected()
}

func (d *Database) selectBooks(ds *goqu.SelectDataset) ([]*Book, error) {
	query, args, err := ds.Order(goqu.I(colID).Asc()).ToSQL()
	if err != nil {
		d.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return nil, fmt.Errorf("build query: %w", err)
	}

	start := time.Now()
	var rows []bookRow
	if err := d.db.Select(&rows, query, args...); err != nil {
		d.logger.Error(logMsgDBQueryFailed, logAttrError, err.Error(), logAttrQuery, query)
		return nil, err
	}
	d.logger.Debug(logMsgSQLExecuted, logAttrQuery, query, logAttrRows, len(rows),
		logAttrDurationMS, time.Since(start).Milliseconds())

	books := make([]*Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.book())
	}
	return books, nil
}

// books selects every book column, filtered by the conditions joined with AND.
func (d *Database) books(conds ...exp.Expression) *goqu.SelectDataset {
	ds := d.dialect.goqu.From(tableBooks).Prepared(true).Select(bookColumns...)
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}
	return ds
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// AddBook inserts b as an available book with no borrower. Only the id,
// name, author, genre and year of b are used.
func (d *Database) AddBook(b Book) error {
	b.ID = strings.TrimSpace(b.ID)
	b.Name = strings.TrimSpace(b.Name)
	if b.ID == "" {
		return ErrEmptyID
	}
	if b.Name == "" {
		return ErrEmptyName
	}

	ins := d.dialect.goqu.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		colID:            b.ID,
		colName:          b.Name,
		colAuthor:        nullIfEmpty(b.Author),
		colGenre:         nullIfEmpty(b.Genre),
		colYearPublished: b.YearPublished,
		colStatus:        string(StatusAvailable),
	})
	if _, err := d.exec(ins); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateID, b.ID)
		}
		return err
	}
	d.logger.Info(logMsgBookAdded, logAttrBookID, b.ID)
	return nil
}

// RemoveBook deletes the book. Removing an unknown id is not an error.
func (d *Database) RemoveBook(id string) error {
	n, err := d.exec(d.dialect.goqu.Delete(tableBooks).Prepared(true).Where(goqu.Ex{colID: id}))
	if err != nil {
		return err
	}
	if n == 0 {
		d.logger.Warn(logMsgNoSuchBook, logAttrBookID, id)
		return nil
	}
	d.logger.Info(logMsgBookRemoved, logAttrBookID, id)
	return nil
}

// GetBook fetches a single book.
func (d *Database) GetBook(id string) (*Book, error) {
	books, err := d.selectBooks(d.books(goqu.Ex{colID: id}))
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrBookNotFound, id)
	}
	return books[0], nil
}

// BorrowBook lends an available book. The update only matches an available
// row, so an already borrowed book is never overwritten.
func (d *Database) BorrowBook(id string, loan Loan) error {
	loan.BorrowerName = strings.TrimSpace(loan.BorrowerName)
	if loan.BorrowerName == "" {
		return ErrEmptyBorrower
	}
	borrowed, err := time.Parse(DateLayout, loan.BorrowDate)
	if err != nil {
		return fmt.Errorf("borrow date: %w", err)
	}
	due, err := time.Parse(DateLayout, loan.DueDate)
	if err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	if due.Before(borrowed) {
		return fmt.Errorf("%w: due %s, borrowed %s", ErrInvalidDueDate, loan.DueDate, loan.BorrowDate)
	}

	upd := d.dialect.goqu.Update(tableBooks).Prepared(true).
		Set(goqu.Record{
			colStatus:       string(StatusBorrowed),
			colBorrowerName: loan.BorrowerName,
			colProgram:      loan.Program,
			colBorrowDate:   loan.BorrowDate,
			colDueDate:      loan.DueDate,
			colBorrowerID:   loan.BorrowerID,
		}).
		Where(goqu.C(colID).Eq(id), isAvailable())

	n, err := d.exec(upd)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := d.GetBook(id); err != nil {
			return err
		}
		return fmt.Errorf("%w: %q", ErrAlreadyBorrowed, id)
	}

	d.logger.Info(logMsgBookBorrowed, logAttrBookID, id, logAttrBorrowerID, loan.BorrowerID, logAttrDueDate, loan.DueDate)
	return nil
}

// ReturnBook makes the book available and clears every borrower field in one
// statement. Returning an available or unknown book changes nothing.
func (d *Database) ReturnBook(id string) error {
	upd := d.dialect.goqu.Update(tableBooks).Prepared(true).
		Set(goqu.Record{
			colStatus:       string(StatusAvailable),
			colBorrowerName: nil,
			colProgram:      nil,
			colBorrowDate:   nil,
			colDueDate:      nil,
			colBorrowerID:   nil,
		}).
		Where(goqu.Ex{colID: id})

	n, err := d.exec(upd)
	if err != nil {
		return err
	}
	if n == 0 {
		d.logger.Warn(logMsgNoSuchBook, logAttrBookID, id)
		return nil
	}
	d.logger.Info(logMsgBookReturned, logAttrBookID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// SearchBooks returns every book whose id, name, author, genre or year
// contains keyword, ignoring case. An empty keyword matches all books.
func (d *Database) SearchBooks(keyword string) ([]*Book, error) {
	return d.selectBooks(d.books(keywordFilter(keyword)...))
}

// AvailableBooks is SearchBooks restricted to books that can be borrowed.
func (d *Database) AvailableBooks(keyword string) ([]*Book, error) {
	return d.selectBooks(d.books(append(keywordFilter(keyword),
		isAvailable(),
	)...))
}

// BorrowedBooks is SearchBooks restricted to the books lent to borrowerID.
func (d *Database) BorrowedBooks(keyword string, borrowerID int64) ([]*Book, error) {
	return d.selectBooks(d.books(append(keywordFilter(keyword),
		goqu.C(colStatus).Eq(string(StatusBorrowed)),
		goqu.C(colBorrowerID).Eq(borrowerID),
	)...))
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// AddUser inserts a user whose password is already hashed.
func (d *Database) AddUser(u User) (int64, error) {
	ins := d.dialect.goqu.Insert(tableUsers).Prepared(true).
		Rows(goqu.Record{
			colUsername: u.Username,
			colPassword: u.Password,
			colProgram:  nullIfEmpty(u.Program),
		})
	if d.dialect.driver != DriverSQLite {
		// Postgres drivers do not implement LastInsertId.
		ins = ins.Returning(colUserID)
	}

	query, args, err := ins.ToSQL()
	if err != nil {
		d.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return 0, fmt.Errorf("build statement: %w", err)
	}

	var id int64
	if d.dialect.driver == DriverSQLite {
		var res sql.Result
		if res, err = d.db.Exec(query, args...); err == nil {
			id, err = res.LastInsertId()
		}
	} else {
		err = d.db.Get(&id, query, args...)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateUsername, u.Username)
		}
		d.logger.Error(logMsgDBExecFailed, logAttrError, err.Error(), logAttrQuery, query)
		return 0, err
	}
	d.logger.Debug(logMsgSQLExecuted, logAttrQuery, query)
	return id, nil
}

// UserByName fetches a user by login name. It returns sql.ErrNoRows when absent.
func (d *Database) UserByName(username string) (*User, error) {
	query, args, err := d.dialect.goqu.From(tableUsers).Prepared(true).
		Select(colUserID, colUsername, colPassword, colProgram).
		Where(goqu.Ex{colUsername: username}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row userRow
	if err := d.db.Get(&row, query, args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			d.logger.Error(logMsgDBQueryFailed, logAttrError, err.Error(), logAttrQuery, query)
		}
		return nil, err
	}
	return row.user(), nil
}

// SetPassword replaces the stored password hash of a user.
func (d *Database) SetPassword(userID int64, hash string) error {
	_, err := d.exec(d.dialect.goqu.Update(tableUsers).Prepared(true).
		Set(goqu.Record{colPassword: hash}).
		Where(goqu.Ex{colUserID: userID}))
	return err
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
