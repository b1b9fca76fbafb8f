package library

import (
	"errors"
	"time"

	"library-circulation/table"
)

const (
	logMsgOperationFailed = "library operation failed"
	logAttrOperation      = "operation"
)

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
// It holds the session of the operator at the keyboard; every loan operation
// still takes the session explicitly.
type LibraryManager struct {
	db       *Database
	logger   Logger
	now      func() time.Time
	loanDays int

	session *Session
}

// NewLibraryManager opens (or creates) the database behind driver and dsn.
func NewLibraryManager(driver, dsn string, options ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(driver, dsn, options...)
	if err != nil {
		return nil, err
	}
	s := newSettings(options)
	return &LibraryManager{db: db, logger: s.logger, now: s.now, loanDays: s.loanDays}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Today is the current date as the manager sees it.
func (lm *LibraryManager) Today() time.Time { return lm.now() }

// LoanDays is the configured loan period.
func (lm *LibraryManager) LoanDays() int { return lm.loanDays }

// fail logs err at the operation boundary and hands it back to the caller.
// Expected outcomes such as a duplicate id are not storage failures and are
// not logged as errors.
func (lm *LibraryManager) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, expected := range []error{
		ErrDuplicateID, ErrDuplicateUsername, ErrAlreadyBorrowed, ErrBookNotFound,
		ErrEmptyID, ErrEmptyName, ErrEmptyBorrower, ErrEmptyCredentials,
		ErrInvalidCredentials, ErrInvalidDueDate, ErrNoSession,
	} {
		if errors.Is(err, expected) {
			return err
		}
	}
	lm.logger.Error(logMsgOperationFailed, logAttrOperation, op, logAttrError, err.Error())
	return err
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(id, name, author, genre string, year int) error {
	return lm.fail("add book", lm.db.AddBook(Book{ID: id, Name: name, Author: author, Genre: genre, YearPublished: year}))
}

func (lm *LibraryManager) RemoveBook(id string) error {
	return lm.fail("remove book", lm.db.RemoveBook(id))
}

func (lm *LibraryManager) GetBook(id string) (*Book, error) {
	b, err := lm.db.GetBook(id)
	return b, lm.fail("get book", err)
}

// ------------------ Circulation ------------------

// Borrow lends the book to the session's user from today for the configured
// loan period.
func (lm *LibraryManager) Borrow(s *Session, id, borrowerName, program string) error {
	today := lm.now()
	return lm.BorrowBook(s, id, borrowerName, program, today, DueDate(today, lm.loanDays))
}

// BorrowBook lends the book with explicit dates. The loan is recorded
// against the session's user.
func (lm *LibraryManager) BorrowBook(s *Session, id, borrowerName, program string, borrowDate, dueDate time.Time) error {
	if s == nil {
		return ErrNoSession
	}
	return lm.fail("borrow book", lm.db.BorrowBook(id, Loan{
		BorrowerName: borrowerName,
		Program:      program,
		BorrowDate:   borrowDate.Format(DateLayout),
		DueDate:      dueDate.Format(DateLayout),
		BorrowerID:   s.UserID,
	}))
}

func (lm *LibraryManager) ReturnBook(id string) error {
	return lm.fail("return book", lm.db.ReturnBook(id))
}

// ------------------ Views ------------------

// Search lists every book matching keyword.
func (lm *LibraryManager) Search(keyword string) (*table.Table, error) {
	books, err := lm.db.SearchBooks(keyword)
	return lm.view("search", books, err)
}

// ListAvailable lists the available books matching keyword.
func (lm *LibraryManager) ListAvailable(keyword string) (*table.Table, error) {
	books, err := lm.db.AvailableBooks(keyword)
	return lm.view("list available", books, err)
}

// ListBorrowed lists the books matching keyword that are lent to the
// session's user. Loans of other users are never included.
func (lm *LibraryManager) ListBorrowed(s *Session, keyword string) (*table.Table, error) {
	if s == nil {
		return BooksTable(nil, lm.now()), ErrNoSession
	}
	books, err := lm.db.BorrowedBooks(keyword, s.UserID)
	return lm.view("list borrowed", books, err)
}

// view materializes books; on failure it returns an empty table with the error.
func (lm *LibraryManager) view(op string, books []*Book, err error) (*table.Table, error) {
	if err != nil {
		return BooksTable(nil, lm.now()), lm.fail(op, err)
	}
	return BooksTable(books, lm.now()), nil
}

// ------------------ Users ------------------

func (lm *LibraryManager) Register(username, password, program string) (int64, error) {
	id, err := lm.db.Register(username, password, program)
	return id, lm.fail("register", err)
}

// Login authenticates the user and makes them the current session. A failed
// login leaves the current session untouched.
func (lm *LibraryManager) Login(username, password string) (*Session, error) {
	s, err := lm.db.Authenticate(username, password)
	if err != nil {
		return nil, lm.fail("login", err)
	}
	lm.session = s
	return s, nil
}

// Logout clears the current session.
func (lm *LibraryManager) Logout() { lm.session = nil }

// CurrentSession returns the logged-in user's session, or nil.
func (lm *LibraryManager) CurrentSession() *Session { return lm.session }
