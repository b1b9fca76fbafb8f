package library

import (
	"database/sql"

	"github.com/google/uuid"
)

// Status is the lending state of a book.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusBorrowed  Status = "Borrowed"
)

// DateLayout is how borrow and due dates are stored.
const DateLayout = "2006-01-02"

// Book is one catalog item. Loan is non-nil exactly when the book is borrowed.
type Book struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Author        string `json:"author,omitempty"`
	Genre         string `json:"genre,omitempty"`
	YearPublished int    `json:"year_published"`
	Status        Status `json:"status"`
	Loan          *Loan  `json:"loan,omitempty"`
}

// Available reports whether the book can be borrowed.
func (b *Book) Available() bool { return b.Status != StatusBorrowed }

// Loan holds the borrower fields of a borrowed book. They are set and cleared together.
type Loan struct {
	BorrowerName string `json:"borrower_name"`
	Program      string `json:"program,omitempty"`
	BorrowDate   string `json:"borrow_date"`
	DueDate      string `json:"due_date"`
	BorrowerID   int64  `json:"borrower_id"`
}

// User is a registered borrower.
type User struct {
	ID       int64  `json:"u_id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash
	Program  string `json:"program,omitempty"`
}

// Session identifies the authenticated user on whose behalf loans are made.
type Session struct {
	ID       uuid.UUID
	UserID   int64
	Username string
	Program  string
}

// bookRow mirrors the books table; nullable columns scan into sql.Null* types.
type bookRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Author        sql.NullString `db:"author"`
	Genre         sql.NullString `db:"genre"`
	YearPublished sql.NullInt64  `db:"year_published"`
	Status        sql.NullString `db:"status"`
	BorrowerName  sql.NullString `db:"borrower_name"`
	Program       sql.NullString `db:"program"`
	BorrowDate    sql.NullString `db:"borrow_date"`
	DueDate       sql.NullString `db:"due_date"`
	BorrowerID    sql.NullInt64  `db:"borrower_id"`
}

func (r bookRow) book() *Book {
	b := &Book{
		ID:            r.ID,
		Name:          r.Name,
		Author:        r.Author.String,
		Genre:         r.Genre.String,
		YearPublished: int(r.YearPublished.Int64),
		Status:        StatusAvailable,
	}
	borrowed := Status(r.Status.String) == StatusBorrowed
	anyBorrowerField := r.BorrowerName.Valid || r.Program.Valid || r.BorrowDate.Valid ||
		r.DueDate.Valid || r.BorrowerID.Valid
	if borrowed || anyBorrowerField {
		b.Status = StatusBorrowed
		b.Loan = &Loan{
			BorrowerName: r.BorrowerName.String,
			Program:      r.Program.String,
			BorrowDate:   r.BorrowDate.String,
			DueDate:      r.DueDate.String,
			BorrowerID:   r.BorrowerID.Int64,
		}
	}
	return b
}

type userRow struct {
	ID       int64          `db:"u_id"`
	Username string         `db:"username"`
	Password string         `db:"password"`
	Program  sql.NullString `db:"program"`
}

func (r userRow) user() *User {
	return &User{ID: r.ID, Username: r.Username, Password: r.Password, Program: r.Program.String}
}
