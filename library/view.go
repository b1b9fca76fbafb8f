package library

import (
	"time"

	"library-circulation/table"
)

// Column names of the catalog views.
const (
	ColBookID        = "Book ID"
	ColBookName      = "Book Name"
	ColAuthor        = "Author"
	ColGenre         = "Genre"
	ColYear          = "Year"
	ColStatus        = "Status"
	ColBorrower      = "Borrower"
	ColProgram       = "Program"
	ColBorrowDate    = "Borrow Date"
	ColDueDate       = "Due Date"
	ColDaysRemaining = "Days Remaining"
)

// BooksTable materializes books as a table, deriving Days Remaining from
// each due date as of today.
func BooksTable(books []*Book, today time.Time) *table.Table {
	t := table.New(ColBookID, ColBookName, ColAuthor, ColGenre, ColYear, ColStatus,
		ColBorrower, ColProgram, ColBorrowDate, ColDueDate, ColDaysRemaining)

	for _, b := range books {
		loan := b.Loan
		if loan == nil {
			loan = &Loan{}
		}
		t.Append(
			table.TextCell(b.ID),
			table.TextCell(b.Name),
			table.OptionalText(b.Author),
			table.OptionalText(b.Genre),
			table.IntCell(int64(b.YearPublished)),
			table.TextCell(string(b.Status)),
			table.OptionalText(loan.BorrowerName),
			table.OptionalText(loan.Program),
			table.OptionalText(loan.BorrowDate),
			table.OptionalText(loan.DueDate),
			table.TextCell(DaysRemaining(loan.DueDate, today)),
		)
	}
	return t
}
