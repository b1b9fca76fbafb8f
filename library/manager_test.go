package library

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/table"
)

var fixedToday = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func newManager(t *testing.T, options ...Option) *LibraryManager {
	dir := t.TempDir()
	options = append([]Option{WithClock(func() time.Time { return fixedToday })}, options...)
	mgr, err := NewLibraryManager(DriverSQLite, filepath.Join(dir, "lib.db"), options...)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func login(t *testing.T, mgr *LibraryManager, username string) *Session {
	t.Helper()
	_, err := mgr.Register(username, "pw-"+username, "BSCS")
	require.NoError(t, err)
	s, err := mgr.Login(username, "pw-"+username)
	require.NoError(t, err)
	return s
}

func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	col, err := tbl.ColumnIndex(name)
	require.NoError(t, err)
	out := make([]string, 0, tbl.Len())
	for _, row := range tbl.Rows {
		out = append(out, row.At(col).String())
	}
	return out
}

func TestBorrowUsesClockAndLoanPeriod(t *testing.T) {
	mgr := newManager(t, WithLoanDays(7))
	s := login(t, mgr, "ada")
	require.NoError(t, mgr.AddBook("b1", "Dune", "Herbert", "SF", 1965))

	require.NoError(t, mgr.Borrow(s, "b1", "Ada Lovelace", "BSCS"))

	b, err := mgr.GetBook("b1")
	require.NoError(t, err)
	require.NotNil(t, b.Loan)
	assert.Equal(t, "2024-01-10", b.Loan.BorrowDate)
	assert.Equal(t, "2024-01-17", b.Loan.DueDate)
	assert.Equal(t, s.UserID, b.Loan.BorrowerID)

	tbl, err := mgr.ListBorrowed(s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"7 days left"}, column(t, tbl, ColDaysRemaining))
}

func TestBorrowedViewIsScopedToSession(t *testing.T) {
	mgr := newManager(t)
	alice := login(t, mgr, "alice")
	bob := login(t, mgr, "bob")
	require.NoError(t, mgr.AddBook("b1", "The King in Yellow", "Chambers", "Horror", 1895))
	require.NoError(t, mgr.AddBook("b2", "King Solomon's Mines", "Haggard", "Adventure", 1885))

	require.NoError(t, mgr.Borrow(alice, "b1", "Alice", "BSCS"))
	require.NoError(t, mgr.Borrow(bob, "b2", "Bob", "BSIT"))

	tbl, err := mgr.ListBorrowed(alice, "king")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, column(t, tbl, ColBookID))

	tbl, err = mgr.ListBorrowed(bob, "king")
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, column(t, tbl, ColBookID))

	_, err = mgr.ListBorrowed(nil, "")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, mgr.Borrow(nil, "b1", "x", ""), ErrNoSession)
}

func TestViewsDeriveDaysRemaining(t *testing.T) {
	mgr := newManager(t)
	s := login(t, mgr, "ada")
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		require.NoError(t, mgr.AddBook(id, "Book "+id, "", "", 2000))
	}
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, mgr.BorrowBook(s, "b1", "Ada", "", day(1), day(10)))
	require.NoError(t, mgr.BorrowBook(s, "b2", "Ada", "", day(1), day(5)))
	require.NoError(t, mgr.BorrowBook(s, "b3", "Ada", "", day(1), day(15)))

	tbl, err := mgr.Search("")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"DUE TODAY", "OVERDUE (5 days)", "5 days left", "N/A"},
		column(t, tbl, ColDaysRemaining))

	available, err := mgr.ListAvailable("")
	require.NoError(t, err)
	assert.Equal(t, []string{"b4"}, column(t, available, ColBookID))
}

func TestViewsSortByColumn(t *testing.T) {
	mgr := newManager(t)
	require.NoError(t, mgr.AddBook("b1", "Zorba", "Kazantzakis", "", 1946))
	require.NoError(t, mgr.AddBook("b2", "anna karenina", "Tolstoy", "Novel", 1878))
	require.NoError(t, mgr.AddBook("b3", "Beloved", "Morrison", "Novel", 1987))

	tbl, err := mgr.Search("")
	require.NoError(t, err)

	require.NoError(t, tbl.SortByName(ColBookName))
	assert.Equal(t, []string{"b2", "b3", "b1"}, column(t, tbl, ColBookID))

	require.NoError(t, tbl.SortByName(ColYear))
	assert.Equal(t, []string{"b2", "b1", "b3"}, column(t, tbl, ColBookID))

	require.NoError(t, tbl.SortByName(ColGenre))
	assert.Equal(t, "b1", column(t, tbl, ColBookID)[0])
}

func TestLoginFailureKeepsSession(t *testing.T) {
	mgr := newManager(t)
	s := login(t, mgr, "ada")
	assert.Equal(t, s, mgr.CurrentSession())

	_, err := mgr.Login("ada", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, s, mgr.CurrentSession())

	mgr.Logout()
	assert.Nil(t, mgr.CurrentSession())
}

func TestStorageFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	mgr := newManager(t, WithLogger(logger))

	require.NoError(t, mgr.AddBook("b1", "Emma", "Austen", "", 1815))
	assert.ErrorIs(t, mgr.AddBook("b1", "Emma", "Austen", "", 1815), ErrDuplicateID)
	assert.Contains(t, buf.String(), logMsgBookAdded)

	require.NoError(t, mgr.Close())
	tbl, err := mgr.Search("")
	require.Error(t, err)
	assert.Zero(t, tbl.Len())
	assert.Contains(t, buf.String(), logMsgOperationFailed)
}
