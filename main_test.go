package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against the sqlite file at db with input on stdin.
func run(t *testing.T, db, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{
		in:     bufio.NewScanner(strings.NewReader(input)),
		out:    &out,
		errOut: &errOut,
	}
	cmd := a.rootCmd()
	cmd.SetArgs(append([]string{"--db", db, "--driver", "sqlite3"}, args...))
	err := cmd.Execute()
	if a.mgr != nil {
		require.NoError(t, a.mgr.Close())
	}
	return out.String() + errOut.String(), err
}

func TestCLICirculation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, db, "", "add", "b1", "The Dark Tower", "--author", "Stephen King", "--year", "1982")
	require.NoError(t, err)
	_, err = run(t, db, "", "add", "b2", "Misery", "--author", "Stephen King", "--year", "1987")
	require.NoError(t, err)

	out, err := run(t, db, "", "add", "b1", "Duplicate")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")

	_, err = run(t, db, "hunter2\n", "register", "ada", "--program", "BSCS")
	require.NoError(t, err)

	out, err = run(t, db, "", "borrow", "b2", "--user", "ada", "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "borrowed by ada")

	out, err = run(t, db, "", "borrow", "b2", "--user", "ada", "--password", "hunter2")
	require.Error(t, err)
	assert.Contains(t, out, "already borrowed")

	out, err = run(t, db, "", "borrow", "b1", "--user", "ada", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, out, "invalid username or password")

	out, err = run(t, db, "hunter2\n", "--output", "json", "borrowed", "king", "--user", "ada")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, jsoniter.Unmarshal([]byte(out[strings.Index(out, "["):strings.LastIndex(out, "]")+1]), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "b2", rows[0]["Book ID"])
	assert.Equal(t, "BSCS", rows[0]["Program"])
	assert.Equal(t, "14 days left", rows[0]["Days Remaining"])

	out, err = run(t, db, "", "available")
	require.NoError(t, err)
	assert.Contains(t, out, "The Dark Tower")
	assert.NotContains(t, out, "Misery")

	_, err = run(t, db, "", "return", "b2")
	require.NoError(t, err)
	out, err = run(t, db, "", "available", "--sort", "Year")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "The Dark Tower"), strings.Index(out, "Misery"))

	_, err = run(t, db, "", "search", "--sort", "isbn")
	assert.Error(t, err)
}

func TestShellSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shell.db")
	script := strings.Join([]string{
		"add book", "b1", "Carrie", "Stephen King", "Horror", "1974",
		"borrow",
		"register", "ada", "BSCS", "pw",
		"login", "ada", "pw",
		"whoami",
		"borrow", "b1", "", "", "2099-01-01",
		"my loans", "", "",
		"return", "b1",
		"exit",
	}, "\n") + "\n"

	out, err := run(t, db, script, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Added book b1")
	assert.Contains(t, out, "Please login first.")
	assert.Contains(t, out, "Logged in as ada")
	assert.Contains(t, out, "ada (ID: 1, program: BSCS)")
	assert.Contains(t, out, "Book b1 borrowed.")
	assert.Contains(t, out, "2099-01-01")
	assert.Contains(t, out, "Book b1 returned.")
	assert.Contains(t, out, "Goodbye!")
}
