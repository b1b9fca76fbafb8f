package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

func TestImportBooks(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"id": "1984", "name": "1984", "author": "George Orwell", "genre": "Dystopia", "year_published": 1949},
		{"id": "af", "name": "Animal Farm", "author": "George Orwell", "year_published": 1945},
		{"id": "1984", "name": "Nineteen Eighty-Four"},
		{"id": "x", "name": ""}
	]`), 0o644))

	books, err := readSeed(seed)
	require.NoError(t, err)
	require.Len(t, books, 4)

	mgr, err := library.NewLibraryManager(library.DriverSQLite, filepath.Join(dir, "lib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	var out bytes.Buffer
	imported, skipped := importBooks(mgr, books, &out)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, skipped)
	assert.Contains(t, out.String(), "Skipping 1984")

	b, err := mgr.GetBook("1984")
	require.NoError(t, err)
	assert.Equal(t, "Dystopia", b.Genre)
	assert.Equal(t, 1949, b.YearPublished)
}

func TestReadSeedRejectsMalformedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{"id": 1}`), 0o644))

	_, err := readSeed(seed)
	assert.Error(t, err)
}
