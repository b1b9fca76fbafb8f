package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"

	"library-circulation/config"
	"library-circulation/library"
)

// seedBook is one entry of the catalog file.
type seedBook struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   int    `json:"year_published"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fs := pflag.NewFlagSet("import_books", pflag.ExitOnError)
	cfg.BindFlags(fs)
	file := fs.StringP("file", "f", "books.json", "JSON array of books to import")
	fresh := fs.Bool("fresh", false, "delete the sqlite database files before importing")
	_ = fs.Parse(os.Args[1:])

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *fresh && cfg.Driver == library.DriverSQLite {
		// Clean up any existing database files
		fmt.Println("Cleaning up existing database files...")
		for _, f := range []string{cfg.DSN, cfg.DSN + "-shm", cfg.DSN + "-wal"} {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", f, err)
			}
		}
	}

	books, err := readSeed(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	manager, err := library.NewLibraryManager(cfg.Driver, cfg.DSN, cfg.Options(cfg.NewLogger(os.Stderr))...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	imported, skipped := importBooks(manager, books, os.Stdout)
	fmt.Printf("\nImport complete! %d books imported, %d skipped.\n", imported, skipped)
}

func readSeed(path string) ([]seedBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var books []seedBook
	if err := jsoniter.NewDecoder(f).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return books, nil
}

// importBooks adds every book, skipping ids already in the catalog.
func importBooks(mgr *library.LibraryManager, books []seedBook, out io.Writer) (imported, skipped int) {
	for _, b := range books {
		err := mgr.AddBook(b.ID, b.Name, b.Author, b.Genre, b.Year)
		switch {
		case errors.Is(err, library.ErrDuplicateID):
			fmt.Fprintf(out, "Skipping %s: already in the catalog\n", b.ID)
			skipped++
		case err != nil:
			fmt.Fprintf(out, "Error importing %s: %v\n", b.ID, err)
			skipped++
		default:
			fmt.Fprintf(out, "Imported: %s by %s (ID: %s)\n", b.Name, b.Author, b.ID)
			imported++
		}
	}
	return imported, skipped
}
