package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-circulation/library"
	"library-circulation/table"
)

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session for one operator",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.runShell()
			return nil
		},
	}
}

func (a *app) runShell() {
	fmt.Fprintln(a.out, "Welcome to the Library Circulation Tracker!")
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  Account: register, login, logout, whoami")
	fmt.Fprintln(a.out, "  Books: add book, remove book, search, available")
	fmt.Fprintln(a.out, "  Circulation: borrow, return, my loans")
	fmt.Fprintln(a.out, "  System: exit")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Tips:")
	fmt.Fprintln(a.out, "  • Listings ask for a keyword and a column to sort by; press Enter to skip either")

	for {
		fmt.Fprint(a.out, "\n> ")
		if !a.in.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(a.in.Text()))

		switch cmd {
		case "register":
			a.handleRegister()
		case "login":
			a.handleLogin()
		case "logout":
			a.mgr.Logout()
			fmt.Fprintln(a.out, "Logged out.")
		case "whoami":
			a.handleWhoAmI()
		case "add book":
			a.handleAddBook()
		case "remove book":
			a.handleRemoveBook()
		case "search":
			a.handleList(a.searchView)
		case "available":
			a.handleList(a.availableView)
		case "borrow":
			a.handleBorrow()
		case "return":
			a.handleReturn()
		case "my loans":
			a.handleMyLoans()
		case "":
		case "exit":
			fmt.Fprintln(a.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

// prompt asks for one line of input. ok is false once input is exhausted.
func (a *app) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) handleRegister() {
	username, ok := a.prompt("Username: ")
	if !ok {
		return
	}
	program, ok := a.prompt("Program (optional): ")
	if !ok {
		return
	}
	password, err := a.readPassword(fmt.Sprintf("Enter password for %s: ", username))
	if err != nil {
		fmt.Fprintf(a.out, "Error reading password: %v\n", err)
		return
	}

	id, err := a.mgr.Register(username, password, program)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Registered '%s' with ID %d\n", username, id)
}

func (a *app) handleLogin() {
	username, ok := a.prompt("Username: ")
	if !ok {
		return
	}
	password, err := a.readPassword("Enter your password: ")
	if err != nil {
		fmt.Fprintf(a.out, "Error reading password: %v\n", err)
		return
	}

	s, err := a.mgr.Login(username, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.Username)
}

func (a *app) handleWhoAmI() {
	s := a.mgr.CurrentSession()
	if s == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return
	}
	fmt.Fprintf(a.out, "%s (ID: %d, program: %s)\n", s.Username, s.UserID, orNone(s.Program))
}

func (a *app) handleAddBook() {
	id, ok := a.prompt("Book ID: ")
	if !ok {
		return
	}
	name, ok := a.prompt("Title: ")
	if !ok {
		return
	}
	author, ok := a.prompt("Author: ")
	if !ok {
		return
	}
	genre, ok := a.prompt("Genre: ")
	if !ok {
		return
	}
	yearStr, ok := a.prompt("Year published: ")
	if !ok {
		return
	}

	year := 0
	if yearStr != "" {
		var err error
		if year, err = strconv.Atoi(yearStr); err != nil {
			fmt.Fprintf(a.out, "Invalid year: %s\n", yearStr)
			return
		}
	}

	if err := a.mgr.AddBook(id, name, author, genre, year); err != nil {
		fmt.Fprintf(a.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Added book %s\n", id)
}

func (a *app) handleRemoveBook() {
	id, ok := a.prompt("Book ID: ")
	if !ok {
		return
	}
	if err := a.mgr.RemoveBook(id); err != nil {
		fmt.Fprintf(a.out, "Error removing book: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Removed book %s\n", id)
}

func (a *app) handleBorrow() {
	s := a.mgr.CurrentSession()
	if s == nil {
		fmt.Fprintln(a.out, "Please login first.")
		return
	}

	id, ok := a.prompt("Book ID: ")
	if !ok {
		return
	}
	name, ok := a.prompt(fmt.Sprintf("Borrower name [%s]: ", s.Username))
	if !ok {
		return
	}
	program, ok := a.prompt(fmt.Sprintf("Program [%s]: ", orNone(s.Program)))
	if !ok {
		return
	}
	due, ok := a.prompt(fmt.Sprintf("Due date yyyy-mm-dd [%d days]: ", a.mgr.LoanDays()))
	if !ok {
		return
	}

	err := a.borrow(s, id, name, program, due)
	switch {
	case errors.Is(err, library.ErrAlreadyBorrowed):
		fmt.Fprintf(a.out, "Book %s is already borrowed.\n", id)
	case err != nil:
		fmt.Fprintf(a.out, "Error borrowing book: %v\n", err)
	default:
		fmt.Fprintf(a.out, "Book %s borrowed.\n", id)
	}
}

func (a *app) handleReturn() {
	id, ok := a.prompt("Book ID: ")
	if !ok {
		return
	}
	if err := a.mgr.ReturnBook(id); err != nil {
		fmt.Fprintf(a.out, "Error returning book: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Book %s returned.\n", id)
}

func (a *app) handleMyLoans() {
	s := a.mgr.CurrentSession()
	if s == nil {
		fmt.Fprintln(a.out, "Please login first.")
		return
	}
	a.handleList(func(kw string) (*table.Table, error) { return a.mgr.ListBorrowed(s, kw) })
}

func (a *app) handleList(view viewFunc) {
	keyword, ok := a.prompt("Keyword: ")
	if !ok {
		return
	}
	sortBy, ok := a.prompt("Sort by column: ")
	if !ok {
		return
	}
	// show reports its own errors.
	_ = a.show(view, keyword, sortBy)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(library.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want yyyy-mm-dd", s)
	}
	return t, nil
}
