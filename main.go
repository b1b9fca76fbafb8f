package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-circulation/config"
	"library-circulation/library"
	"library-circulation/table"
)

// app carries what every command needs once the root command has run.
type app struct {
	cfg config.Config
	mgr *library.LibraryManager

	in     *bufio.Scanner
	stdin  *os.File
	out    io.Writer
	errOut io.Writer
}

func main() {
	a := &app{
		in:     bufio.NewScanner(os.Stdin),
		stdin:  os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	err := a.rootCmd().Execute()
	if a.mgr != nil {
		a.mgr.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	cfg, envErr := config.Load()
	a.cfg = cfg

	root := &cobra.Command{
		Use:           "library",
		Short:         "Track the lending state of a library catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if envErr != nil {
				return a.report(envErr)
			}
			if err := a.cfg.Validate(); err != nil {
				return a.report(err)
			}
			logger := a.cfg.NewLogger(a.errOut)
			mgr, err := library.NewLibraryManager(a.cfg.Driver, a.cfg.DSN, a.cfg.Options(logger)...)
			if err != nil {
				return a.report(fmt.Errorf("opening database: %w", err))
			}
			a.mgr = mgr
			return nil
		},
	}
	a.cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		a.addCmd(),
		a.removeCmd(),
		a.registerCmd(),
		a.borrowCmd(),
		a.returnCmd(),
		a.listCmd("search", "List every book matching a keyword", a.searchView),
		a.listCmd("available", "List the available books matching a keyword", a.availableView),
		a.borrowedCmd(),
		a.shellCmd(),
	)
	return root
}

// report prints err for the operator and hands it back so cobra exits non-zero.
func (a *app) report(err error) error {
	fmt.Fprintf(a.errOut, "Error: %v\n", err)
	return err
}

func (a *app) addCmd() *cobra.Command {
	var author, genre string
	var year int
	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add a book to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.mgr.AddBook(args[0], args[1], author, genre, year); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Added book %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().StringVar(&genre, "genre", "", "genre")
	cmd.Flags().IntVar(&year, "year", 0, "year published")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.mgr.RemoveBook(args[0]); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Removed book %s\n", args[0])
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var program, password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a borrower account",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.readPassword(fmt.Sprintf("Enter password for %s: ", args[0])); err != nil {
					return a.report(err)
				}
			}
			id, err := a.mgr.Register(args[0], password, program)
			if err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Registered '%s' with ID %d\n", args[0], id)
			return nil
		},
	}
	cmd.Flags().StringVar(&program, "program", "", "borrower's program")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

// credentials are the login flags of commands acting for a user.
type credentials struct {
	user, password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.user, "user", "u", "", "username to act as")
	cmd.Flags().StringVar(&c.password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("user")
}

func (a *app) login(c credentials) (*library.Session, error) {
	password := c.password
	if password == "" {
		var err error
		if password, err = a.readPassword("Enter your password: "); err != nil {
			return nil, err
		}
	}
	return a.mgr.Login(c.user, password)
}

func (a *app) borrowCmd() *cobra.Command {
	var creds credentials
	var name, program, due string
	cmd := &cobra.Command{
		Use:   "borrow <id>",
		Short: "Borrow an available book",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.login(creds)
			if err != nil {
				return a.report(err)
			}
			if err := a.borrow(s, args[0], name, program, due); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Book %s borrowed by %s\n", args[0], s.Username)
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "borrower name (defaults to the username)")
	cmd.Flags().StringVar(&program, "program", "", "borrower program (defaults to the user's)")
	cmd.Flags().StringVar(&due, "due", "", "due date yyyy-mm-dd (defaults to the loan period)")
	return cmd
}

// borrow fills the defaults of a loan from the session before lending.
func (a *app) borrow(s *library.Session, id, name, program, due string) error {
	if strings.TrimSpace(name) == "" {
		name = s.Username
	}
	if strings.TrimSpace(program) == "" {
		program = s.Program
	}
	if strings.TrimSpace(due) == "" {
		return a.mgr.Borrow(s, id, name, program)
	}
	dueDate, err := parseDate(due)
	if err != nil {
		return err
	}
	return a.mgr.BorrowBook(s, id, name, program, a.mgr.Today(), dueDate)
}

func (a *app) returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.mgr.ReturnBook(args[0]); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Book %s returned\n", args[0])
			return nil
		},
	}
}

type viewFunc func(keyword string) (*table.Table, error)

func (a *app) searchView(kw string) (*table.Table, error)    { return a.mgr.Search(kw) }
func (a *app) availableView(kw string) (*table.Table, error) { return a.mgr.ListAvailable(kw) }

func (a *app) listCmd(use, short string, view viewFunc) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   use + " [keyword]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.show(view, strings.Join(args, ""), sortBy)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to order the rows by")
	return cmd
}

func (a *app) borrowedCmd() *cobra.Command {
	var creds credentials
	var sortBy string
	cmd := &cobra.Command{
		Use:   "borrowed [keyword]",
		Short: "List the books you have borrowed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.login(creds)
			if err != nil {
				return a.report(err)
			}
			return a.show(func(kw string) (*table.Table, error) {
				return a.mgr.ListBorrowed(s, kw)
			}, strings.Join(args, ""), sortBy)
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to order the rows by")
	return cmd
}

// show runs a view, orders it when asked, and prints it in the configured format.
func (a *app) show(view viewFunc, keyword, sortBy string) error {
	tbl, err := view(keyword)
	if err != nil {
		return a.report(err)
	}
	if sortBy != "" {
		if err := tbl.SortByName(sortBy); err != nil {
			return a.report(err)
		}
	}
	if a.cfg.Output == config.OutputJSON {
		return tbl.WriteJSON(a.out)
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(a.out, "No books found.")
		return nil
	}
	return tbl.WriteText(a.out)
}

// readPassword reads a password with masking when stdin is a terminal, and
// a plain line otherwise.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if a.stdin != nil && term.IsTerminal(int(a.stdin.Fd())) {
		bytePassword, err := term.ReadPassword(int(a.stdin.Fd()))
		fmt.Fprintln(a.out) // Add newline after password input
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}
	if !a.in.Scan() {
		return "", fmt.Errorf("failed to read password: %w", io.ErrUnexpectedEOF)
	}
	return strings.TrimSpace(a.in.Text()), nil
}
