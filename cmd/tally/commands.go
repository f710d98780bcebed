package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/naveenspark/tally/internal/expenses"
	"github.com/naveenspark/tally/internal/session"
	"github.com/naveenspark/tally/pkg/domain"
)

// withSession runs fn under a live session, refreshing an expired or
// rejected token once, and points the user at login when there is none.
func withSession(ctx context.Context, auth *session.Auth, fn func(s *domain.Session) error) error {
	_, err := auth.Do(ctx, fn)
	if errors.Is(err, session.ErrNotSignedIn) {
		return fmt.Errorf("%w (run: tally login)", err)
	}
	return err
}

func runLogin(ctx context.Context, auth *session.Auth, signUp bool, stdin io.Reader, stdout io.Writer) error {
	r := bufio.NewReader(stdin)

	fmt.Fprint(stdout, "Email: ") //nolint:errcheck
	email, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || email == "") {
		return fmt.Errorf("read email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Fprint(stdout, "Password: ") //nolint:errcheck
	password, err := readPassword(stdin, r)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Fprintln(stdout) //nolint:errcheck

	if signUp {
		if err := auth.SignUp(ctx, email, password); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Account created! You can now sign in with: tally login") //nolint:errcheck
		return nil
	}

	if err := auth.SignIn(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Signed in as %s\n", email) //nolint:errcheck
	return nil
}

// readPassword reads without echo when stdin is a terminal, otherwise one line
// from r (pipes and tests).
func readPassword(stdin io.Reader, r *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(ctx context.Context, auth *session.Auth, stdout io.Writer) error {
	s, err := auth.GetSession(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintln(stdout, "Already logged out.") //nolint:errcheck
		return nil
	}
	if err := auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Logged out.") //nolint:errcheck
	return nil
}

type userGetter interface {
	GetUser(ctx context.Context) (*domain.User, error)
}

// runWhoami checks the stored token against the server.
func runWhoami(ctx context.Context, auth *session.Auth, users userGetter, stdout io.Writer) error {
	var u *domain.User
	err := withSession(ctx, auth, func(*domain.Session) error {
		var err error
		u, err = users.GetUser(ctx)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s (%s)\n", u.Email, u.ID) //nolint:errcheck
	return nil
}

func runList(ctx context.Context, auth *session.Auth, svc *expenses.Service, stdout io.Writer) error {
	var rows []expenses.Row
	err := withSession(ctx, auth, func(*domain.Session) error {
		var err error
		rows, err = svc.List(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, `No expenses yet. Run "tally add" to add one!`) //nolint:errcheck
		return nil
	}

	var total float64
	for _, r := range rows {
		total += r.Amount
		fmt.Fprintf(stdout, "%-10s  %-14s  %10s  %s\n", //nolint:errcheck
			r.Date, r.CategoryName, domain.FormatAmount(r.Amount), r.Description)
	}
	fmt.Fprintf(stdout, "\n%d expenses, total %s\n", len(rows), domain.FormatAmount(total)) //nolint:errcheck
	return nil
}

func runAdd(ctx context.Context, auth *session.Auth, svc *expenses.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)

	amount := fs.String("amount", "", "Amount, e.g. 42.50")
	category := fs.String("category", "", "Category: "+strings.Join(domain.Categories, ", "))
	description := fs.String("description", "", "What the money was spent on")
	date := fs.String("date", domain.Today(time.Now()), "Date as YYYY-MM-DD")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	d := expenses.Draft{Amount: *amount, Category: *category, Description: *description, Date: *date}
	if _, err := d.Validate(); err != nil {
		fmt.Fprintln(stdout, "Usage: tally add -amount <n> -category <name> -description <text> [-date YYYY-MM-DD]") //nolint:errcheck
		return err
	}

	var e *domain.Expense
	err := withSession(ctx, auth, func(s *domain.Session) error {
		var err error
		e, err = svc.Add(ctx, s.User.ID, d)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Expense added successfully: %s %s on %s\n", //nolint:errcheck
		e.Description, domain.FormatAmount(e.Amount), domain.FormatDate(e.Date))
	return nil
}
