package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tally/internal/config"
	"github.com/naveenspark/tally/internal/expenses"
	"github.com/naveenspark/tally/internal/logging"
	"github.com/naveenspark/tally/internal/session"
	"github.com/naveenspark/tally/internal/tui"
	"github.com/naveenspark/tally/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", client.Message(err))
		os.Exit(1)
	}
}

// deps is everything the commands share, built once from config.
type deps struct {
	log      zerolog.Logger
	client   *client.Client
	auth     *session.Auth
	svc      *expenses.Service
	logClose io.Closer
}

func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		printSetupHint()
		return nil, err
	}

	log, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	c := client.New(cfg.URL, cfg.AnonKey,
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithLogger(logging.Component(log, "client")),
	)
	auth := session.New(c, session.NewFileStore(cfg.SessionFile), logging.Component(log, "session"))
	svc := expenses.NewService(c,
		expenses.WithStrictCategories(cfg.StrictCategories),
		expenses.WithLogger(logging.Component(log, "expenses")),
	)

	log.Info().Str("version", version).Bool("strict_categories", cfg.StrictCategories).Msg("starting")
	return &deps{log: log, client: c, auth: auth, svc: svc, logClose: closer}, nil
}

func run() error {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("tally " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	d, err := setup()
	if err != nil {
		return err
	}
	defer d.logClose.Close() //nolint:errcheck

	ctx := context.Background()
	if len(args) > 0 {
		switch args[0] {
		case "login":
			return runLogin(ctx, d.auth, false, os.Stdin, os.Stdout)
		case "signup":
			return runLogin(ctx, d.auth, true, os.Stdin, os.Stdout)
		case "logout":
			return runLogout(ctx, d.auth, os.Stdout)
		case "whoami":
			return runWhoami(ctx, d.auth, d.client, os.Stdout)
		case "list":
			return runList(ctx, d.auth, d.svc, os.Stdout)
		case "add":
			return runAdd(ctx, d.auth, d.svc, args[1:], os.Stdout, os.Stderr)
		default:
			return fmt.Errorf("unknown command %q (see: tally help)", args[0])
		}
	}

	app := tui.NewApp(d.auth, d.svc, version)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		d.log.Error().Err(err).Msg("tui exited")
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
