package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)
	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
	cmdStyle  = lipgloss.NewStyle().Bold(true)
	descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	varStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844"))
)

func printHelp() {
	title := titleStyle.Render("T A L L Y")
	quote := quoteStyle.Render("Every dollar accounted for.")

	commands := []struct{ cmd, desc string }{
		{"tally", "Open the expense tracker (interactive TUI)"},
		{"tally login", "Sign in with email and password"},
		{"tally signup", "Create an account"},
		{"tally logout", "Clear your session"},
		{"tally whoami", "Show the signed-in account"},
		{"tally list", "Print your expenses, newest first"},
		{"tally add", "Add an expense (-amount -category -description -date)"},
		{"tally --version", "Show version"},
		{"tally help", "You are here"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Commands:\n", title, quote)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Println()
	printEnv()
}

// printSetupHint is shown when the backend is not configured yet.
func printSetupHint() {
	fmt.Printf("\n  %s\n\n  %s\n\n", titleStyle.Render("TALLY"),
		quoteStyle.Render("No backend configured. Set these in your environment or a .env file:"))
	printEnv()
}

func printEnv() {
	vars := []struct{ name, desc string }{
		{"TALLY_URL", "Backend project URL (required)"},
		{"TALLY_ANON_KEY", "Public anon API key (required)"},
		{"TALLY_SESSION_FILE", "Session file (default ~/.tally/session.json)"},
		{"TALLY_LOG_FILE", "Log file, - for stderr (default ~/.tally/tally.log)"},
		{"TALLY_LOG_LEVEL", "debug, info, warn, error (default info)"},
		{"TALLY_STRICT_CATEGORIES", "Reject unknown categories (default false)"},
		{"TALLY_HTTP_TIMEOUT", "HTTP timeout (default 30s)"},
	}
	fmt.Println("  Environment:")
	for _, v := range vars {
		fmt.Printf("    %s  %s\n", varStyle.Render(fmt.Sprintf("%-24s", v.name)), descStyle.Render(v.desc))
	}
	fmt.Println()
}
