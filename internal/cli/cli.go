// Package cli wires the crew command tree. The serve command hosts
// the daemon; every other command talks to it over HTTP.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/driftworks/crew/internal/client"
	"github.com/driftworks/crew/internal/config"
)

// VersionInfo carries build-time metadata set via ldflags.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the CLI application with its wired dependencies.
type App struct {
	rootCmd *cobra.Command

	addr        string
	versionInfo VersionInfo
}

// New creates the CLI application.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion records build metadata for the version command.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "crew",
		Short: "Orchestrate autonomous coding agent fleets",
		Long: `Crew plans a goal into tasks, runs them in parallel with coding
agents, and judges progress after every task until the goal is done.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVar(&a.addr, "addr", defaultAddr(),
		"Daemon address (host:port)")

	a.rootCmd.AddCommand(
		NewServeCmd(a),
		NewRunCmd(a),
		NewRunsCmd(a),
		NewShowCmd(a),
		NewStopCmd(a),
		NewPauseCmd(a),
		NewResumeCmd(a),
		NewWatchCmd(a),
		NewVersionCmd(a),
	)
}

// client builds an HTTP client for the configured daemon address.
func (a *App) client() *client.Client {
	return client.New(a.addr)
}

func defaultAddr() string {
	if v := os.Getenv("CREW_ADDR"); v != "" {
		return v
	}
	return config.DefaultListen
}
