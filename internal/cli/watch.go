package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/driftworks/crew/internal/cli/tui"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
)

// NewWatchCmd creates the watch command for attaching to a run's
// event stream with a live view.
func NewWatchCmd(app *App) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "watch <run-id>",
		Short: "Attach a live view to a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if events.IsJSONMode(follow) {
				return followRun(cmd.Context(), app, args[0])
			}
			return watchRun(cmd.Context(), app, args[0])
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Plain line output instead of the TUI (automatic when piped)")
	return cmd
}

// watchRun drives the TUI until the run finishes or the user detaches.
func watchRun(parent context.Context, app *App, runID string) error {
	c := app.client()

	run, err := c.GetRun(runID)
	if err != nil {
		return err
	}
	if run.Status.IsTerminal() {
		return printRunOutcome(app, runID)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stream, err := c.Events(ctx, runID)
	if err != nil {
		return err
	}

	m := tui.NewModel(runID)
	m.Run = run

	program := tea.NewProgram(m, tea.WithContext(ctx))
	go tui.NewBridge(program).Pump(stream)

	final, err := program.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}
	if fm, ok := final.(*tui.Model); ok && fm.Quitting {
		fmt.Printf("detached from run %s, it keeps going\n", runID)
		return nil
	}
	return printRunOutcome(app, runID)
}

// followRun mirrors the run's event stream as NDJSON lines until the
// run finishes or the context is cancelled.
func followRun(ctx context.Context, app *App, runID string) error {
	c := app.client()

	run, err := c.GetRun(runID)
	if err != nil {
		return err
	}
	if run.Status.IsTerminal() {
		return printRunOutcome(app, runID)
	}

	stream, err := c.Events(ctx, runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for e := range stream {
		if err := enc.Encode(e); err != nil {
			return err
		}
		switch e.Type {
		case events.RunCompleted, events.RunFailed:
			return nil
		case events.RunUpdated:
			var r model.Run
			if json.Unmarshal(e.Payload, &r) == nil && r.Status.IsTerminal() {
				return nil
			}
		}
	}
	return ctx.Err()
}

// printRunOutcome fetches the run once more and prints its terminal
// state.
func printRunOutcome(app *App, runID string) error {
	run, err := app.client().GetRun(runID)
	if err != nil {
		return err
	}
	fmt.Printf("run %s %s (%s)\n", styleID.Render(run.ID), renderRunStatus(run.Status), taskCounts(run))
	if run.Error != "" {
		fmt.Printf("  error: %s\n", run.Error)
	}
	return nil
}
