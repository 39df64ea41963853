package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftworks/crew/internal/model"
)

// NewStopCmd creates the stop command.
func NewStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <run-id>",
		Short: "Stop a run and cancel its workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.client().StopRun(args[0])
			if err != nil {
				return err
			}
			printTransition(cmd, run)
			return nil
		},
	}
}

// NewPauseCmd creates the pause command.
func NewPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <run-id>",
		Short: "Pause an active run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.client().PauseRun(args[0])
			if err != nil {
				return err
			}
			printTransition(cmd, run)
			return nil
		},
	}
}

// NewResumeCmd creates the resume command.
func NewResumeCmd(app *App) *cobra.Command {
	var attach bool

	cmd := &cobra.Command{
		Use:   "resume <run-id>",
		Short: "Resume a paused or stopped run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.client().ResumeRun(args[0])
			if err != nil {
				return err
			}
			printTransition(cmd, run)
			if attach {
				return watchRun(cmd.Context(), app, run.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&attach, "attach", false, "Attach the live view after resuming")
	return cmd
}

func printTransition(cmd *cobra.Command, run *model.Run) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s is now %s\n", styleID.Render(run.ID), renderRunStatus(run.Status))
}
