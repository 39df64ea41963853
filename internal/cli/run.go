package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command: submit a goal and start working
// on it.
func NewRunCmd(app *App) *cobra.Command {
	var (
		dir     string
		workers int
		detach  bool
	)

	cmd := &cobra.Command{
		Use:   "run <goal>",
		Short: "Create and start a run for a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := dir
			if target == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				target = wd
			}
			target, err := filepath.Abs(target)
			if err != nil {
				return err
			}

			run, err := app.client().CreateRun(args[0], target, workers, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started run %s (%d workers max)\n", run.ID, run.MaxWorkers)

			if detach {
				return nil
			}
			return watchRun(cmd.Context(), app, run.ID)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Target directory (default: current directory)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Max parallel workers (1-10, 0 = default)")
	cmd.Flags().BoolVar(&detach, "detach", false, "Do not attach the live view")
	return cmd
}
