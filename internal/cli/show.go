package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftworks/crew/internal/model"
)

// NewShowCmd creates the show command: one run in detail.
func NewShowCmd(app *App) *cobra.Command {
	var showLogs bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's tasks, judgements and workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.client().GetRun(args[0])
			if err != nil {
				return err
			}
			printRunDetail(cmd.OutOrStdout(), run, showLogs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLogs, "logs", false, "Include worker log tails")
	return cmd
}

func printRunDetail(w io.Writer, run *model.Run, showLogs bool) {
	fmt.Fprintf(w, "Run %s  %s\n", styleID.Render(run.ID), renderRunStatus(run.Status))
	fmt.Fprintf(w, "Goal: %s\n", run.Goal)
	fmt.Fprintf(w, "Dir:  %s\n", run.TargetDir)
	fmt.Fprintf(w, "Workers: up to %d, created %s\n", run.MaxWorkers, run.CreatedAt.Format(time.RFC3339))
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", styleFailed.Render(run.Error))
	}
	if run.Analysis != "" {
		fmt.Fprintf(w, "\nAnalysis:\n%s\n", indent(run.Analysis, "  "))
	}

	if len(run.Tasks) > 0 {
		fmt.Fprintf(w, "\nTasks (%s):\n", taskCounts(run))
		for _, t := range run.Tasks {
			printTask(w, run, t)
		}
	}

	if len(run.Judgements) > 0 {
		fmt.Fprintln(w, "\nJudgements:")
		for _, j := range run.Judgements {
			task := run.Task(j.TaskID)
			title := j.TaskID
			if task != nil {
				title = task.Title
			}
			verdict := ""
			if j.GoalComplete {
				verdict = " " + styleCompleted.Render("[goal complete]")
			}
			fmt.Fprintf(w, "  %s%s\n%s\n", title, verdict, indent(j.Assessment, "    "))
		}
	}

	if showLogs {
		printWorkerLogs(w, run)
	}
}

func printTask(w io.Writer, run *model.Run, t *model.Task) {
	fmt.Fprintf(w, "  [%s] %s", renderTaskStatus(t.Status), t.Title)
	if len(t.DependsOn) > 0 {
		names := make([]string, 0, len(t.DependsOn))
		for _, id := range t.DependsOn {
			if dep := run.Task(id); dep != nil {
				names = append(names, dep.Title)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(w, "  (after: %s)", strings.Join(names, ", "))
		}
	}
	fmt.Fprintln(w)
	if t.Result != "" {
		fmt.Fprintf(w, "%s\n", indent(firstLines(t.Result, 3), "      "))
	}
	if t.Error != "" {
		fmt.Fprintf(w, "      %s\n", styleFailed.Render(t.Error))
	}
}

func printWorkerLogs(w io.Writer, run *model.Run) {
	for _, wk := range run.Workers {
		if len(wk.Logs) == 0 {
			continue
		}
		task := run.Task(wk.TaskID)
		title := wk.TaskID
		if task != nil {
			title = task.Title
		}
		fmt.Fprintf(w, "\nWorker %s (%s, %s):\n", wk.ID, title, wk.Status)
		tail := wk.Logs
		if len(tail) > 20 {
			tail = tail[len(tail)-20:]
		}
		for _, line := range tail {
			fmt.Fprintf(w, "  %s\n", styleMuted.Render(line))
		}
	}
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// firstLines keeps at most n lines of s.
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "…")
	}
	return strings.Join(lines, "\n")
}
