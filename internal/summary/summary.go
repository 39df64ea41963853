// Package summary digests a worker's activity record into a compact
// text block suitable for inclusion in a judge prompt.
package summary

import (
	"fmt"
	"strings"

	"github.com/driftworks/crew/internal/model"
)

const (
	// maxTextLines caps how many trailing text/thinking fragments are
	// quoted verbatim.
	maxTextLines = 3

	// maxLineLen truncates individual quoted lines.
	maxLineLen = 200
)

// Digest condenses a worker's activity into a few lines: counts per
// category, files touched, shell commands run, the last error, and
// the tail of the agent's own narration. Pure function; the worker is
// not mutated. Returns "" for a worker with no activity.
func Digest(w *model.Worker) string {
	if w == nil || len(w.Activity) == 0 {
		return ""
	}

	var (
		toolCalls int
		bashCmds  []string
		files     []string
		lastError string
		texts     []string
	)
	seenFile := map[string]bool{}

	for _, a := range w.Activity {
		switch a.Type {
		case model.ActivityToolCall:
			toolCalls++
		case model.ActivityBash:
			toolCalls++
			bashCmds = append(bashCmds, a.Summary)
		case model.ActivityFileEdit, model.ActivityFileCreate:
			toolCalls++
			if a.Summary != "" && !seenFile[a.Summary] {
				seenFile[a.Summary] = true
				files = append(files, a.Summary)
			}
		case model.ActivityError:
			lastError = a.Summary
		case model.ActivityText, model.ActivityThinking:
			if a.Summary != "" {
				texts = append(texts, a.Summary)
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d tool calls", toolCalls)
	if len(files) > 0 {
		fmt.Fprintf(&b, ", %d files touched", len(files))
	}
	if len(bashCmds) > 0 {
		fmt.Fprintf(&b, ", %d shell commands", len(bashCmds))
	}
	b.WriteString("\n")

	if len(files) > 0 {
		fmt.Fprintf(&b, "Files: %s\n", strings.Join(capList(files, 10), ", "))
	}
	if len(bashCmds) > 0 {
		fmt.Fprintf(&b, "Commands: %s\n", strings.Join(capList(bashCmds, 5), "; "))
	}
	if lastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", truncate(lastError))
	}

	if len(texts) > 0 {
		start := len(texts) - maxTextLines
		if start < 0 {
			start = 0
		}
		b.WriteString("Agent notes:\n")
		for _, line := range texts[start:] {
			fmt.Fprintf(&b, "  %s\n", truncate(line))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// capList returns at most n items, appending a "+N more" marker when
// items were dropped.
func capList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	out := make([]string, n, n+1)
	for i := range out {
		out[i] = truncate(items[i])
	}
	return append(out, fmt.Sprintf("+%d more", len(items)-n))
}

func truncate(s string) string {
	if len(s) <= maxLineLen {
		return s
	}
	return s[:maxLineLen] + "…"
}
