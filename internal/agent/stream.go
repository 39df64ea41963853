package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/driftworks/crew/internal/model"
)

// streamEvent is one line of the CLI's stream-json output.
type streamEvent struct {
	Type    string        `json:"type"`
	Subtype string        `json:"subtype,omitempty"`
	Message *streamMsg    `json:"message,omitempty"`
	Result  string        `json:"result,omitempty"`
	IsError bool          `json:"is_error,omitempty"`
	Error   *streamsError `json:"error,omitempty"`
}

type streamMsg struct {
	Role    string          `json:"role"`
	Content []contentBlock  `json:"content"`
}

type contentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

type streamsError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// parsedLine is the digestible form of one stream line.
type parsedLine struct {
	Activity []model.Activity
	Result   string // final result text, set for type "result"
	IsResult bool
	IsError  bool
}

// maxSummaryLen bounds activity summaries; full content stays in the
// raw log line.
const maxSummaryLen = 160

// parseStreamLine maps one stream-json line to activity records.
// Unknown event types yield no activity and no error.
func parseStreamLine(line []byte, now time.Time) (parsedLine, error) {
	var ev streamEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return parsedLine{}, fmt.Errorf("invalid stream line: %w", err)
	}

	var out parsedLine
	switch ev.Type {
	case "assistant":
		if ev.Message == nil {
			return out, nil
		}
		for _, block := range ev.Message.Content {
			if a, ok := blockToActivity(block, now); ok {
				out.Activity = append(out.Activity, a)
			}
		}

	case "result":
		out.IsResult = true
		out.Result = ev.Result
		if ev.IsError || strings.HasPrefix(ev.Subtype, "error") {
			out.IsError = true
			out.Activity = append(out.Activity, model.Activity{
				Type:    model.ActivityError,
				Summary: clip(firstNonEmpty(ev.Result, ev.Subtype)),
				Time:    now,
			})
		}

	case "error":
		out.IsError = true
		msg := ev.Subtype
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		out.Activity = append(out.Activity, model.Activity{
			Type:    model.ActivityError,
			Summary: clip(msg),
			Time:    now,
		})
	}
	return out, nil
}

// blockToActivity classifies one assistant content block.
func blockToActivity(block contentBlock, now time.Time) (model.Activity, bool) {
	switch block.Type {
	case "text":
		if strings.TrimSpace(block.Text) == "" {
			return model.Activity{}, false
		}
		return model.Activity{Type: model.ActivityText, Summary: clip(block.Text), Time: now}, true

	case "thinking":
		if strings.TrimSpace(block.Thinking) == "" {
			return model.Activity{}, false
		}
		return model.Activity{Type: model.ActivityThinking, Summary: clip(block.Thinking), Time: now}, true

	case "tool_use":
		return toolActivity(block, now), true
	}
	return model.Activity{}, false
}

// toolActivity maps a tool_use block to the activity vocabulary.
func toolActivity(block contentBlock, now time.Time) model.Activity {
	var input struct {
		FilePath string `json:"file_path"`
		Command  string `json:"command"`
	}
	_ = json.Unmarshal(block.Input, &input)

	switch block.Name {
	case "Bash":
		return model.Activity{Type: model.ActivityBash, Summary: clip(input.Command), Time: now}
	case "Write":
		return model.Activity{Type: model.ActivityFileCreate, Summary: input.FilePath, Time: now}
	case "Edit", "MultiEdit", "NotebookEdit":
		return model.Activity{Type: model.ActivityFileEdit, Summary: input.FilePath, Time: now}
	}

	summary := block.Name
	if input.FilePath != "" {
		summary = fmt.Sprintf("%s %s", block.Name, input.FilePath)
	}
	return model.Activity{Type: model.ActivityToolCall, Summary: clip(summary), Time: now}
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSummaryLen {
		return s[:maxSummaryLen] + "…"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
