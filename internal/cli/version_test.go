package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	app := New()
	app.SetVersion("1.2.3", "abc1234", "2026-01-15T10:30:00Z")

	cmd := NewVersionCmd(app)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"1.2.3", "abc1234", "2026-01-15T10:30:00Z"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines of output, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "crew version ") {
		t.Errorf("first line should start with 'crew version ', got: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "commit: ") {
		t.Errorf("second line should start with 'commit: ', got: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "built: ") {
		t.Errorf("third line should start with 'built: ', got: %s", lines[2])
	}
}

func TestVersionCmd_DefaultValues(t *testing.T) {
	app := New()

	cmd := NewVersionCmd(app)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "dev") {
		t.Error("output should contain default version 'dev'")
	}
	if got := strings.Count(output, "unknown"); got != 2 {
		t.Errorf("expected 2 occurrences of 'unknown' (commit and date), got %d", got)
	}
}
