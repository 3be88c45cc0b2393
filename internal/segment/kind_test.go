package segment

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
)

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestConstantCompute(t *testing.T) {
	c := NewConstant("hello")
	for i := 0; i < 3; i++ {
		if got := c.Compute(context.Background()); got != "hello" {
			t.Errorf("Compute() = %q, want %q", got, "hello")
		}
	}
}

func TestCommandOutputTrim(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name string
		trim bool
		want string
	}{
		{"trimmed", true, "hello"},
		{"untrimmed", false, "  hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCommandOutput("sh", []string{"-c", "printf '  hello\\n'"}, tt.trim, nil)
			if got := c.Compute(context.Background()); got != tt.want {
				t.Errorf("Compute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandOutputSpawnFailure(t *testing.T) {
	logger, buf := newCaptureLogger()
	c := NewCommandOutput("/nonexistent/program", []string{"a"}, true, logger)

	if got := c.Compute(context.Background()); got != ErrorText {
		t.Errorf("Compute() = %q, want %q", got, ErrorText)
	}
	if !strings.Contains(buf.String(), "/nonexistent/program") {
		t.Errorf("warning should name the program, got %q", buf.String())
	}
}

func TestCommandOutputNonZeroExitKeepsStdout(t *testing.T) {
	requireShell(t)
	logger, buf := newCaptureLogger()
	c := NewCommandOutput("sh", []string{"-c", "echo partial; echo oops >&2; exit 3"}, true, logger)

	if got := c.Compute(context.Background()); got != "partial" {
		t.Errorf("Compute() = %q, want %q", got, "partial")
	}
	log := buf.String()
	if !strings.Contains(log, "level=WARN") || !strings.Contains(log, "oops") {
		t.Errorf("expected warning with stderr, got %q", log)
	}
}

func TestCommandOutputInvalidUTF8(t *testing.T) {
	requireShell(t)
	logger, buf := newCaptureLogger()
	c := NewCommandOutput("sh", []string{"-c", "printf 'a\\377b'"}, true, logger)

	got := c.Compute(context.Background())
	if got != "a�b" {
		t.Errorf("Compute() = %q, want %q", got, "a�b")
	}
	if !strings.Contains(buf.String(), "invalid UTF-8") {
		t.Errorf("expected UTF-8 warning, got %q", buf.String())
	}
}

func TestCommandOutputArgsCopied(t *testing.T) {
	args := []string{"x"}
	c := NewCommandOutput("echo", args, true, nil)
	args[0] = "y"

	if got := c.Args(); got[0] != "x" {
		t.Errorf("Args() = %v, constructor should copy its input", got)
	}
	if c.Program() != "echo" {
		t.Errorf("Program() = %q", c.Program())
	}
	if s := c.String(); s != "program(echo x)" {
		t.Errorf("String() = %q", s)
	}
}
