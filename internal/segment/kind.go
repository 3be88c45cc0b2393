// Package segment provides the units a status line is built from.
// A Segment pairs a value source (a Kind) with its decoration, refresh
// interval and signal subscriptions.
package segment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// ErrorText is the value a CommandOutput yields when its program cannot be started.
const ErrorText = "ERROR"

// Kind computes the raw value of a segment.
// Compute never fails; problems are logged and folded into the returned text.
type Kind interface {
	Compute(ctx context.Context) string
}

// Constant is a Kind that always yields the same text.
type Constant struct {
	text string
}

// NewConstant creates a Constant yielding text.
func NewConstant(text string) *Constant {
	return &Constant{text: text}
}

// Compute returns the constant text.
func (c *Constant) Compute(context.Context) string {
	return c.text
}

// String implements fmt.Stringer.
func (c *Constant) String() string {
	return "constant(" + c.text + ")"
}

// CommandOutput is a Kind that runs an external program and yields its stdout.
// The program path and arguments are used as given; no shell is involved.
type CommandOutput struct {
	program string
	args    []string
	trim    bool
	logger  *slog.Logger
}

// NewCommandOutput creates a CommandOutput. If trim is true, surrounding
// whitespace is removed from the captured output. A nil logger uses slog.Default().
func NewCommandOutput(program string, args []string, trim bool, logger *slog.Logger) *CommandOutput {
	if logger == nil {
		logger = slog.Default()
	}
	argsCopy := make([]string, len(args))
	copy(argsCopy, args)
	return &CommandOutput{
		program: program,
		args:    argsCopy,
		trim:    trim,
		logger:  logger,
	}
}

// Program returns the program path.
func (c *CommandOutput) Program() string {
	return c.program
}

// Args returns a copy of the argument list.
func (c *CommandOutput) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Compute runs the program and returns its output.
//
// If the program cannot be started, a warning is logged and ErrorText is
// returned. A non-zero exit is logged together with stderr, but whatever was
// written to stdout is still returned.
func (c *CommandOutput) Compute(ctx context.Context) string {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.program, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			c.logger.Warn("error running program",
				"program", c.program, "args", c.args, "error", err)
			return ErrorText
		}
		c.logger.Warn("program exited with non-zero status",
			"program", c.program, "args", c.args,
			"status", exitErr.ProcessState.String(),
			"stderr", strings.TrimSpace(stderr.String()))
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		c.logger.Warn("program produced invalid UTF-8 output",
			"program", c.program, "args", c.args)
		out = bytes.ToValidUTF8(out, []byte(string(utf8.RuneError)))
	}

	text := string(out)
	if c.trim {
		text = strings.TrimSpace(text)
	}
	return text
}

// String implements fmt.Stringer.
func (c *CommandOutput) String() string {
	if len(c.args) == 0 {
		return "program(" + c.program + ")"
	}
	return "program(" + c.program + " " + strings.Join(c.args, " ") + ")"
}
