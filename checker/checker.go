// Package checker hands a written trace to an external model checker and
// collects its verdicts.
package checker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNoCommand is returned when the checker command is empty.
	ErrNoCommand = errors.New("checker command is empty")

	// ErrCheckFailed is returned when the checker exits with a non-zero status.
	ErrCheckFailed = errors.New("checker reported failure")
)

// Verdict is one evaluated property, read from a `Property: result, elapsed`
// output line.
type Verdict struct {
	Property string
	Result   string
	Elapsed  string
}

// Holds reports whether the property evaluated to true.
func (v Verdict) Holds() bool {
	return v.Result == "true"
}

// Result is the outcome of one checker run.
type Result struct {
	ExitCode int
	Duration time.Duration
	Output   string
	Verdicts []Verdict
}

// Checker runs an external checker command. The model and trace paths are
// appended to the configured arguments.
type Checker struct {
	command []string
	stderr  io.Writer
	logger  *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithStderr forwards the checker's standard error to w.
// DEFAULT: discarded
func WithStderr(w io.Writer) Option {
	return func(c *Checker) {
		c.stderr = w
	}
}

// WithLogger sets the logger for the checker.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a checker for the given command line.
func New(command []string, opts ...Option) *Checker {
	var c = &Checker{
		command: command,
		stderr:  io.Discard,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs the checker on a trace. A non-zero exit returns the result
// together with an error wrapping ErrCheckFailed.
func (c *Checker) Check(ctx context.Context, model, tracePath string) (*Result, error) {
	if len(c.command) == 0 || c.command[0] == "" {
		return nil, ErrNoCommand
	}

	var (
		args   = append(append([]string{}, c.command[1:]...), model, tracePath)
		cmd    = exec.CommandContext(ctx, c.command[0], args...)
		stdout bytes.Buffer
		start  = time.Now()
	)
	cmd.Stdout = &stdout
	cmd.Stderr = c.stderr

	c.logger.Info("running checker", "command", c.command[0], "model", model, "trace", tracePath)

	var err = cmd.Run()
	var result = &Result{
		Duration: time.Since(start),
		Output:   stdout.String(),
		Verdicts: ParseVerdicts(stdout.String()),
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("%w: exit status %d", ErrCheckFailed, result.ExitCode)
	case err != nil:
		return nil, fmt.Errorf("failed to run checker: %w", err)
	}

	c.logger.Info("checker finished", "duration", result.Duration, "verdicts", len(result.Verdicts))
	return result, nil
}

// ParseVerdicts extracts `Property: result, elapsed` lines from checker
// output. Other lines are ignored.
func ParseVerdicts(output string) []Verdict {
	var (
		verdicts []Verdict
		scanner  = bufio.NewScanner(strings.NewReader(output))
	)
	for scanner.Scan() {
		var property, rest, found = strings.Cut(scanner.Text(), ": ")
		if !found || property == "" || strings.ContainsAny(property, " \t") {
			continue
		}

		var result, elapsed, _ = strings.Cut(rest, ",")
		verdicts = append(verdicts, Verdict{
			Property: property,
			Result:   strings.TrimSpace(result),
			Elapsed:  strings.TrimSpace(elapsed),
		})
	}
	return verdicts
}
