package zellij

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"

	ztel "github.com/timvw/zj-link/internal/otel"
)

// FailureMessage is the short user-facing notice for a failed command.
const FailureMessage = "Zellij command failed. See log for details."

// Reporter surfaces a failed command to the user.
type Reporter interface {
	CommandFailed(msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string)

// CommandFailed calls f(msg).
func (f ReporterFunc) CommandFailed(msg string) { f(msg) }

// CLI issues zellij commands. Failures never abort the caller: they are
// logged, reported, and the captured stdout (possibly empty) is returned.
type CLI struct {
	runner   Runner
	logger   *slog.Logger
	metrics  *ztel.Metrics
	reporter Reporter
}

// NewCLI builds a CLI around runner. logger and metrics may be nil.
func NewCLI(runner Runner, logger *slog.Logger, metrics *ztel.Metrics) *CLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{runner: runner, logger: logger, metrics: metrics}
}

// WithReporter returns a copy of c that reports failures to r.
func (c *CLI) WithReporter(r Reporter) *CLI {
	cp := *c
	cp.reporter = r
	return &cp
}

// Run executes zellij with args and returns stdout.
//
// Any output on stderr counts as a failure regardless of exit code. A
// non-zero exit with an empty stderr is only logged.
func (c *CLI) Run(ctx context.Context, args ...string) string {
	stdout, stderr, err := c.runner.Run(ctx, args...)

	var exitErr *exec.ExitError
	spawnFailed := err != nil && !errors.As(err, &exitErr)
	failed := strings.TrimSpace(stderr) != "" || spawnFailed
	c.metrics.RecordCommand(ctx, subcommand(args), failed)

	switch {
	case failed:
		c.logger.Warn("zellij command failed",
			"args", args,
			"stderr", strings.TrimSpace(stderr),
			"error", errString(err))
		if c.reporter != nil {
			c.reporter.CommandFailed(FailureMessage)
		}
	case err != nil:
		c.logger.Debug("zellij command exited non-zero", "args", args, "error", err)
	default:
		c.logger.Debug("zellij command", "args", args)
	}
	return stdout
}

// RunWithSession prepends the global --session option.
func (c *CLI) RunWithSession(ctx context.Context, session string, args ...string) string {
	full := make([]string, 0, len(args)+2)
	full = append(full, "--session", session)
	full = append(full, args...)
	return c.Run(ctx, full...)
}

// ListSessions returns the names of all running sessions.
func (c *CLI) ListSessions(ctx context.Context) []string {
	return SplitLines(c.Run(ctx, "list-sessions", "-s"))
}

// Session returns a handle scoped to the named session.
func (c *CLI) Session(name string) *Session {
	return &Session{cli: c, name: name}
}

// Session issues commands against one session.
type Session struct {
	cli  *CLI
	name string
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

func (s *Session) action(ctx context.Context, args ...string) string {
	return s.cli.RunWithSession(ctx, s.name, append([]string{"action"}, args...)...)
}

// FocusTab switches to the tab with the given name.
func (s *Session) FocusTab(ctx context.Context, tab string) {
	s.action(ctx, "go-to-tab-name", tab)
}

// CloseTab closes the focused tab.
func (s *Session) CloseTab(ctx context.Context) {
	s.action(ctx, "close-tab")
}

// ClosePane closes the focused pane. The process inside keeps running
// unless it was interrupted first.
func (s *Session) ClosePane(ctx context.Context) {
	s.action(ctx, "close-pane")
}

// WriteChars types text into the focused pane.
func (s *Session) WriteChars(ctx context.Context, text string) {
	s.action(ctx, "write-chars", text)
}

// Interrupt writes a raw ETX byte (Ctrl-C) to the focused pane.
func (s *Session) Interrupt(ctx context.Context) {
	s.action(ctx, "write", "3")
}

// QueryTabNames lists tab names in order.
func (s *Session) QueryTabNames(ctx context.Context) []string {
	return SplitLines(s.action(ctx, "query-tab-names"))
}

// NewTab creates and focuses a tab with the given name.
func (s *Session) NewTab(ctx context.Context, name string) {
	s.action(ctx, "new-tab", "--name", name)
}

// RunCommand opens a new pane running cmd.
func (s *Session) RunCommand(ctx context.Context, cmd string) {
	s.cli.RunWithSession(ctx, s.name, "run", "--", cmd)
}

// SplitLines splits command output into lines, dropping trailing blank
// lines and carriage returns.
func SplitLines(out string) []string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// subcommand returns the first argument after any --session option.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--session" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
