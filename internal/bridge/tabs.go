package bridge

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/timvw/zj-link/internal/project"
	"github.com/timvw/zj-link/internal/target"
)

// FocusTab switches the active session to the named tab.
func (b *Bridge) FocusTab(ctx context.Context, act Action, name string) (err error) {
	ctx, end := b.begin(ctx, "focus-tab", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	s.FocusTab(ctx, name)
	return nil
}

// CloseCurrentTab closes the focused tab.
func (b *Bridge) CloseCurrentTab(ctx context.Context, act Action) (err error) {
	ctx, end := b.begin(ctx, "close-tab", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	s.CloseTab(ctx)
	return nil
}

// CloseCurrentPane closes the focused pane.
func (b *Bridge) CloseCurrentPane(ctx context.Context, act Action) (err error) {
	ctx, end := b.begin(ctx, "close-pane", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	s.ClosePane(ctx)
	return nil
}

// StopCurrentProcess sends Ctrl-C to the focused pane. Closing a pane does
// not stop what runs in it, so this goes first when a tab is torn down.
func (b *Bridge) StopCurrentProcess(ctx context.Context, act Action) (err error) {
	ctx, end := b.begin(ctx, "stop-process", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	s.Interrupt(ctx)
	return nil
}

// SendText types text into the focused pane and presses enter.
func (b *Bridge) SendText(ctx context.Context, act Action, text string) (err error) {
	ctx, end := b.begin(ctx, "send-text", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	sendLine(ctx, s, text)
	return nil
}

// SendToTarget focuses the buffer's target tab, if it has one, then types
// text and presses enter.
func (b *Bridge) SendToTarget(ctx context.Context, act Action, text string) (err error) {
	ctx, end := b.begin(ctx, "send-to-target", act)
	defer end(&err)
	return b.sendToTarget(ctx, act, text)
}

func (b *Bridge) sendToTarget(ctx context.Context, act Action, text string) error {
	// The session lookup may load the project config, which holds the
	// send rules, so routing comes after it.
	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	tab, src, ok := target.Resolve(b.state(act), act.Buffer.ID, act.Buffer.Syntax)
	if ok {
		b.logger.Debug("routing text", "window", act.Window, "buffer", act.Buffer.ID, "tab", tab, "source", src)
		s.FocusTab(ctx, tab)
	}
	sendLine(ctx, s, text)
	return nil
}

// SendSelection sends the buffer's selection to its target tab. A blank
// selection only produces a status message.
func (b *Bridge) SendSelection(ctx context.Context, act Action) (err error) {
	ctx, end := b.begin(ctx, "send-selection", act)
	defer end(&err)

	if strings.TrimSpace(act.Buffer.Selection) == "" {
		act.ui().Status(MsgNothingSelected)
		return nil
	}
	return b.sendToTarget(ctx, act, act.Buffer.Selection)
}

// ListTabs returns the active session's tab names in order.
func (b *Bridge) ListTabs(ctx context.Context, act Action) (tabs []string, err error) {
	ctx, end := b.begin(ctx, "list-tabs", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return nil, err
	}
	return s.QueryTabNames(ctx), nil
}

// ListSessions returns the running session names. It does not need an
// active session.
func (b *Bridge) ListSessions(ctx context.Context, act Action) []string {
	var err error
	ctx, end := b.begin(ctx, "list-sessions", act)
	defer end(&err)

	return b.client(act).ListSessions(ctx)
}

// RunTask (re)starts a task in a tab named after it.
//
// An existing tab with that name is focused, interrupted and closed first,
// so each task runs in exactly one tab. The new tab changes into the
// window's working directory by typing a cd command, which keeps shell
// directory hooks firing, then types each command line.
func (b *Bridge) RunTask(ctx context.Context, act Action, task project.Task) (err error) {
	ctx, end := b.begin(ctx, "run-task", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}

	if slices.Contains(s.QueryTabNames(ctx), task.Name) {
		b.logger.Info("restarting task tab", "window", act.Window, "session", s.Name(), "task", task.Name)
		s.FocusTab(ctx, task.Name)
		s.Interrupt(ctx)
		s.CloseTab(ctx)
	}

	s.NewTab(ctx, task.Name)
	if wd := b.state(act).WorkingDir; wd != "" {
		sendLine(ctx, s, "cd "+shellQuote(wd))
	}
	for _, line := range task.Cmd {
		sendLine(ctx, s, line)
	}
	b.logger.Info("task started", "window", act.Window, "session", s.Name(), "task", task.Name, "lines", len(task.Cmd))
	return nil
}

// RunNamedTask runs a configured task by name, loading the project config
// first if the window has none.
func (b *Bridge) RunNamedTask(ctx context.Context, act Action, name string) error {
	cfg, err := b.ensureConfig(ctx, act)
	if err != nil || cfg == nil {
		return err
	}
	task, ok := cfg.Tabs.Find(name)
	if !ok {
		return fmt.Errorf("task %q is not defined in %s", name, b.state(act).ConfigPath)
	}
	return b.RunTask(ctx, act, task)
}

// RunCommand opens a new pane running cmd.
func (b *Bridge) RunCommand(ctx context.Context, act Action, cmd string) (err error) {
	ctx, end := b.begin(ctx, "run-command", act)
	defer end(&err)

	s, err := b.session(ctx, act)
	if err != nil {
		return err
	}
	s.RunCommand(ctx, cmd)
	return nil
}

// ensureConfig returns the window's config, loading it with error
// reporting when absent. A nil config and nil error means none was found.
func (b *Bridge) ensureConfig(ctx context.Context, act Action) (*project.Config, error) {
	st := b.state(act)
	if !st.HasConfig() {
		if err := b.LoadConfig(ctx, act, true); err != nil {
			return nil, err
		}
	}
	return st.Config, nil
}

// shellQuote single-quotes s when it holds characters the shell would
// interpret.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("/._-+~,:@%=", r)
}
