package bridge

import (
	"context"
	"fmt"
)

// SelectSession lists running sessions and makes the chosen one active.
func (b *Bridge) SelectSession(ctx context.Context, act Action) error {
	sessions := b.ListSessions(ctx, act)
	act.ui().Pick(sessions, func(ctx context.Context, ui UI, c Choice) error {
		act := act.withUI(ui)
		name, ok := pickItem(sessions, c)
		if !ok {
			return nil
		}
		b.SetActiveSession(act, name)
		act.ui().Status(fmt.Sprintf("Active Zellij session: %s", name))
		return nil
	})
	return nil
}

// FocusTabInteractive lists the active session's tabs and focuses the
// chosen one.
func (b *Bridge) FocusTabInteractive(ctx context.Context, act Action) error {
	tabs, err := b.ListTabs(ctx, act)
	if err != nil {
		return err
	}
	act.ui().Pick(tabs, func(ctx context.Context, ui UI, c Choice) error {
		act := act.withUI(ui)
		tab, ok := pickItem(tabs, c)
		if !ok {
			return nil
		}
		return b.FocusTab(ctx, act, tab)
	})
	return nil
}

// RunTaskInteractive lists the configured tasks and runs the chosen one.
// Without a loadable config it stops after the load attempt.
func (b *Bridge) RunTaskInteractive(ctx context.Context, act Action) error {
	cfg, err := b.ensureConfig(ctx, act)
	if err != nil || cfg == nil {
		return err
	}
	tasks := cfg.Tabs
	if len(tasks) == 0 {
		act.ui().Status(MsgNoTasks)
		return nil
	}

	names := tasks.Names()
	act.ui().Pick(names, func(ctx context.Context, ui UI, c Choice) error {
		act := act.withUI(ui)
		if _, ok := pickItem(names, c); !ok {
			return nil
		}
		return b.RunTask(ctx, act, tasks[c.Index])
	})
	return nil
}

// BindBuffer lists the active session's tabs and binds the action's buffer
// to the chosen one.
func (b *Bridge) BindBuffer(ctx context.Context, act Action) error {
	tabs, err := b.ListTabs(ctx, act)
	if err != nil {
		return err
	}
	act.ui().Pick(tabs, func(ctx context.Context, ui UI, c Choice) error {
		act := act.withUI(ui)
		tab, ok := pickItem(tabs, c)
		if !ok {
			return nil
		}
		b.state(act).Bind(act.Buffer.ID, tab)
		b.logger.Info("buffer bound", "window", act.Window, "buffer", act.Buffer.ID, "tab", tab)
		act.ui().Status(fmt.Sprintf("Buffer bound to tab %s", tab))
		return nil
	})
	return nil
}

// UnbindBuffer drops the action's buffer binding, if any.
func (b *Bridge) UnbindBuffer(act Action) {
	b.state(act).Unbind(act.Buffer.ID)
	b.logger.Info("buffer unbound", "window", act.Window, "buffer", act.Buffer.ID)
}
