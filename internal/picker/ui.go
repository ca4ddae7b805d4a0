package picker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/timvw/zj-link/internal/bridge"
)

// Chooser returns the user's choice among items.
type Chooser interface {
	Choose(ctx context.Context, items []string) (bridge.Choice, error)
}

// TerminalUI is the bridge.UI of one-shot terminal commands. Messages go to
// Out and picks run synchronously, so the follow-up of an interactive
// action has finished when Pick returns.
type TerminalUI struct {
	Ctx     context.Context
	Chooser Chooser
	Out     io.Writer
	Theme   Theme

	errs   []error
	failed bool
}

var _ bridge.UI = (*TerminalUI)(nil)

func (u *TerminalUI) Status(msg string) {
	fmt.Fprintln(u.Out, newStyles(u.theme()).dim.Render(msg))
}

func (u *TerminalUI) Error(msg string) {
	u.failed = true
	fmt.Fprintln(u.Out, newStyles(u.theme()).err.Render(msg))
}

func (u *TerminalUI) Pick(items []string, done bridge.PickFunc) {
	if len(items) == 0 {
		u.Status(bridge.MsgNothingToPick)
		return
	}
	ctx := u.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := u.Chooser.Choose(ctx, items)
	if err != nil {
		u.errs = append(u.errs, err)
		return
	}
	if err := done(ctx, u, c); err != nil {
		u.errs = append(u.errs, err)
	}
}

// Err returns the errors raised by picks, if any.
func (u *TerminalUI) Err() error {
	return errors.Join(u.errs...)
}

// Failed reports whether an error message was shown.
func (u *TerminalUI) Failed() bool {
	return u.failed
}

func (u *TerminalUI) theme() Theme {
	if u.Theme == (Theme{}) {
		return DarkTheme()
	}
	return u.Theme
}
