package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/zj-link/internal/bridge"
	"github.com/timvw/zj-link/internal/picker"
	"github.com/timvw/zj-link/internal/window"
	"github.com/timvw/zj-link/internal/zellij"
)

// cliWindow is the window every terminal subcommand acts on.
const cliWindow window.ID = "cli"

var errCommandFailed = errors.New("zellij reported an error")

var flagSyntax string

// terminalRun builds a one-shot action rooted at the current directory and
// passes it to fn. Picks are shown on the terminal and finish before fn's
// result is returned.
func terminalRun(cmd *cobra.Command, title string, fn func(ctx context.Context, a *app, act bridge.Action) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	theme := picker.ThemeByName(a.cfg.Theme)
	ui := &picker.TerminalUI{
		Ctx:     ctx,
		Chooser: &picker.Picker{Title: title, Theme: theme},
		Out:     cmd.ErrOrStderr(),
		Theme:   theme,
	}
	act := bridge.Action{
		Window:  cliWindow,
		Folders: []string{cwd},
		UI:      ui,
	}

	if flagSession != "" {
		a.bridge.SessionOverride = flagSession
	} else {
		a.bridge.FallbackSession = zellij.CurrentSession
	}

	if err := fn(ctx, a, act); err != nil {
		return err
	}
	if err := ui.Err(); err != nil {
		return err
	}
	if ui.Failed() {
		return errCommandFailed
	}
	return nil
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List running zellij sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			printLines(cmd.OutOrStdout(), a.bridge.ListSessions(ctx, act))
			return nil
		})
	},
}

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List the tabs of the active session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			tabs, err := a.bridge.ListTabs(ctx, act)
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), tabs)
			return nil
		})
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus [tab]",
	Short: "Focus a tab, picking one when no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "Focus tab", func(ctx context.Context, a *app, act bridge.Action) error {
			if len(args) == 1 {
				return a.bridge.FocusTab(ctx, act, args[0])
			}
			return a.bridge.FocusTabInteractive(ctx, act)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Start or restart a project task in its own tab",
	Long: `Start a task from the project config in a tab named after it. A tab
with that name is interrupted and closed first, so each task runs in
exactly one tab. Without a task name the configured tasks are offered
for picking.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "Run task", func(ctx context.Context, a *app, act bridge.Action) error {
			if len(args) == 1 {
				return a.bridge.RunNamedTask(ctx, act, args[0])
			}
			return a.bridge.RunTaskInteractive(ctx, act)
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [text...|-]",
	Short: "Send text to the target tab and press enter",
	Long: `Send text to the tab the project config routes --syntax to, or to the
focused pane when no rule matches. "-" reads the text from stdin.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = strings.TrimRight(string(data), "\n")
		}
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			act.Buffer.Syntax = flagSyntax
			act.Buffer.Selection = text
			if flagSyntax != "" {
				// Routing rules live in the project config.
				if err := a.bridge.LoadConfig(ctx, act, false); err != nil {
					return err
				}
			}
			return a.bridge.SendSelection(ctx, act)
		})
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Run a command in a new pane",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			return a.bridge.RunCommand(ctx, act, strings.Join(args, " "))
		})
	},
}

var closeTabCmd = &cobra.Command{
	Use:   "close-tab",
	Short: "Close the focused tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			return a.bridge.CloseCurrentTab(ctx, act)
		})
	},
}

var closePaneCmd = &cobra.Command{
	Use:   "close-pane",
	Short: "Close the focused pane",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			return a.bridge.CloseCurrentPane(ctx, act)
		})
	},
}

var interruptCmd = &cobra.Command{
	Use:   "interrupt",
	Short: "Send Ctrl-C to the focused pane",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			return a.bridge.StopCurrentProcess(ctx, act)
		})
	},
}

var loadConfigCmd = &cobra.Command{
	Use:   "load-config",
	Short: "Load the project config and print the resulting state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "", func(ctx context.Context, a *app, act bridge.Action) error {
			if err := a.bridge.LoadConfig(ctx, act, true); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.bridge.Describe(act.Window))
		})
	},
}

var selectSessionCmd = &cobra.Command{
	Use:   "select-session",
	Short: "Pick a running session and print its name",
	Long: `Pick a running session and print its name, for use with --session:

  zj-link --session "$(zj-link select-session)" run build`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminalRun(cmd, "Select session", func(ctx context.Context, a *app, act bridge.Action) error {
			if err := a.bridge.SelectSession(ctx, act); err != nil {
				return err
			}
			if s := a.bridge.Windows().Get(act.Window).ActiveSession; s != "" {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		})
	},
}

func init() {
	sendCmd.Flags().StringVar(&flagSyntax, "syntax", "", "syntax name used to pick the target tab from the project config's send rules")
	rootCmd.AddCommand(sessionsCmd, tabsCmd, focusCmd, runCmd, sendCmd, execCmd,
		closeTabCmd, closePaneCmd, interruptCmd, loadConfigCmd, selectSessionCmd)
}
