// Package bridge turns editor actions into zellij command sequences.
//
// Every exported operation handles one user action for one editor window.
// Operations run one at a time: the caller (the protocol server or a
// terminal subcommand) serializes them, so window state needs no further
// locking here. Interactive operations return as soon as the choice list is
// shown; the follow-up runs later when the host reports the pick.
package bridge

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ztel "github.com/timvw/zj-link/internal/otel"
	"github.com/timvw/zj-link/internal/project"
	"github.com/timvw/zj-link/internal/window"
	"github.com/timvw/zj-link/internal/zellij"
)

var tracer = otel.Tracer("zj-link/bridge")

// User-facing messages.
const (
	MsgNoActiveSession = "No active Zellij session."
	MsgConfigNotFound  = "Zellij config not found."
	MsgConfigLoaded    = "Zellij config has been loaded."
	MsgNothingSelected = "Nothing selected"
	MsgNoTasks         = "No tasks configured."
	MsgNothingToPick   = "Nothing to choose from."
)

// ErrNoActiveSession aborts an action that needs a session when none is set
// and none can be loaded from a project config.
var ErrNoActiveSession = errors.New("no active zellij session")

// Buffer is the editor buffer an action was triggered from.
type Buffer struct {
	ID        window.BufferID
	FilePath  string // empty for unsaved buffers
	Syntax    string // host syntax name, e.g. "Python"
	Selection string
}

// Action is the editor context of one user action.
type Action struct {
	Window  window.ID
	Buffer  Buffer
	Folders []string // project folders, first one is the fallback search root
	UI      UI
}

// withUI returns a copy of a reporting to ui.
func (a Action) withUI(ui UI) Action {
	a.UI = ui
	return a
}

func (a Action) ui() UI {
	if a.UI == nil {
		return nopUI{}
	}
	return a.UI
}

// Choice is the outcome of a pick. The zero value is a cancellation.
type Choice struct {
	Index  int
	Item   string
	picked bool
}

// Picked returns a choice for items[index].
func Picked(index int, item string) Choice {
	return Choice{Index: index, Item: item, picked: true}
}

// Cancelled returns a choice meaning the user dismissed the list.
func Cancelled() Choice { return Choice{Index: -1} }

// OK reports whether an entry was chosen.
func (c Choice) OK() bool { return c.picked && c.Index >= 0 }

// PickFunc receives the outcome of a pick. ui is the surface of whoever
// reported the choice; follow-up messages go there.
type PickFunc func(ctx context.Context, ui UI, c Choice) error

// UI is the host's presentation surface.
type UI interface {
	// Status shows a transient, non-error message.
	Status(msg string)
	// Error shows an error message.
	Error(msg string)
	// Pick shows items and calls done once the user chooses or cancels.
	// It may return before done runs, and done may be handed a different
	// UI than the one Pick was called on.
	Pick(items []string, done PickFunc)
}

type nopUI struct{}

func (nopUI) Status(string) {}
func (nopUI) Error(string) {}
func (nopUI) Pick([]string, PickFunc) {}

// uiReporter forwards command failures to the action's UI.
type uiReporter struct{ ui UI }

func (r uiReporter) CommandFailed(msg string) { r.ui.Error(msg) }

// Bridge holds every window's state and the zellij client.
type Bridge struct {
	windows *window.Registry
	cli     *zellij.CLI
	locator project.Locator
	logger  *slog.Logger
	metrics *ztel.Metrics

	// SessionOverride, when set, is the session of every window. Project
	// configs still load but their session is ignored.
	SessionOverride string

	// FallbackSession, when set, is consulted after a config load fails to
	// produce a session. Terminal subcommands use it to pick up the zellij
	// session they run inside.
	FallbackSession func() (string, bool)
}

// New builds a Bridge. logger and metrics may be nil.
func New(cli *zellij.CLI, locator project.Locator, logger *slog.Logger, metrics *ztel.Metrics) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		windows: window.NewRegistry(),
		cli:     cli,
		locator: locator,
		logger:  logger,
		metrics: metrics,
	}
}

// Windows exposes the state registry.
func (b *Bridge) Windows() *window.Registry { return b.windows }

func (b *Bridge) state(act Action) *window.State {
	return b.windows.Get(act.Window)
}

func (b *Bridge) client(act Action) *zellij.CLI {
	return b.cli.WithReporter(uiReporter{ui: act.ui()})
}

// session resolves the active session and returns a handle bound to the
// action's UI.
func (b *Bridge) session(ctx context.Context, act Action) (*zellij.Session, error) {
	name, err := b.ActiveSession(ctx, act)
	if err != nil {
		return nil, err
	}
	return b.client(act).Session(name), nil
}

// begin starts a span for an action. The returned func records the outcome
// and must be deferred with a pointer to the named error result.
func (b *Bridge) begin(ctx context.Context, name string, act Action) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, "bridge."+name, trace.WithAttributes(
		attribute.String("window.id", string(act.Window)),
		attribute.Int64("buffer.id", int64(act.Buffer.ID)),
	))
	return ctx, func(errp *error) {
		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = "error"
			if errors.Is(*errp, ErrNoActiveSession) {
				outcome = "no_session"
			}
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		}
		b.metrics.RecordAction(ctx, name, outcome)
		span.End()
	}
}

// sendLine types text followed by a newline so the shell executes it.
func sendLine(ctx context.Context, s *zellij.Session, text string) {
	s.WriteChars(ctx, text)
	s.WriteChars(ctx, "\n")
}

// pickItem maps a choice back onto the list it was made from.
func pickItem(items []string, c Choice) (string, bool) {
	if !c.OK() || c.Index >= len(items) {
		return "", false
	}
	return items[c.Index], true
}
