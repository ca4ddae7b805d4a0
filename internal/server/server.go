// Package server runs the editor protocol on top of a Bridge.
//
// Requests from every connection are dispatched one at a time under a
// single lock, so the bridge sees the same strictly sequential stream of
// actions an editor's UI thread would produce.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/timvw/zj-link/internal/bridge"
	"github.com/timvw/zj-link/internal/protocol"
	"github.com/timvw/zj-link/internal/window"
)

// Server answers protocol requests.
type Server struct {
	bridge *bridge.Bridge
	logger *slog.Logger

	mu    sync.Mutex
	picks map[string]*pendingPick
	watch *configWatcher
}

type pendingPick struct {
	items []string
	done  bridge.PickFunc
	owner *protocol.Writer
}

// New builds a Server. logger may be nil.
func New(b *bridge.Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bridge: b,
		logger: logger,
		picks:  make(map[string]*pendingPick),
	}
}

// Serve reads requests from r and writes messages to w until r is
// exhausted. Malformed lines are answered with an error and skipped.
// Picks still open when r ends are discarded.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	in := protocol.NewReader(r)
	out := protocol.NewWriter(w)
	defer s.dropPicks(out)

	for {
		req, err := in.Next()
		var de *protocol.DecodeError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &de):
			s.logger.Warn("rejected request", "id", req.ID, "error", err)
			s.write(out, protocol.Error(req.ID, err.Error()))
			s.write(out, protocol.Done(req.ID, err))
			continue
		case err != nil:
			return fmt.Errorf("read request: %w", err)
		}

		if ctx.Err() != nil {
			return nil
		}
		s.handle(ctx, req, out)
	}
}

func (s *Server) handle(ctx context.Context, req protocol.Request, out *protocol.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("request", "id", req.ID, "command", req.Command, "window", req.Window)
	result, err := s.dispatch(ctx, req, out)

	// The bridge has already told the user about a missing session.
	if err != nil && !errors.Is(err, bridge.ErrNoActiveSession) {
		s.logger.Error("request failed", "id", req.ID, "command", req.Command, "error", err)
		s.write(out, protocol.Error(req.ID, err.Error()))
	}
	if result != nil {
		s.write(out, protocol.Result(req.ID, result))
	}
	s.syncWatch()
	s.write(out, protocol.Done(req.ID, err))
}

func (s *Server) dispatch(ctx context.Context, req protocol.Request, out *protocol.Writer) (any, error) {
	act := s.action(req, out)
	b := s.bridge

	switch req.Command {
	case protocol.CmdSendSelection:
		return nil, b.SendSelection(ctx, act)
	case protocol.CmdSendText:
		if req.Buffer != nil {
			return nil, b.SendToTarget(ctx, act, req.Text)
		}
		return nil, b.SendText(ctx, act, req.Text)
	case protocol.CmdFocusTab:
		if req.Name == "" {
			return nil, b.FocusTabInteractive(ctx, act)
		}
		return nil, b.FocusTab(ctx, act, req.Name)
	case protocol.CmdSelectSession:
		return nil, b.SelectSession(ctx, act)
	case protocol.CmdSetSession:
		b.SetActiveSession(act, req.Name)
		return nil, nil
	case protocol.CmdLoadConfig:
		return nil, b.LoadConfig(ctx, act, true)
	case protocol.CmdRunTask:
		if req.Name == "" {
			return nil, b.RunTaskInteractive(ctx, act)
		}
		return nil, b.RunNamedTask(ctx, act, req.Name)
	case protocol.CmdRunCommand:
		return nil, b.RunCommand(ctx, act, req.Text)
	case protocol.CmdBindBuffer:
		return nil, b.BindBuffer(ctx, act)
	case protocol.CmdUnbindBuffer:
		b.UnbindBuffer(act)
		return nil, nil
	case protocol.CmdListTabs:
		tabs, err := b.ListTabs(ctx, act)
		if err != nil {
			return nil, err
		}
		return nonNil(tabs), nil
	case protocol.CmdListSessions:
		return nonNil(b.ListSessions(ctx, act)), nil
	case protocol.CmdStatus:
		return b.Describe(act.Window), nil
	case protocol.CmdPickResult:
		return nil, s.resolvePick(ctx, req, out)
	case protocol.CmdWindowClosed:
		b.WindowClosed(act.Window)
		return nil, nil
	case protocol.CmdBufferClosed:
		b.BufferClosed(act.Window, act.Buffer.ID)
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command %q", req.Command)
}

func (s *Server) action(req protocol.Request, out *protocol.Writer) bridge.Action {
	act := bridge.Action{
		Window:  window.ID(req.Window),
		Folders: req.Folders,
		UI:      hostUI{s: s, out: out, id: req.ID},
	}
	if req.Buffer != nil {
		act.Buffer = bridge.Buffer{
			ID:        window.BufferID(req.Buffer.ID),
			FilePath:  req.Buffer.File,
			Syntax:    req.Buffer.Syntax,
			Selection: req.Buffer.Selection,
		}
	}
	return act
}

// resolvePick completes an outstanding pick. An absent or out of range
// index cancels it. Follow-up messages belong to the pick-result request
// and its connection.
func (s *Server) resolvePick(ctx context.Context, req protocol.Request, out *protocol.Writer) error {
	p, ok := s.picks[req.PickID]
	if !ok {
		return fmt.Errorf("unknown pick %q", req.PickID)
	}
	delete(s.picks, req.PickID)

	choice := bridge.Cancelled()
	if i := req.Index; i != nil && *i >= 0 && *i < len(p.items) {
		choice = bridge.Picked(*i, p.items[*i])
	}
	return p.done(ctx, hostUI{s: s, out: out, id: req.ID}, choice)
}

func (s *Server) dropPicks(owner *protocol.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.picks {
		if p.owner == owner {
			delete(s.picks, id)
		}
	}
}

func (s *Server) write(out *protocol.Writer, m protocol.Message) {
	if err := out.Write(m); err != nil {
		s.logger.Warn("write message failed", "type", m.Type, "id", m.ID, "error", err)
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// hostUI relays bridge output to the connection a request came from. It
// is only used while the server lock is held.
type hostUI struct {
	s   *Server
	out *protocol.Writer
	id  string
}

func (u hostUI) Status(msg string) { u.s.write(u.out, protocol.Status(u.id, msg)) }

func (u hostUI) Error(msg string) { u.s.write(u.out, protocol.Error(u.id, msg)) }

func (u hostUI) Pick(items []string, done bridge.PickFunc) {
	if len(items) == 0 {
		u.Status(bridge.MsgNothingToPick)
		return
	}
	pickID := protocol.NewPickID()
	u.s.picks[pickID] = &pendingPick{items: items, done: done, owner: u.out}
	u.s.write(u.out, protocol.Pick(u.id, pickID, items))
}
