package bridge

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/timvw/zj-link/internal/project"
	"github.com/timvw/zj-link/internal/window"
)

// ActiveSession returns the window's session. When none is set it tries a
// silent config load first. If that still yields nothing the user is told
// once and ErrNoActiveSession is returned; no zellij command runs.
func (b *Bridge) ActiveSession(ctx context.Context, act Action) (string, error) {
	if b.SessionOverride != "" {
		return b.SessionOverride, nil
	}

	st := b.state(act)
	if st.HasSession() {
		return st.ActiveSession, nil
	}

	if err := b.loadConfig(ctx, act, false); err != nil {
		return "", err
	}
	if st.HasSession() {
		return st.ActiveSession, nil
	}

	if b.FallbackSession != nil {
		if name, ok := b.FallbackSession(); ok {
			b.logger.Debug("using fallback session", "window", act.Window, "session", name)
			st.SetActiveSession(name)
			return name, nil
		}
	}

	act.ui().Error(MsgNoActiveSession)
	return "", ErrNoActiveSession
}

// SetActiveSession points the window at a session. The name is not
// checked against running sessions.
func (b *Bridge) SetActiveSession(act Action, name string) {
	b.state(act).SetActiveSession(name)
	b.logger.Info("active session set", "window", act.Window, "session", name)
}

// LoadConfig finds the project config for the action's buffer (or first
// project folder), stores it on the window and activates its session.
//
// A missing config is reported only when showErrorIfMissing is set. A
// malformed config is returned as an error and leaves the window untouched.
func (b *Bridge) LoadConfig(ctx context.Context, act Action, showErrorIfMissing bool) (err error) {
	ctx, end := b.begin(ctx, "load-config", act)
	defer end(&err)
	return b.loadConfig(ctx, act, showErrorIfMissing)
}

func (b *Bridge) loadConfig(ctx context.Context, act Action, showErrorIfMissing bool) error {
	var loaded *project.Loaded
	err := project.ErrNotFound
	if start, ok := project.StartDir(act.Buffer.FilePath, act.Folders); ok {
		loaded, err = b.locator.Find(start)
	}

	switch {
	case errors.Is(err, project.ErrNotFound):
		b.metrics.RecordConfigLoad(ctx, "missing")
		b.logger.Debug("project config not found", "window", act.Window, "file", act.Buffer.FilePath)
		if showErrorIfMissing {
			act.ui().Error(MsgConfigNotFound)
		}
		return nil
	case err != nil:
		b.metrics.RecordConfigLoad(ctx, "malformed")
		b.logParseError(act.Window, err)
		return err
	}

	st := b.state(act)
	st.ApplyConfig(loaded)
	b.metrics.RecordConfigLoad(ctx, "loaded")
	b.logger.Info("project config loaded",
		"window", act.Window,
		"path", loaded.Path,
		"session", st.ActiveSession,
		"cwd", st.WorkingDir,
		"tasks", loaded.Config.Tabs.Names(),
		"send", loaded.Config.Send,
		"bindings", len(st.Bindings))
	act.ui().Status(MsgConfigLoaded)
	return nil
}

func (b *Bridge) logParseError(id window.ID, err error) {
	var pe *project.ParseError
	if errors.As(err, &pe) {
		b.logger.Error("project config malformed", "window", id, "path", pe.Path, "error", err, "stack", pe.Stack())
		return
	}
	b.logger.Error("project config unreadable", "window", id, "error", err)
}

// ReloadConfigFile re-reads path and applies it to every window that loaded
// it. A deleted file leaves the windows on their previous config.
func (b *Bridge) ReloadConfigFile(ctx context.Context, path string) error {
	ids := b.windows.WithConfigPath(path)
	if len(ids) == 0 {
		return nil
	}

	loaded, err := b.locator.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Info("project config removed, keeping last version", "path", path)
			return nil
		}
		b.metrics.RecordConfigLoad(ctx, "malformed")
		b.logParseError("", err)
		return err
	}

	for _, id := range ids {
		b.windows.Get(id).ApplyConfig(loaded)
	}
	b.metrics.RecordConfigLoad(ctx, "reloaded")
	b.logger.Info("project config reloaded", "path", path, "windows", len(ids), "session", loaded.Config.Session)
	return nil
}

// WindowClosed forgets everything about a window.
func (b *Bridge) WindowClosed(id window.ID) {
	b.windows.Close(id)
	b.logger.Debug("window closed", "window", id)
}

// BufferClosed evicts a buffer's binding.
func (b *Bridge) BufferClosed(id window.ID, buf window.BufferID) {
	b.windows.ForgetBuffer(id, buf)
}

// Snapshot is a read-only view of a window's state.
type Snapshot struct {
	Window        window.ID         `json:"window"`
	ActiveSession string            `json:"active_session,omitempty"`
	ConfigPath    string            `json:"config_path,omitempty"`
	WorkingDir    string            `json:"working_dir,omitempty"`
	Tasks         []string          `json:"tasks,omitempty"`
	Send          map[string]string `json:"send,omitempty"`
	Bindings      []BindingView     `json:"bindings,omitempty"`
}

// BindingView is one buffer binding in a Snapshot.
type BindingView struct {
	Buffer window.BufferID `json:"buffer"`
	Tab    string          `json:"tab"`
}

// Describe returns the window's current state. It does not create state
// for unknown windows.
func (b *Bridge) Describe(id window.ID) Snapshot {
	snap := Snapshot{Window: id}
	st, ok := b.windows.Lookup(id)
	if !ok {
		return snap
	}
	snap.ActiveSession = st.ActiveSession
	if b.SessionOverride != "" {
		snap.ActiveSession = b.SessionOverride
	}
	snap.ConfigPath = st.ConfigPath
	snap.WorkingDir = st.WorkingDir
	if st.Config != nil {
		snap.Tasks = st.Config.Tabs.Names()
		snap.Send = st.Config.Send
	}
	for buf, tab := range st.Bindings {
		snap.Bindings = append(snap.Bindings, BindingView{Buffer: buf, Tab: tab})
	}
	sort.Slice(snap.Bindings, func(i, j int) bool { return snap.Bindings[i].Buffer < snap.Bindings[j].Buffer })
	return snap
}
