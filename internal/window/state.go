// Package window keeps per-editor-window bridge state.
//
// Each window owns its active session, its loaded project config and its
// buffer-to-tab bindings. Windows never share state. Bindings are keyed by
// buffer id and are not removed when the buffer closes unless the host sends
// a buffer-closed notification.
package window

import (
	"sort"
	"sync"

	"github.com/timvw/zj-link/internal/project"
)

// ID identifies an editor window. Its value is opaque to the bridge.
type ID string

// BufferID identifies an open editor buffer within the host.
type BufferID int64

// State is the mutable record for one window.
type State struct {
	ActiveSession string
	Config        *project.Config
	ConfigPath    string
	WorkingDir    string
	Bindings      map[BufferID]string
}

// HasSession reports whether an active session is set.
func (s *State) HasSession() bool { return s.ActiveSession != "" }

// HasConfig reports whether a project config has been loaded.
func (s *State) HasConfig() bool { return s.Config != nil }

// SetActiveSession overwrites the active session. The name is not checked
// against running sessions.
func (s *State) SetActiveSession(name string) { s.ActiveSession = name }

// ApplyConfig stores a loaded config, activates its session and replaces the
// working directory.
func (s *State) ApplyConfig(l *project.Loaded) {
	s.Config = l.Config
	s.ConfigPath = l.Path
	s.ActiveSession = l.Config.Session
	s.WorkingDir = l.WorkingDir
}

// Bind routes buf to tab, replacing any earlier binding.
func (s *State) Bind(buf BufferID, tab string) {
	if s.Bindings == nil {
		s.Bindings = make(map[BufferID]string)
	}
	s.Bindings[buf] = tab
}

// Unbind removes the binding for buf, if any. The binding map is created
// when missing.
func (s *State) Unbind(buf BufferID) {
	if s.Bindings == nil {
		s.Bindings = make(map[BufferID]string)
		return
	}
	delete(s.Bindings, buf)
}

// Binding returns the tab bound to buf.
func (s *State) Binding(buf BufferID) (string, bool) {
	tab, ok := s.Bindings[buf]
	return tab, ok && tab != ""
}

// Registry maps window ids to their state. Entries are created on first
// lookup and removed by Close.
type Registry struct {
	mu      sync.RWMutex
	windows map[ID]*State
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{windows: make(map[ID]*State)}
}

// Get returns the state for id, creating it on first access.
func (r *Registry) Get(id ID) *State {
	r.mu.RLock()
	s, ok := r.windows[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.windows[id]; ok {
		return s
	}
	s = &State{}
	r.windows[id] = s
	return s
}

// Lookup returns the state for id without creating it.
func (r *Registry) Lookup(id ID) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.windows[id]
	return s, ok
}

// Close drops all state for id.
func (r *Registry) Close(id ID) {
	r.mu.Lock()
	delete(r.windows, id)
	r.mu.Unlock()
}

// ForgetBuffer drops the binding for buf in window id.
func (r *Registry) ForgetBuffer(id ID, buf BufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.windows[id]; ok && s.Bindings != nil {
		delete(s.Bindings, buf)
	}
}

// Windows returns the known window ids in sorted order.
func (r *Registry) Windows() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WithConfigPath returns the windows whose config was loaded from path.
func (r *Registry) WithConfigPath(path string) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []ID
	for id, s := range r.windows {
		if s.ConfigPath == path {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ConfigPaths returns the distinct config files loaded by any window.
func (r *Registry) ConfigPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var paths []string
	for _, s := range r.windows {
		if s.ConfigPath != "" && !seen[s.ConfigPath] {
			seen[s.ConfigPath] = true
			paths = append(paths, s.ConfigPath)
		}
	}
	sort.Strings(paths)
	return paths
}
