// Package target decides which tab text sent from a buffer should go to.
package target

import "github.com/timvw/zj-link/internal/window"

// Source says why a tab was chosen.
type Source string

const (
	SourceNone    Source = ""
	SourceBinding Source = "binding"
	SourceSyntax  Source = "syntax"
)

// Resolve returns the tab for text sent from buffer buf with the given
// syntax name. An explicit binding always wins; otherwise the loaded
// config's send rule for the syntax is used. ok is false when neither
// applies, meaning the text goes to whatever is focused.
func Resolve(s *window.State, buf window.BufferID, syntax string) (tab string, src Source, ok bool) {
	if tab, ok := s.Binding(buf); ok {
		return tab, SourceBinding, true
	}
	if s.Config != nil && syntax != "" {
		if tab, ok := s.Config.Send[syntax]; ok && tab != "" {
			return tab, SourceSyntax, true
		}
	}
	return "", SourceNone, false
}
