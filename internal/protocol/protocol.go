// Package protocol defines the newline-delimited JSON messages exchanged
// between an editor host and zj-link serve.
//
// The host sends one Request per line. The bridge answers with any number of
// Messages tagged with the request id, always ending with a "done" message.
// Interactive commands emit a "pick" message and finish the choice when the
// host later sends a "pick-result" request carrying the same pick id.
package protocol

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Commands accepted from the host.
const (
	CmdSendSelection = "send-selection"
	CmdSendText      = "send-text"
	CmdFocusTab      = "focus-tab"
	CmdSelectSession = "select-session"
	CmdSetSession    = "set-session"
	CmdLoadConfig    = "load-config"
	CmdRunTask       = "run-task"
	CmdRunCommand    = "run-command"
	CmdBindBuffer    = "bind-buffer"
	CmdUnbindBuffer  = "unbind-buffer"
	CmdListTabs      = "list-tabs"
	CmdListSessions  = "list-sessions"
	CmdStatus        = "status"
	CmdPickResult    = "pick-result"
	CmdWindowClosed  = "window-closed"
	CmdBufferClosed  = "buffer-closed"
)

// Message types sent to the host.
const (
	TypeStatus = "status"
	TypeError  = "error"
	TypePick   = "pick"
	TypeResult = "result"
	TypeDone   = "done"
)

// Buffer identifies the editor buffer a request comes from.
type Buffer struct {
	ID        int64  `json:"id"`
	File      string `json:"file,omitempty"`
	Syntax    string `json:"syntax,omitempty"`
	Selection string `json:"selection,omitempty"`
}

// Request is one host command.
//
// Name is the tab for focus-tab, the task for run-task and the session for
// set-session; focus-tab and run-task without a name ask the user to pick.
// Text carries the payload of send-text and run-command.
type Request struct {
	ID      string   `json:"id,omitempty"`
	Command string   `json:"command"`
	Window  string   `json:"window,omitempty"`
	Buffer  *Buffer  `json:"buffer,omitempty"`
	Folders []string `json:"folders,omitempty"`
	Text    string   `json:"text,omitempty"`
	Name    string   `json:"name,omitempty"`
	PickID  string   `json:"pick_id,omitempty"`
	// Index is the chosen entry of a pick. Absent or negative cancels.
	Index *int `json:"index,omitempty"`
}

type rule struct {
	window, buffer, text, name, pickID bool
}

var rules = map[string]rule{
	CmdSendSelection: {window: true, buffer: true},
	CmdSendText:      {window: true, text: true},
	CmdFocusTab:      {window: true},
	CmdSelectSession: {window: true},
	CmdSetSession:    {window: true, name: true},
	CmdLoadConfig:    {window: true},
	CmdRunTask:       {window: true},
	CmdRunCommand:    {window: true, text: true},
	CmdBindBuffer:    {window: true, buffer: true},
	CmdUnbindBuffer:  {window: true, buffer: true},
	CmdListTabs:      {window: true},
	CmdListSessions:  {},
	CmdStatus:        {window: true},
	CmdPickResult:    {pickID: true},
	CmdWindowClosed:  {window: true},
	CmdBufferClosed:  {window: true, buffer: true},
}

// Validate checks that the command is known and carries its required fields.
func (r Request) Validate() error {
	req, ok := rules[r.Command]
	if !ok {
		if strings.TrimSpace(r.Command) == "" {
			return fmt.Errorf("command is required")
		}
		return fmt.Errorf("unknown command %q", r.Command)
	}
	switch {
	case req.window && strings.TrimSpace(r.Window) == "":
		return fmt.Errorf("%s: window is required", r.Command)
	case req.buffer && r.Buffer == nil:
		return fmt.Errorf("%s: buffer is required", r.Command)
	case req.text && r.Text == "":
		return fmt.Errorf("%s: text is required", r.Command)
	case req.name && strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%s: name is required", r.Command)
	case req.pickID && r.PickID == "":
		return fmt.Errorf("%s: pick_id is required", r.Command)
	}
	return nil
}

// Message is one line sent to the host.
type Message struct {
	Type   string   `json:"type"`
	ID     string   `json:"id,omitempty"`
	Text   string   `json:"text,omitempty"`
	PickID string   `json:"pick_id,omitempty"`
	Items  []string `json:"items,omitempty"`
	Result any      `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Status is a transient message for the user.
func Status(id, text string) Message { return Message{Type: TypeStatus, ID: id, Text: text} }

// Error is an error message for the user.
func Error(id, text string) Message { return Message{Type: TypeError, ID: id, Text: text} }

// Pick asks the host to show items. The answer must echo pickID.
func Pick(id, pickID string, items []string) Message {
	return Message{Type: TypePick, ID: id, PickID: pickID, Items: items}
}

// Result carries a command's return value.
func Result(id string, v any) Message { return Message{Type: TypeResult, ID: id, Result: v} }

// Done ends a request. A non-nil err is carried in the error field.
func Done(id string, err error) Message {
	m := Message{Type: TypeDone, ID: id}
	if err != nil {
		m.Error = err.Error()
	}
	return m
}

// NewPickID returns a fresh pick correlation id.
func NewPickID() string {
	return uuid.NewString()
}
