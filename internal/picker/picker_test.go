package picker

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/zj-link/internal/bridge"
)

func typeText(m *model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestModel_EnterPicksCursor(t *testing.T) {
	m := newModel("Select tab", []string{"editor", "build", "logs"}, Theme{})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("enter did not quit")
	}
	c := m.choice()
	if !c.OK() || c.Index != 1 || c.Item != "build" {
		t.Errorf("choice = %+v, want build", c)
	}
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	m := newModel("", []string{"a", "b"}, Theme{})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top", m.cursor)
	}
	for range 5 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down past end", m.cursor)
	}
}

func TestModel_FilterMapsBackToOriginalIndex(t *testing.T) {
	m := newModel("", []string{"editor", "Build Server", "logs", "build docs"}, Theme{})
	typeText(m, "build")

	if !reflect.DeepEqual(m.visible, []int{1, 3}) {
		t.Fatalf("visible = %v, want [1 3]", m.visible)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if c := m.choice(); c.Index != 3 || c.Item != "build docs" {
		t.Errorf("choice = %+v, want build docs", c)
	}
}

func TestModel_FilterWords(t *testing.T) {
	m := newModel("", []string{"dev api", "dev web", "prod api"}, Theme{})
	typeText(m, "api dev")
	if !reflect.DeepEqual(m.visible, []int{0}) {
		t.Errorf("visible = %v, want [0]", m.visible)
	}
}

func TestModel_EnterWithNoMatchesDoesNothing(t *testing.T) {
	m := newModel("", []string{"a"}, Theme{})
	typeText(m, "zzz")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with no matches quit the picker")
	}
	if m.choice().OK() {
		t.Error("choice made with no matches")
	}
	if !strings.Contains(m.View(), "no matches") {
		t.Error("view does not mention missing matches")
	}
}

func TestModel_EscCancels(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newModel("", []string{"a"}, Theme{})
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Errorf("%s did not quit", key)
		}
		if m.choice().OK() {
			t.Errorf("%s produced a choice", key)
		}
	}
}

func TestModel_ScrollFollowsCursor(t *testing.T) {
	items := make([]string, 20)
	for i := range items {
		items[i] = strings.Repeat("x", i+1)
	}
	m := newModel("", items, Theme{})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 8})
	for range 10 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.offset != 10-m.rows()+1 {
		t.Errorf("offset = %d, rows = %d", m.offset, m.rows())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a long tab name", 8, "a long …"},
		{"日本語のタブ", 7, "日本語…"},
		{"abc", 0, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestChoose_NotTerminal(t *testing.T) {
	p := &Picker{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	c, err := p.Choose(context.Background(), []string{"a"})
	if !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("err = %v, want ErrNotTerminal", err)
	}
	if c.OK() {
		t.Error("choice made without a terminal")
	}
}

type fixedChooser struct {
	c   bridge.Choice
	err error
}

func (f fixedChooser) Choose(context.Context, []string) (bridge.Choice, error) { return f.c, f.err }

func TestTerminalUI_Pick(t *testing.T) {
	var out bytes.Buffer
	ui := &TerminalUI{Chooser: fixedChooser{c: bridge.Picked(1, "b")}, Out: &out}

	var got bridge.Choice
	ui.Pick([]string{"a", "b"}, func(_ context.Context, _ bridge.UI, c bridge.Choice) error {
		got = c
		return nil
	})
	if got.Item != "b" {
		t.Errorf("done got %+v", got)
	}
	if ui.Err() != nil {
		t.Errorf("Err = %v", ui.Err())
	}
}

func TestTerminalUI_PickErrors(t *testing.T) {
	var out bytes.Buffer
	ui := &TerminalUI{Chooser: fixedChooser{err: ErrNotTerminal}, Out: &out}
	called := false
	ui.Pick([]string{"a"}, func(context.Context, bridge.UI, bridge.Choice) error {
		called = true
		return nil
	})
	if called {
		t.Error("done called after chooser failure")
	}
	if !errors.Is(ui.Err(), ErrNotTerminal) {
		t.Errorf("Err = %v", ui.Err())
	}

	ui = &TerminalUI{Chooser: fixedChooser{c: bridge.Picked(0, "a")}, Out: &out}
	boom := errors.New("boom")
	ui.Pick([]string{"a"}, func(context.Context, bridge.UI, bridge.Choice) error { return boom })
	if !errors.Is(ui.Err(), boom) {
		t.Errorf("Err = %v, want boom", ui.Err())
	}
}

func TestTerminalUI_EmptyPickAndMessages(t *testing.T) {
	var out bytes.Buffer
	ui := &TerminalUI{Chooser: fixedChooser{}, Out: &out}
	ui.Pick(nil, func(context.Context, bridge.UI, bridge.Choice) error {
		t.Error("done called for empty list")
		return nil
	})
	ui.Error("bad")

	if !strings.Contains(out.String(), bridge.MsgNothingToPick) || !strings.Contains(out.String(), "bad") {
		t.Errorf("output = %q", out.String())
	}
	if !ui.Failed() {
		t.Error("Failed = false after Error")
	}
}
