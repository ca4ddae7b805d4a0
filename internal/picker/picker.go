// Package picker is the terminal stand-in for an editor's quick-pick list:
// a filterable list the user moves through with the arrow keys.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/timvw/zj-link/internal/bridge"
)

// ErrNotTerminal is returned when the picker has no terminal to read keys
// from.
var ErrNotTerminal = errors.New("interactive selection needs a terminal; pass the name as an argument instead")

// Picker shows a list on a terminal and returns the user's choice.
type Picker struct {
	Title string
	Theme Theme
	In    io.Reader // defaults to os.Stdin
	Out   io.Writer // defaults to os.Stderr
}

// Choose blocks until the user picks an entry or cancels.
func (p *Picker) Choose(ctx context.Context, items []string) (bridge.Choice, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	if !isTerminal(in) {
		return bridge.Cancelled(), ErrNotTerminal
	}

	m := newModel(p.Title, items, p.Theme)
	prog := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return bridge.Cancelled(), fmt.Errorf("run picker: %w", err)
	}
	return final.(*model).choice(), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type model struct {
	title  string
	items  []string
	styles styles

	filter  textinput.Model
	visible []int // indices into items matching the filter
	cursor  int   // position in visible
	offset  int   // first visible row shown

	chosen    int
	cancelled bool

	width  int
	height int
}

func newModel(title string, items []string, theme Theme) *model {
	if theme == (Theme{}) {
		theme = DarkTheme()
	}
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	m := &model{
		title:  title,
		items:  items,
		styles: newStyles(theme),
		filter: ti,
		chosen: -1,
		width:  80,
		height: 20,
	}
	m.refilter()
	return m
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		if len(m.visible) == 0 {
			return m, nil
		}
		m.chosen = m.visible[m.cursor]
		return m, tea.Quit
	case "up", "ctrl+p", "ctrl+k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
		return m, nil
	case "down", "ctrl+n", "ctrl+j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		m.scroll()
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.refilter()
	}
	return m, cmd
}

// refilter keeps items containing every space-separated word of the
// filter, case-insensitively, and moves the cursor to the first match.
func (m *model) refilter() {
	words := strings.Fields(strings.ToLower(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, item := range m.items {
		lower := strings.ToLower(item)
		match := true
		for _, w := range words {
			if !strings.Contains(lower, w) {
				match = false
				break
			}
		}
		if match {
			m.visible = append(m.visible, i)
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m *model) rows() int {
	// title, filter, blank line, hint
	n := m.height - 4
	if n < 1 {
		n = 1
	}
	return n
}

func (m *model) scroll() {
	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *model) choice() bridge.Choice {
	if m.cancelled || m.chosen < 0 {
		return bridge.Cancelled()
	}
	return bridge.Picked(m.chosen, m.items[m.chosen])
}

func (m *model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.title.Render(m.title))
		b.WriteString("\n")
	}
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(m.styles.err.Render("  no matches"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.rows(), len(m.visible))
	for pos := m.offset; pos < end; pos++ {
		label := truncate(m.items[m.visible[pos]], m.width-4)
		if pos == m.cursor {
			b.WriteString(m.styles.selected.Render("▸ " + label))
		} else {
			b.WriteString(m.styles.text.Render("  " + label))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.dim.Render(fmt.Sprintf("%d/%d  ↑/↓ move  enter select  esc cancel", len(m.visible), len(m.items))))
	return b.String()
}

// truncate cuts s to at most width terminal cells.
func truncate(s string, width int) string {
	if width < 1 {
		width = 1
	}
	return runewidth.Truncate(s, width, "…")
}
