// Package picker is an interactive terminal list for choosing which tables
// to export.
package picker

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/sadopc/dbschema/internal/theme"
)

// ErrCancelled is returned by Run when the user dismisses the picker.
var ErrCancelled = errors.New("picker: cancelled")

// Model is a fuzzy-filterable multi-select list of table names.
type Model struct {
	tables   []string
	selected []bool

	// visible holds indexes into tables in display order; hits holds the
	// matched rune positions for each visible entry.
	visible []int
	hits    map[int][]int

	cursor int
	offset int
	width  int
	height int

	filter    textinput.Model
	theme     *theme.Theme
	confirmed bool
	cancelled bool
}

// New creates a picker over tables with nothing selected. A nil theme uses
// theme.Current.
func New(tables []string, th *theme.Theme) Model {
	if th == nil {
		th = theme.Current
	}
	ti := textinput.New()
	ti.Placeholder = "filter tables..."
	ti.Prompt = "> "
	ti.PromptStyle = th.PickerPrompt
	ti.Width = 40
	ti.Focus()

	m := Model{
		tables:   tables,
		selected: make([]bool, len(tables)),
		filter:   ti,
		theme:    th,
	}
	m.applyFilter()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Selected returns the chosen tables in their original order.
func (m Model) Selected() []string {
	out := make([]string, 0, len(m.tables))
	for i, name := range m.tables {
		if m.selected[i] {
			out = append(out, name)
		}
	}
	return out
}

// Confirmed reports whether the user accepted the selection with enter.
func (m Model) Confirmed() bool { return m.confirmed }

// Cancelled reports whether the user dismissed the picker.
func (m Model) Cancelled() bool { return m.cancelled }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.ensureVisible()
			}
			return m, nil
		case " ", "tab":
			if m.cursor < len(m.visible) {
				i := m.visible[m.cursor]
				m.selected[i] = !m.selected[i]
			}
			return m, nil
		case "ctrl+a":
			m.toggleVisible()
			return m, nil
		}

		prev := m.filter.Value()
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != prev {
			m.applyFilter()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// toggleVisible selects every visible table, or clears them all when they
// are already selected.
func (m *Model) toggleVisible() {
	all := len(m.visible) > 0
	for _, i := range m.visible {
		if !m.selected[i] {
			all = false
			break
		}
	}
	for _, i := range m.visible {
		m.selected[i] = !all
	}
}

// tableNames implements fuzzy.Source over lower-cased table names.
type tableNames []string

func (t tableNames) String(i int) string { return t[i] }
func (t tableNames) Len() int            { return len(t) }

func (m *Model) applyFilter() {
	m.cursor = 0
	m.offset = 0
	m.hits = nil

	pattern := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if pattern == "" {
		m.visible = make([]int, len(m.tables))
		for i := range m.tables {
			m.visible[i] = i
		}
		return
	}

	lower := make(tableNames, len(m.tables))
	for i, name := range m.tables {
		lower[i] = strings.ToLower(name)
	}

	// FindFrom returns matches ranked by score.
	matches := fuzzy.FindFrom(pattern, lower)
	m.visible = make([]int, 0, len(matches))
	m.hits = make(map[int][]int, len(matches))
	for _, match := range matches {
		m.visible = append(m.visible, match.Index)
		m.hits[match.Index] = match.MatchedIndexes
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.confirmed || m.cancelled {
		return ""
	}
	th := m.theme

	var lines []string
	end := m.offset + m.visibleCount()
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for pos := m.offset; pos < end; pos++ {
		i := m.visible[pos]
		box := "[ ]"
		if m.selected[i] {
			box = "[x]"
		}
		name := m.renderName(i)
		if pos == m.cursor {
			lines = append(lines, th.PickerCursor.Render("> ")+th.PickerSelected.Render(box)+" "+name)
		} else {
			lines = append(lines, "  "+th.PickerItem.Render(box)+" "+name)
		}
	}
	if len(m.visible) == 0 {
		lines = append(lines, th.MutedText.Render("  no matching tables"))
	}

	count := fmt.Sprintf("%d/%d selected", len(m.Selected()), len(m.tables))
	help := "space:toggle  ctrl+a:toggle all  enter:export  esc:cancel"

	return lipgloss.JoinVertical(lipgloss.Left,
		th.Title.Render("Select tables"),
		m.filter.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		th.StatusValue.Render(count),
		th.MutedText.Render(help),
	) + "\n"
}

// renderName styles the matched runes of table i.
func (m Model) renderName(i int) string {
	name := m.tables[i]
	hits := m.hits[i]
	if len(hits) == 0 {
		return m.theme.PickerItem.Render(name)
	}
	hit := make(map[int]bool, len(hits))
	for _, h := range hits {
		hit[h] = true
	}
	var b strings.Builder
	for j, r := range name {
		if hit[j] {
			b.WriteString(m.theme.PickerMatch.Render(string(r)))
		} else {
			b.WriteString(m.theme.PickerItem.Render(string(r)))
		}
	}
	return b.String()
}

// visibleCount returns how many rows fit on screen.
func (m Model) visibleCount() int {
	// Title + filter + blank + blank + count + help
	avail := m.height - 6
	if avail < 5 {
		avail = 5
	}
	return avail
}

func (m *Model) ensureVisible() {
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// Run shows the picker on out and blocks until the user confirms or
// cancels. It returns the selected tables in their original order, or
// ErrCancelled.
func Run(tables []string, th *theme.Theme, in io.Reader, out io.Writer) ([]string, error) {
	p := tea.NewProgram(New(tables, th), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	m := final.(Model)
	if !m.Confirmed() {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
