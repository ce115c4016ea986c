package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// hintWidth caps the dimmed hint column so long launch commands do not wrap
// the picker lines.
const hintWidth = 48

// PickItem is one removable entry in the picker list. Hint is short context
// rendered dimmed after the name, such as the entry's command or URL.
type PickItem struct {
	Name string
	Hint string
}

// PickModel lists registry entries and asks for confirmation before
// reporting the chosen name. Navigation works like the menu: arrows or a
// typed item number, enter to pick. Enter on the confirmation prompt backs
// out, the safe default for a destructive action; only an explicit y
// confirms.
type PickModel struct {
	title      string
	items      []PickItem
	cursor     int
	buffer     string
	confirming bool
	chosen     string
}

func NewPicker(title string, items []PickItem) PickModel {
	return PickModel{title: title, items: items}
}

func (m PickModel) Init() tea.Cmd {
	return nil
}

func (m PickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirming {
		switch {
		case key.Matches(keyMsg, keys.Yes):
			m.chosen = m.items[m.cursor].Name
			return m, tea.Quit
		case key.Matches(keyMsg, keys.Quit):
			return m, tea.Quit
		case key.Matches(keyMsg, keys.No), key.Matches(keyMsg, keys.Back), key.Matches(keyMsg, keys.Enter):
			m.confirming = false
		}
		// Other keys are consumed while the prompt is up.
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Quit), key.Matches(keyMsg, keys.Back):
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Up):
		m.buffer = ""
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, keys.Down):
		m.buffer = ""
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, keys.Enter):
		if len(m.items) > 0 {
			m.confirming = true
		}

	default:
		switch s := keyMsg.String(); s {
		case "backspace":
			if len(m.buffer) > 0 {
				m.buffer, m.cursor = numberJump(m.buffer, m.buffer[:len(m.buffer)-1], len(m.items), m.cursor)
			}
		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.buffer, m.cursor = numberJump(m.buffer, m.buffer+s, len(m.items), m.cursor)
		}
	}
	return m, nil
}

func (m PickModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, item := range m.items {
		line := fmt.Sprintf("%d. %s", i+1, item.Name)
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(normalItemStyle.Render("  " + line))
		}
		if item.Hint != "" {
			b.WriteString(" ")
			b.WriteString(ansi.Truncate(hintStyle.Render(item.Hint), hintWidth, "…"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.confirming {
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Remove %s? (y/N)", m.items[m.cursor].Name)))
	} else {
		if m.buffer != "" {
			b.WriteString(mutedStyle.Render("typing: " + m.buffer))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ or number keys to navigate, enter to remove, q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// Chosen reports the confirmed server name, empty when the user backed out.
func (m PickModel) Chosen() string {
	return m.chosen
}

// RunRemovePicker shows the removal picker on out and blocks until the user
// confirms an entry or backs out. An empty name means nothing was chosen.
func RunRemovePicker(out io.Writer, title string, items []PickItem) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	program := tea.NewProgram(NewPicker(title, items), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("running remove picker: %w", err)
	}
	m, ok := final.(PickModel)
	if !ok {
		return "", nil
	}
	return m.chosen, nil
}
