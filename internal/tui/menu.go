package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is the entry the user picked from the top-level menu. The command
// layer maps each action onto the same code path the equivalent flag uses,
// so the menu is a front-end for the flag surface rather than a separate
// feature set.
type Action int

const (
	ActionNone Action = iota
	ActionInstallRecommended
	ActionInstallDevelopment
	ActionInstallSearch
	ActionListInstalled
	ActionRemoveServer
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionInstallRecommended:
		return "install-recommended"
	case ActionInstallDevelopment:
		return "install-development"
	case ActionInstallSearch:
		return "install-search"
	case ActionListInstalled:
		return "list-installed"
	case ActionRemoveServer:
		return "remove-server"
	case ActionExit:
		return "exit"
	default:
		return "none"
	}
}

type menuItem struct {
	label  string
	action Action
}

// MenuModel is the numbered menu shown when capstan runs on a terminal with
// no arguments. Items can be reached with the arrow keys or by typing the
// item number directly; enter confirms, q or esc leaves with ActionExit.
type MenuModel struct {
	items  []menuItem
	cursor int
	buffer string // digits typed so far, interpreted as a 1-based item number
	choice Action
}

func NewMenu() MenuModel {
	return MenuModel{
		items: []menuItem{
			{"Install all recommended servers", ActionInstallRecommended},
			{"Install development tools", ActionInstallDevelopment},
			{"Install search & AI tools", ActionInstallSearch},
			{"List installed servers", ActionListInstalled},
			{"Remove a server", ActionRemoveServer},
			{"Exit", ActionExit},
		},
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Quit), key.Matches(keyMsg, keys.Back):
		m.choice = ActionExit
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
		m.choice = m.items[m.cursor].action
		return m, tea.Quit

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

func (m MenuModel) View() string {
	var b strings.Builder
	b.WriteString(logoStyle.Render("capstan"))
	b.WriteString("  ")
	b.WriteString(titleStyle.Render("MCP server setup"))
	b.WriteString("\n\n")

	for i, item := range m.items {
		line := fmt.Sprintf("%d. %s", i+1, item.label)
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(normalItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.buffer != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("typing: " + m.buffer))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ or number keys to navigate, enter to select, q to quit"))
	b.WriteString("\n")
	return b.String()
}

// Choice reports the action the finished menu resolved to.
func (m MenuModel) Choice() Action {
	return m.choice
}

// RunMenu shows the top-level menu on out and blocks until the user picks an
// entry. A menu dismissed without a selection reports ActionExit.
func RunMenu(out io.Writer) (Action, error) {
	program := tea.NewProgram(NewMenu(), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return ActionExit, fmt.Errorf("running menu: %w", err)
	}
	m, ok := final.(MenuModel)
	if !ok || m.choice == ActionNone {
		return ActionExit, nil
	}
	return m.choice, nil
}

// numberJump interprets typed digits as a 1-based position among size items.
// It returns the new buffer and cursor when the number lands inside the
// list, and leaves both untouched otherwise.
func numberJump(oldBuffer, newBuffer string, size, cursor int) (string, int) {
	if newBuffer == "" {
		return "", cursor
	}
	n, err := strconv.Atoi(newBuffer)
	if err != nil {
		return oldBuffer, cursor
	}
	if idx := n - 1; idx >= 0 && idx < size {
		return newBuffer, idx
	}
	return oldBuffer, cursor
}
