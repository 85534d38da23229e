package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(success)
	cursor        = lipgloss.NewStyle().Bold(true).Foreground(highlight).Render("❯ ")
)

type confirmKeys struct {
	yes    key.Binding
	no     key.Binding
	toggle key.Binding
	accept key.Binding
	cancel key.Binding
}

var defaultConfirmKeys = confirmKeys{
	yes:    key.NewBinding(key.WithKeys("left", "h", "y", "Y")),
	no:     key.NewBinding(key.WithKeys("right", "l", "n", "N")),
	toggle: key.NewBinding(key.WithKeys("tab")),
	accept: key.NewBinding(key.WithKeys("enter")),
	cancel: key.NewBinding(key.WithKeys("ctrl+c", "esc", "q")),
}

// ConfirmModel is a yes/no question answered with arrow keys or y/n.
type ConfirmModel struct {
	question  string
	detail    string
	yes       bool
	answered  bool
	cancelled bool
	keys      confirmKeys
}

// NewConfirm returns a prompt with the given default answer selected.
func NewConfirm(question, detail string, defaultYes bool) ConfirmModel {
	return ConfirmModel{question: question, detail: detail, yes: defaultYes, keys: defaultConfirmKeys}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.yes):
		m.yes = true
	case key.Matches(k, m.keys.no):
		m.yes = false
	case key.Matches(k, m.keys.toggle):
		m.yes = !m.yes
	case key.Matches(k, m.keys.accept):
		m.answered = true
		return m, tea.Quit
	case key.Matches(k, m.keys.cancel):
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.answered || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render("? "+m.question) + "\n")
	if m.detail != "" {
		b.WriteString(dimStyle.Render("  "+m.detail) + "\n")
	}

	yes, no := "  "+dimStyle.Render("Yes"), "  "+dimStyle.Render("No")
	if m.yes {
		yes = cursor + selectedStyle.Render("Yes")
	} else {
		no = cursor + selectedStyle.Render("No")
	}
	b.WriteString("\n" + yes + "    " + no + "\n\n")
	b.WriteString(dimStyle.Render("  ← → to select • enter to confirm • esc to cancel"))
	return b.String()
}

// Confirmed reports whether the user accepted with Yes selected.
func (m ConfirmModel) Confirmed() bool {
	return m.answered && !m.cancelled && m.yes
}

// Confirm asks question on out and reads keys from in.
func Confirm(in io.Reader, out io.Writer, question, detail string) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(question, detail, false), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed(), nil
}
