package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m ConfirmModel, keys ...tea.KeyMsg) ConfirmModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(ConfirmModel)
	}
	return m
}

func TestConfirm(t *testing.T) {
	runeKey := func(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	esc := tea.KeyMsg{Type: tea.KeyEsc}
	tab := tea.KeyMsg{Type: tea.KeyTab}

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"default no", []tea.KeyMsg{enter}, false},
		{"y then enter", []tea.KeyMsg{runeKey('y'), enter}, true},
		{"toggle twice", []tea.KeyMsg{tab, tab, enter}, false},
		{"yes then escape", []tea.KeyMsg{runeKey('y'), esc}, false},
		{"no answer yet", []tea.KeyMsg{runeKey('y')}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewConfirm("Remove project?", "", false), tt.keys...)
			if got := m.Confirmed(); got != tt.want {
				t.Errorf("Confirmed() = %v, want %v", got, tt.want)
			}
		})
	}
}
