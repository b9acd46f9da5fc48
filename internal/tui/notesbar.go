package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// NotesBar collects close-out notes for one work order.
type NotesBar struct {
	input   textinput.Model
	target  string
	focused bool
}

// NewNotesBar creates an unfocused notes bar.
func NewNotesBar() *NotesBar {
	ti := textinput.New()
	ti.Placeholder = "What was done?"
	ti.CharLimit = 256
	ti.Width = 60
	return &NotesBar{input: ti}
}

// Focus starts collecting notes for the work order id.
func (m *NotesBar) Focus(id string) tea.Cmd {
	m.target = id
	m.focused = true
	m.input.SetValue("")
	return m.input.Focus()
}

// Blur abandons the notes.
func (m *NotesBar) Blur() {
	m.focused = false
	m.target = ""
	m.input.Blur()
	m.input.SetValue("")
}

// Focused reports whether the bar is collecting input.
func (m *NotesBar) Focused() bool {
	return m.focused
}

// Submit returns the target order and the typed notes, then blurs.
func (m *NotesBar) Submit() (id, notes string) {
	id, notes = m.target, m.input.Value()
	m.Blur()
	return id, notes
}

// SetWidth resizes the input.
func (m *NotesBar) SetWidth(w int) {
	if w > 10 {
		m.input.Width = w - 10
	}
}

// Update forwards input events to the text field.
func (m *NotesBar) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the bar.
func (m *NotesBar) View() string {
	prompt := labelStyle.Render("Close " + m.target + ": ")
	return inputBoxStyle.Render(prompt + m.input.View())
}
