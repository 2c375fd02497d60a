package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Houndie/crabtap/internal/model"
)

// handleManualEntryKey submits or cancels the prompt; every other key is
// forwarded into the text buffer. Note that q stays a typeable character
// here, only esc and ctrl+c leave the prompt.
func handleManualEntryKey(m *model.Model, keys KeyMap, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		m.SubmitManualEntry()
		return nil
	case key.Matches(msg, keys.Cancel):
		m.CancelManualEntry()
		return nil
	}

	mode, ok := m.Mode.(model.ModeManualEntry)
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	mode.Input, cmd = mode.Input.Update(msg)
	m.Mode = mode
	return cmd
}

func handleConfirmKey(m *model.Model, keys KeyMap, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Accept):
		m.ConfirmWrite()
	case key.Matches(msg, keys.Reject), key.Matches(msg, keys.Cancel):
		m.CancelWrite()
	}
	return nil
}
