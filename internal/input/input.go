package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Houndie/crabtap/internal/model"
)

// KeyMap binds the session actions. Navigation gains h and l when vim
// keys are enabled.
type KeyMap struct {
	Tap       key.Binding
	NextTrack key.Binding
	PrevTrack key.Binding
	Restart   key.Binding
	Manual    key.Binding
	Confirm   key.Binding
	Accept    key.Binding
	Reject    key.Binding
	Cancel    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func DefaultKeyMap(vim bool) KeyMap {
	next := []string{"right", "s"}
	prev := []string{"left"}
	if vim {
		next = append(next, "l")
		prev = append(prev, "h")
	}
	return KeyMap{
		Tap:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "tap")),
		NextTrack: key.NewBinding(key.WithKeys(next...), key.WithHelp("→/s", "next track")),
		PrevTrack: key.NewBinding(key.WithKeys(prev...), key.WithHelp("←", "previous track")),
		Restart:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Manual:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "type a bpm")),
		Confirm:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write tag")),
		Accept:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "yes")),
		Reject:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// HandleKeyInput routes a key press according to the current mode. It
// returns tea.Quit once the session reaches its terminal state.
func HandleKeyInput(m *model.Model, keys KeyMap, msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.ForceQuit) {
		m.Quit()
		return tea.Quit
	}

	switch m.Mode.(type) {
	case model.ModePlaying:
		return handlePlayingKey(m, keys, msg)
	case model.ModeManualEntry:
		return handleManualEntryKey(m, keys, msg)
	case model.ModeConfirmingWrite:
		return handleConfirmKey(m, keys, msg)
	default:
		// Quitting: the session is over, nothing left to do with keys.
		return nil
	}
}

func handlePlayingKey(m *model.Model, keys KeyMap, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Tap):
		m.ApplyTap(m.Clock.Now())
	case key.Matches(msg, keys.NextTrack):
		m.NextTrack()
	case key.Matches(msg, keys.PrevTrack):
		m.PrevTrack()
	case key.Matches(msg, keys.Restart):
		m.RestartTrack()
	case key.Matches(msg, keys.Manual):
		m.BeginManualEntry()
	case key.Matches(msg, keys.Confirm):
		m.BeginConfirmWrite()
	case key.Matches(msg, keys.Quit):
		m.Quit()
		return tea.Quit
	}
	return nil
}
