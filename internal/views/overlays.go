package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/Houndie/crabtap/internal/model"
)

// Probed once; the OSC query behind it is not something to repeat at
// frame rate.
var darkBackground = termenv.HasDarkBackground()

// renderModeOverlay renders the mode-specific prompt block, returning the
// rendered text and how many lines it occupies.
func renderModeOverlay(m *model.Model, snap DisplaySnapshot, styles *ViewStyles) (string, int) {
	switch snap.Mode {
	case ModeManual:
		mode, ok := m.Mode.(model.ModeManualEntry)
		if !ok {
			return "", 0
		}
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(styles.Prompt.Render(" " + snap.Prompt + " "))
		b.WriteString(" ")
		b.WriteString(mode.Input.View())
		if mode.Input.Err != nil {
			b.WriteString(styles.Error.Render("  numbers only"))
		}
		b.WriteString("\n")
		return b.String(), 2

	case ModeConfirming:
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(styles.Prompt.Render(" " + snap.Prompt + " "))
		b.WriteString(styles.Label.Render("  y/n"))
		b.WriteString("\n")
		return b.String(), 2
	}
	return "", 0
}

func helpFor(mode string) string {
	switch mode {
	case ModeManual:
		return "enter: set  esc: cancel"
	case ModeConfirming:
		return "y: write tag  n: keep editing"
	default:
		return "space: tap  ←/→: track  r: restart  m: type a bpm  enter: write tag  q: quit"
	}
}

// tapIndicator renders the beat dot. It lights up on every tap and fades
// back toward the resting shade over the configured flash window.
func tapIndicator(m *model.Model) string {
	if m.LastTapAt.IsZero() {
		return ""
	}
	flash := time.Duration(m.Config.UI.FlashMS) * time.Millisecond
	age := m.Clock.Now().Sub(m.LastTapAt)
	if age < 0 || age >= flash {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("○")
	}
	c := flashColor(float64(age) / float64(flash))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●")
}

// flashColor blends the accent toward the resting shade in Lab space so
// the fade reads as even brightness steps. t runs from 0 (fresh tap)
// to 1 (faded).
func flashColor(t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	accent, _ := colorful.Hex(flashAccentHex())
	rest, _ := colorful.Hex("#444444")
	return accent.BlendLab(rest, t).Clamped().Hex()
}

func flashAccentHex() string {
	if darkBackground {
		return "#5fff5f"
	}
	return "#008700"
}
