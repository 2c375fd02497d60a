package views

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Houndie/crabtap/internal/model"
	"github.com/Houndie/crabtap/internal/tap"
)

// Mode tags carried on a DisplaySnapshot.
const (
	ModePlaying    = "playing"
	ModeManual     = "manual-entry"
	ModeConfirming = "confirming-write"
	ModeQuitting   = "quitting"
)

// DisplaySnapshot is everything the renderer needs for one frame,
// derived from the session without touching it.
type DisplaySnapshot struct {
	Title    string
	Artist   string
	Path     string
	Index    int
	Count    int
	Duration time.Duration

	Existing float64
	Written  bool
	Current  float64
	TapCount int

	Mode      string
	Prompt    string
	Buffer    string
	Pending   float64
	ErrMsg    string
	StatusMsg string
	LastTapAt time.Time
}

// Project derives the display snapshot for the current state. Pure: the
// same session always projects the same snapshot and nothing is mutated.
func Project(m *model.Model) DisplaySnapshot {
	track := m.CurrentTrack()
	snap := DisplaySnapshot{
		Title:     track.Name(),
		Artist:    track.Artist,
		Path:      track.Path,
		Index:     m.Selected,
		Count:     len(m.Tracks),
		Duration:  track.Duration,
		Existing:  track.Existing,
		Written:   track.Written,
		Current:   track.NewBPM,
		TapCount:  m.Estimator.Count(),
		ErrMsg:    m.ErrMsg,
		StatusMsg: m.StatusMsg,
		LastTapAt: m.LastTapAt,
	}

	switch mode := m.Mode.(type) {
	case model.ModeManualEntry:
		snap.Mode = ModeManual
		snap.Buffer = mode.Input.Value()
		snap.Prompt = "new bpm:"
	case model.ModeConfirmingWrite:
		snap.Mode = ModeConfirming
		snap.Pending = mode.BPM
		snap.Prompt = fmt.Sprintf("write %s to %s?", FormatBPM(mode.BPM), filepath.Base(track.Path))
	case model.ModeQuitting:
		snap.Mode = ModeQuitting
	default:
		snap.Mode = ModePlaying
	}
	return snap
}

// FormatBPM trims a BPM value for display: whole numbers lose the
// decimal point, estimates keep one digit.
func FormatBPM(bpm float64) string {
	if bpm == math.Trunc(bpm) {
		return strconv.FormatFloat(bpm, 'f', 0, 64)
	}
	return strconv.FormatFloat(bpm, 'f', 1, 64)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	mins := int(d.Minutes())
	secs := int(d.Seconds()) - mins*60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// Common styles used across the session views
type ViewStyles struct {
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Label     lipgloss.Style
	Container lipgloss.Style
	BPM       lipgloss.Style
	Written   lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
}

// getCommonStyles returns the standard style definitions used across views
func getCommonStyles() *ViewStyles {
	return &ViewStyles{
		Selected:  lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0")),
		Normal:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Container: lipgloss.NewStyle().Padding(1, 2),
		BPM:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Written:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Prompt:    lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")),
	}
}

// Render draws the full frame for the current session state.
func Render(m *model.Model) string {
	styles := getCommonStyles()
	snap := Project(m)

	var content strings.Builder
	contentLines := 0

	counter := fmt.Sprintf("track %d/%d", snap.Index+1, snap.Count)
	content.WriteString(RenderHeader(m, "crabtap", counter))
	content.WriteString("\n")
	contentLines += 2

	title := snap.Title
	if snap.Artist != "" {
		title = snap.Artist + " - " + snap.Title
	}
	content.WriteString(styles.Normal.Render(title) + "\n")
	meta := snap.Path
	if snap.Duration > 0 {
		meta += fmt.Sprintf("  (%s)", formatDuration(snap.Duration))
	}
	content.WriteString(styles.Label.Render(meta) + "\n\n")
	contentLines += 3

	content.WriteString(renderBPMBlock(snap, styles))
	contentLines += 2

	list := renderTrackList(m, styles, m.Config.UI.TrackListLen)
	content.WriteString(list)
	contentLines += strings.Count(list, "\n")

	overlay, overlayLines := renderModeOverlay(m, snap, styles)
	content.WriteString(overlay)
	contentLines += overlayLines

	content.WriteString(RenderFooter(m, contentLines, helpFor(snap.Mode), snap.StatusMsg, snap.ErrMsg))

	return styles.Container.Render(content.String())
}

// renderBPMBlock renders the headline estimate with the tap count and tag
// state alongside it.
func renderBPMBlock(snap DisplaySnapshot, styles *ViewStyles) string {
	line := "bpm  --"
	if snap.Current > 0 {
		line = "bpm  " + FormatBPM(snap.Current)
	}

	var b strings.Builder
	b.WriteString(styles.BPM.Render(line))

	extras := make([]string, 0, 3)
	if snap.TapCount > 0 {
		extras = append(extras, fmt.Sprintf("%d/%d taps", snap.TapCount, tap.WindowSize))
	}
	if snap.Existing > 0 {
		extras = append(extras, "tag "+FormatBPM(snap.Existing))
	}
	if snap.Written {
		extras = append(extras, "written")
	}
	if len(extras) > 0 {
		b.WriteString(styles.Label.Render("   " + strings.Join(extras, "  ")))
	}
	b.WriteString("\n\n")
	return b.String()
}

// renderTrackList renders the scrolling window of the track list with the
// selection arrow, existing tag hints and written markers.
func renderTrackList(m *model.Model, styles *ViewStyles, visibleRows int) string {
	var content strings.Builder
	scroll := trackScrollOffset(m, visibleRows)
	for i := 0; i < visibleRows && i+scroll < len(m.Tracks); i++ {
		dataIndex := i + scroll
		track := m.Tracks[dataIndex]

		arrow := " "
		if m.Selected == dataIndex {
			arrow = "▶"
		}

		label := fmt.Sprintf("%2d %s", dataIndex+1, track.Name())
		var cell string
		switch {
		case m.Selected == dataIndex:
			cell = styles.Selected.Render(label)
		case track.Written:
			cell = styles.Written.Render(label + " ✓")
		default:
			cell = styles.Normal.Render(label)
		}

		hint := ""
		if track.HasExisting() {
			hint = styles.Label.Render(fmt.Sprintf("  [%s]", FormatBPM(track.Existing)))
		}

		content.WriteString(fmt.Sprintf("%s %s%s\n", arrow, cell, hint))
	}
	return content.String()
}

// trackScrollOffset keeps the selection inside the visible window. The
// offset is derived from the selection so rendering stays stateless.
func trackScrollOffset(m *model.Model, visibleRows int) int {
	if visibleRows <= 0 {
		return 0
	}
	offset := 0
	if m.Selected >= visibleRows {
		offset = m.Selected - visibleRows + 1
	}
	max := len(m.Tracks) - visibleRows
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	return offset
}

// RenderHeader renders the title line with right-aligned content and the
// tap indicator, padded to the terminal width.
func RenderHeader(m *model.Model, leftContent, rightContent string) string {
	availableWidth := m.TermWidth - 4 // Account for container padding

	indicator := tapIndicator(m)
	indicatorLen := 0
	if indicator != "" {
		indicatorLen = 2 // Space + circle
	}

	leftLen := lipgloss.Width(leftContent)
	rightLen := lipgloss.Width(rightContent)

	paddingSize := availableWidth - leftLen - rightLen - indicatorLen
	if paddingSize < 1 {
		paddingSize = 1
	}

	fullHeader := leftContent
	if rightContent != "" {
		fullHeader += strings.Repeat(" ", paddingSize) + rightContent
	}
	if indicator != "" {
		fullHeader += " " + indicator
	}
	return fullHeader + "\n"
}

// RenderFooter fills the remaining terminal space, then renders the key
// help and the status or error line.
func RenderFooter(m *model.Model, contentLines int, helpText, statusMsg, errMsg string) string {
	styles := getCommonStyles()
	var content strings.Builder

	footerLines := 1
	if statusMsg != "" || errMsg != "" {
		footerLines++
	}

	// Account for container padding (4) and footer lines
	maxContentLines := m.TermHeight - 4 - footerLines
	if m.TermHeight > 0 && contentLines < maxContentLines {
		for i := contentLines; i < maxContentLines; i++ {
			content.WriteString("\n")
		}
	}

	content.WriteString(styles.Label.Render(helpText))
	if errMsg != "" {
		content.WriteString("\n")
		content.WriteString(styles.Error.Render(errMsg))
	} else if statusMsg != "" {
		content.WriteString("\n")
		content.WriteString(styles.Normal.Render(statusMsg))
	}
	return content.String()
}
