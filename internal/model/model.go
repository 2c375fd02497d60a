package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sirupsen/logrus"

	"github.com/Houndie/crabtap/internal/config"
	"github.com/Houndie/crabtap/internal/tap"
	"github.com/Houndie/crabtap/internal/types"
)

// Player is the playback capability the session consumes. The real
// implementation lives in internal/playback; tests substitute fakes.
type Player interface {
	Select(path string) error
	Restart() error
	IsLoaded(path string) bool
	Stop()
}

// TagWriter persists a BPM value into a file tag and reports the value
// as actually stored (MP3 tags round to whole numbers).
type TagWriter interface {
	WriteBPM(path string, bpm float64) (float64, error)
}

// Clock supplies tap timestamps. Injected so tap sequences can be
// replayed deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Mode is the session's interaction state. Exactly one variant is active
// at a time; variants carry their own payload so stale buffers or pending
// values cannot outlive the mode they belong to.
type Mode interface {
	isMode()
}

// ModePlaying is the default state: taps are recorded, navigation and
// restart are live.
type ModePlaying struct{}

// ModeManualEntry overrides the estimate with a typed value. The text
// buffer lives here and is rebuilt on every entry.
type ModeManualEntry struct {
	Input textinput.Model
}

// ModeConfirmingWrite holds the captured value awaiting a yes or no.
type ModeConfirmingWrite struct {
	BPM float64
}

// ModeQuitting is terminal; input is ignored and playback is stopped.
type ModeQuitting struct{}

func (ModePlaying) isMode()         {}
func (ModeManualEntry) isMode()     {}
func (ModeConfirmingWrite) isMode() {}
func (ModeQuitting) isMode()        {}

// Model is the session aggregate: the track list, the selection, the
// current mode and the tap window, plus the injected capabilities.
type Model struct {
	Tracks   []*types.Track
	Selected int
	Mode     Mode

	Estimator *tap.Estimator
	Player    Player
	Tags      TagWriter
	Clock     Clock
	Config    *config.Config

	ErrMsg    string
	StatusMsg string
	LastTapAt time.Time

	TermWidth  int
	TermHeight int
}

func NewModel(tracks []*types.Track, player Player, tags TagWriter, clock Clock, cfg *config.Config) *Model {
	return &Model{
		Tracks:    tracks,
		Mode:      ModePlaying{},
		Estimator: tap.NewEstimator(),
		Player:    player,
		Tags:      tags,
		Clock:     clock,
		Config:    cfg,
	}
}

// CurrentTrack returns the selected track. The selection is kept valid
// by construction.
func (m *Model) CurrentTrack() *types.Track {
	return m.Tracks[m.Selected]
}

// ApplyTap records a tap at now and folds the fresh estimate into the
// current track. Taps land only while Playing; in any other mode the
// key means something else or nothing.
func (m *Model) ApplyTap(now time.Time) {
	if _, ok := m.Mode.(ModePlaying); !ok {
		return
	}
	m.Estimator.RecordTap(now)
	m.LastTapAt = now
	m.ErrMsg = ""
	m.StatusMsg = ""
	if bpm, ok := m.Estimator.BPM(); ok {
		m.CurrentTrack().NewBPM = bpm
	}
}

// SelectTrack binds playback to the track at index start, walking
// forward past tracks the player cannot open for at most one full lap.
// The tap window is reset whenever playback is rebound.
func (m *Model) SelectTrack(start int) {
	n := len(m.Tracks)
	skipMsg := ""
	for i := 0; i < n; i++ {
		idx := ((start+i)%n + n) % n
		track := m.Tracks[idx]

		if m.Player.IsLoaded(track.Path) {
			// Already bound; rewinding is enough.
			if err := m.Player.Restart(); err != nil {
				logrus.WithField("path", track.Path).WithError(err).Error("restart failed")
			}
		} else if err := m.Player.Select(track.Path); err != nil {
			logrus.WithField("path", track.Path).WithError(err).Warn("skipping unplayable track")
			if skipMsg == "" {
				skipMsg = err.Error()
			}
			continue
		}

		m.Selected = idx
		m.Estimator.Reset()
		m.ErrMsg = skipMsg
		m.StatusMsg = ""
		return
	}
	m.ErrMsg = "no playable tracks"
}

// NextTrack moves the selection forward, wrapping at the end of the list.
func (m *Model) NextTrack() { m.SelectTrack(m.Selected + 1) }

// PrevTrack moves the selection backward, wrapping at the start.
func (m *Model) PrevTrack() { m.SelectTrack(m.Selected - 1) }

// RestartTrack rewinds playback to the start and clears the tap window
// so the next tap run starts clean against the downbeat.
func (m *Model) RestartTrack() {
	m.Estimator.Reset()
	m.StatusMsg = ""
	if err := m.Player.Restart(); err != nil {
		logrus.WithError(err).Error("restart failed")
		m.ErrMsg = err.Error()
	}
}

// BeginManualEntry opens the override prompt, pre-filled with the current
// value as a suggestion.
func (m *Model) BeginManualEntry() {
	if _, ok := m.Mode.(ModePlaying); !ok {
		return
	}
	ti := textinput.New()
	ti.Placeholder = "bpm"
	ti.Prompt = ""
	ti.CharLimit = 7
	ti.Width = 10
	ti.Validate = validateBPMInput
	if t := m.CurrentTrack(); t.HasNewBPM() {
		ti.SetValue(strconv.FormatFloat(t.NewBPM, 'f', 1, 64))
	}
	ti.Focus()
	m.Mode = ModeManualEntry{Input: ti}
}

func validateBPMInput(s string) error {
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}

// SubmitManualEntry parses the buffer; a positive number replaces the
// track value and clears the tap window. Anything else changes nothing.
// Either way the session returns to Playing.
func (m *Model) SubmitManualEntry() {
	mode, ok := m.Mode.(ModeManualEntry)
	if !ok {
		return
	}
	buf := strings.TrimSpace(mode.Input.Value())
	if bpm, err := strconv.ParseFloat(buf, 64); err == nil && bpm > 0 {
		m.CurrentTrack().NewBPM = bpm
		m.Estimator.Reset()
	}
	m.Mode = ModePlaying{}
}

// CancelManualEntry discards the buffer.
func (m *Model) CancelManualEntry() {
	if _, ok := m.Mode.(ModeManualEntry); !ok {
		return
	}
	m.Mode = ModePlaying{}
}

// BeginConfirmWrite captures the pending value for confirmation. A track
// without a value has nothing to write, so this is a no-op.
func (m *Model) BeginConfirmWrite() {
	if _, ok := m.Mode.(ModePlaying); !ok {
		return
	}
	t := m.CurrentTrack()
	if !t.HasNewBPM() {
		return
	}
	m.Mode = ModeConfirmingWrite{BPM: t.NewBPM}
}

// ConfirmWrite persists the captured value through the tag gateway. On
// failure the in-memory value is untouched so the user can retry; either
// way the session returns to Playing on the same track.
func (m *Model) ConfirmWrite() {
	mode, ok := m.Mode.(ModeConfirmingWrite)
	if !ok {
		return
	}
	m.Mode = ModePlaying{}

	track := m.CurrentTrack()
	stored, err := m.Tags.WriteBPM(track.Path, mode.BPM)
	if err != nil {
		logrus.WithField("path", track.Path).WithError(err).Error("tag write failed")
		m.ErrMsg = err.Error()
		return
	}
	track.Written = true
	track.Existing = stored
	m.ErrMsg = ""
	m.StatusMsg = fmt.Sprintf("wrote %s to %s",
		strconv.FormatFloat(stored, 'f', -1, 64), filepath.Base(track.Path))
}

// CancelWrite discards the captured value and returns to Playing.
func (m *Model) CancelWrite() {
	if _, ok := m.Mode.(ModeConfirmingWrite); !ok {
		return
	}
	m.Mode = ModePlaying{}
}

// Quit enters the terminal state, stopping playback exactly once no
// matter how many times it is invoked or from which mode.
func (m *Model) Quit() {
	if _, ok := m.Mode.(ModeQuitting); ok {
		return
	}
	m.Mode = ModeQuitting{}
	m.Player.Stop()
	logrus.Info("session ended")
}
