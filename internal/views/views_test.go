package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Houndie/crabtap/internal/config"
	"github.com/Houndie/crabtap/internal/model"
	"github.com/Houndie/crabtap/internal/types"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestModel(paths ...string) (*model.Model, *fakeClock) {
	tracks := make([]*types.Track, 0, len(paths))
	for _, p := range paths {
		tracks = append(tracks, &types.Track{Path: p})
	}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := model.NewModel(tracks, nil, nil, clock, config.DefaultConfig())
	m.TermWidth = 80
	m.TermHeight = 24
	return m, clock
}

func TestProject(t *testing.T) {
	t.Run("playing state projects the track fields", func(t *testing.T) {
		m, _ := newTestModel("music/one.mp3", "music/two.flac")
		m.Tracks[0].Title = "One"
		m.Tracks[0].Artist = "Somebody"
		m.Tracks[0].NewBPM = 120.5
		m.Tracks[0].Existing = 118
		m.Tracks[0].Duration = 2 * time.Minute

		snap := Project(m)

		assert.Equal(t, ModePlaying, snap.Mode)
		assert.Equal(t, "One", snap.Title)
		assert.Equal(t, "Somebody", snap.Artist)
		assert.Equal(t, 0, snap.Index)
		assert.Equal(t, 2, snap.Count)
		assert.Equal(t, 120.5, snap.Current)
		assert.Equal(t, 118.0, snap.Existing)
	})

	t.Run("manual entry carries the live buffer", func(t *testing.T) {
		m, _ := newTestModel("a.mp3")
		m.BeginManualEntry()
		mode := m.Mode.(model.ModeManualEntry)
		mode.Input.SetValue("128")
		m.Mode = mode

		snap := Project(m)

		assert.Equal(t, ModeManual, snap.Mode)
		assert.Equal(t, "128", snap.Buffer)
		assert.NotEmpty(t, snap.Prompt)
	})

	t.Run("confirmation carries the pending value", func(t *testing.T) {
		m, _ := newTestModel("music/one.mp3")
		m.CurrentTrack().NewBPM = 128
		m.BeginConfirmWrite()

		snap := Project(m)

		assert.Equal(t, ModeConfirming, snap.Mode)
		assert.Equal(t, 128.0, snap.Pending)
		assert.Contains(t, snap.Prompt, "128")
		assert.Contains(t, snap.Prompt, "one.mp3", "The prompt should name the file, not the whole path")
	})

	t.Run("projecting twice changes nothing", func(t *testing.T) {
		m, _ := newTestModel("a.mp3")
		m.CurrentTrack().NewBPM = 99.9

		first := Project(m)
		second := Project(m)

		assert.Equal(t, first, second, "Projection must be a pure read")
	})
}

func TestFormatBPM(t *testing.T) {
	t.Run("whole numbers drop the decimal", func(t *testing.T) {
		assert.Equal(t, "128", FormatBPM(128.0))
	})

	t.Run("estimates keep one digit", func(t *testing.T) {
		assert.Equal(t, "127.5", FormatBPM(127.53))
		assert.Equal(t, "120.0", FormatBPM(120.04))
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", formatDuration(0))
	assert.Equal(t, "2:05", formatDuration(125*time.Second))
	assert.Equal(t, "1:00", formatDuration(59600*time.Millisecond), "Durations round to the nearest second")
}

func TestRender(t *testing.T) {
	t.Run("the frame shows the essentials", func(t *testing.T) {
		m, _ := newTestModel("music/one.mp3", "music/two.flac", "music/three.mp3")
		m.Tracks[0].Title = "Opening Song"
		m.Tracks[0].NewBPM = 120.5

		frame := Render(m)

		assert.Contains(t, frame, "crabtap")
		assert.Contains(t, frame, "track 1/3")
		assert.Contains(t, frame, "Opening Song")
		assert.Contains(t, frame, "120.5")
		assert.Contains(t, frame, "▶", "The selection arrow should mark the current track")
		assert.Contains(t, frame, "space: tap")
	})

	t.Run("errors take over the status line", func(t *testing.T) {
		m, _ := newTestModel("a.mp3")
		m.StatusMsg = "all good"
		m.ErrMsg = "cannot play b.mp3"

		frame := Render(m)

		assert.Contains(t, frame, "cannot play b.mp3")
		assert.NotContains(t, frame, "all good", "Errors outrank status messages")
	})

	t.Run("the confirmation prompt is drawn", func(t *testing.T) {
		m, _ := newTestModel("music/one.mp3")
		m.CurrentTrack().NewBPM = 128
		m.BeginConfirmWrite()

		frame := Render(m)

		assert.Contains(t, frame, "write 128 to one.mp3?")
		assert.Contains(t, frame, "y/n")
	})

	t.Run("the manual prompt shows the buffer", func(t *testing.T) {
		m, _ := newTestModel("a.mp3")
		m.BeginManualEntry()
		mode := m.Mode.(model.ModeManualEntry)
		mode.Input.SetValue("99")
		m.Mode = mode

		frame := Render(m)

		assert.Contains(t, frame, "new bpm:")
		assert.Contains(t, frame, "99")
	})

	t.Run("the list window follows the selection", func(t *testing.T) {
		paths := make([]string, 20)
		for i := range paths {
			paths[i] = "track.mp3"
		}
		m, _ := newTestModel(paths...)
		m.Selected = 15

		offset := trackScrollOffset(m, m.Config.UI.TrackListLen)

		assert.Greater(t, offset, 0, "A late selection should scroll the window")
		assert.LessOrEqual(t, offset, m.Selected, "The selection must stay visible")
		assert.LessOrEqual(t, offset, len(m.Tracks)-m.Config.UI.TrackListLen)
	})
}

func TestTapIndicator(t *testing.T) {
	t.Run("no taps means no indicator", func(t *testing.T) {
		m, _ := newTestModel("a.mp3")
		assert.Empty(t, tapIndicator(m))
	})

	t.Run("a fresh tap lights the dot", func(t *testing.T) {
		m, clock := newTestModel("a.mp3")
		m.LastTapAt = clock.now

		assert.Contains(t, tapIndicator(m), "●")
	})

	t.Run("the dot goes hollow after the flash window", func(t *testing.T) {
		m, clock := newTestModel("a.mp3")
		m.LastTapAt = clock.now
		clock.now = clock.now.Add(time.Duration(m.Config.UI.FlashMS+50) * time.Millisecond)

		assert.Contains(t, tapIndicator(m), "○")
	})
}

func TestFlashColor(t *testing.T) {
	t.Run("the fade ends at the resting shade", func(t *testing.T) {
		assert.Equal(t, "#444444", flashColor(1))
		assert.Equal(t, "#444444", flashColor(2), "Overshoot clamps to the end of the fade")
	})

	t.Run("the fade starts at the accent", func(t *testing.T) {
		assert.Equal(t, flashAccentHex(), flashColor(0))
	})
}
