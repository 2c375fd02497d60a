package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"
)

// PlaybackError reports a track the audio engine could not open or
// decode. It is never fatal to the session; callers skip the track.
type PlaybackError struct {
	Path string
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("cannot play %s: %v", e.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Engine loop-plays one track at a time through the system speaker.
type Engine struct {
	mixRate beep.SampleRate

	mu       sync.Mutex
	path     string
	streamer beep.StreamSeekCloser
}

// NewEngine initializes the speaker once at the given mix rate. Tracks
// with a different native rate are resampled on the fly.
func NewEngine(sampleRate, bufferMS int) (*Engine, error) {
	mixRate := beep.SampleRate(sampleRate)
	if err := speaker.Init(mixRate, mixRate.N(time.Duration(bufferMS)*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	return &Engine{mixRate: mixRate}, nil
}

// Select stops the current track and loop-plays the file at path from
// the start. Decode failures surface as *PlaybackError.
func (e *Engine) Select(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &PlaybackError{Path: path, Err: err}
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		err = fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return &PlaybackError{Path: path, Err: err}
	}

	loop, err := beep.Loop2(streamer)
	if err != nil {
		streamer.Close()
		return &PlaybackError{Path: path, Err: err}
	}

	e.mu.Lock()
	old := e.streamer
	e.path = path
	e.streamer = streamer
	e.mu.Unlock()

	speaker.Clear()
	if old != nil {
		old.Close()
	}

	out := loop
	if format.SampleRate != e.mixRate {
		out = beep.Resample(4, format.SampleRate, e.mixRate, loop)
	}
	speaker.Play(out)

	logrus.WithFields(logrus.Fields{
		"path":       path,
		"sampleRate": format.SampleRate,
	}).Info("playing track")
	return nil
}

// Restart seeks the current track back to the first sample without
// reloading it. The seek runs under the speaker lock so the audio
// goroutine never observes a half-applied position.
func (e *Engine) Restart() error {
	e.mu.Lock()
	streamer := e.streamer
	e.mu.Unlock()
	if streamer == nil {
		return nil
	}

	speaker.Lock()
	err := streamer.Seek(0)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seeking to start: %w", err)
	}
	return nil
}

// IsLoaded reports whether the engine is currently bound to path.
func (e *Engine) IsLoaded(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamer != nil && e.path == path
}

// Stop silences the speaker and releases the current track. Safe to
// call repeatedly and from a signal handler.
func (e *Engine) Stop() {
	e.mu.Lock()
	streamer := e.streamer
	e.streamer = nil
	e.path = ""
	e.mu.Unlock()

	speaker.Clear()
	if streamer != nil {
		streamer.Close()
	}
}
