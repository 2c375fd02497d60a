package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"

	"github.com/Houndie/crabtap/internal/tags"
	"github.com/Houndie/crabtap/internal/types"
)

// ErrAllTagged reports that filtering removed every candidate because
// each one already carries a BPM tag. Callers treat this as a clean
// no-op rather than a failure.
var ErrAllTagged = errors.New("every track already has a bpm tag")

// LoadTracks builds the session track list from the given paths. Paths
// that are not readable MP3 or FLAC files are logged and skipped. When
// filterExisting is set, tracks that already carry a BPM tag are dropped;
// ErrAllTagged is returned if that leaves nothing to do.
func LoadTracks(paths []string, filterExisting bool) ([]*types.Track, error) {
	tracks := make([]*types.Track, 0, len(paths))
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".mp3" && ext != ".flac" {
			logrus.WithField("path", path).Warn("skipping unsupported file type")
			continue
		}
		if _, err := os.Stat(path); err != nil {
			logrus.WithField("path", path).WithError(err).Warn("skipping unreadable file")
			continue
		}

		track := &types.Track{Path: path}
		if bpm, err := tags.ReadBPM(path); err != nil {
			logrus.WithField("path", path).WithError(err).Warn("could not read existing bpm tag")
		} else {
			track.Existing = bpm
		}
		describe(track)
		tracks = append(tracks, track)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("no usable tracks among %d input files", len(paths))
	}

	if filterExisting {
		kept := tracks[:0]
		for _, t := range tracks {
			if t.HasExisting() {
				logrus.WithFields(logrus.Fields{
					"path": t.Path,
					"bpm":  t.Existing,
				}).Info("skipping already tagged track")
				continue
			}
			kept = append(kept, t)
		}
		tracks = kept
		if len(tracks) == 0 {
			return nil, ErrAllTagged
		}
	}

	return tracks, nil
}

// describe fills the display fields. Failures degrade to a path-derived
// name and are never fatal.
func describe(t *types.Track) {
	f, err := os.Open(t.Path)
	if err == nil {
		m, err := tag.ReadFrom(f)
		if err != nil {
			logrus.WithField("path", t.Path).WithError(err).Debug("no display metadata")
		} else {
			t.Title = m.Title()
			t.Artist = m.Artist()
		}
		f.Close()
	}

	dur, err := TrackDuration(t.Path)
	if err != nil {
		logrus.WithField("path", t.Path).WithError(err).Debug("could not determine duration")
		return
	}
	t.Duration = dur
}

// TrackDuration reports the playing time of an MP3 or FLAC file.
func TrackDuration(path string) (time.Duration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return durationMP3(path)
	case ".flac":
		return durationFLAC(path)
	default:
		return 0, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func durationMP3(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if !errors.Is(err, io.EOF) && frames == 0 {
				return 0, fmt.Errorf("no decodable mp3 frames: %w", err)
			}
			// Use what decoded cleanly before the end or the bad frame.
			break
		}
		total += fr.Duration()
		frames++
	}
	if frames == 0 {
		return 0, errors.New("no mp3 frames in file")
	}
	return total, nil
}

func durationFLAC(path string) (time.Duration, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	info := stream.Info
	if info.NSamples == 0 || info.SampleRate == 0 {
		return 0, fmt.Errorf("flac stream missing sample info")
	}
	secs := float64(info.NSamples) / float64(info.SampleRate)
	return time.Duration(secs * float64(time.Second)), nil
}
