package types

import (
	"path/filepath"
	"strings"
	"time"
)

// Track represents one audio file under consideration for tagging.
type Track struct {
	Path     string
	Title    string
	Artist   string
	Duration time.Duration

	// Existing is the BPM tag already stored in the file, 0 when absent.
	Existing float64
	// NewBPM is the value computed from taps or entered manually, 0 until set.
	NewBPM float64
	// Written is set once NewBPM has been persisted to the file.
	Written bool
}

// Name returns the track's display name: the tag title when present,
// otherwise the file basename without its extension.
func (t *Track) Name() string {
	if t.Title != "" {
		return t.Title
	}
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (t *Track) HasExisting() bool {
	return t.Existing > 0
}

func (t *Track) HasNewBPM() bool {
	return t.NewBPM > 0
}

// WriteMode selects where the tag writer puts the tagged file.
type WriteMode int

const (
	// WriteInPlace rewrites the tag inside the source file.
	WriteInPlace WriteMode = iota
	// WriteToDirectory copies the source into an output directory and tags the copy.
	WriteToDirectory
)
