package tags

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis/v2"
	flac "github.com/go-flac/go-flac/v2"
	"github.com/sirupsen/logrus"

	"github.com/Houndie/crabtap/internal/types"
)

// WriteError reports a failed tag write. The target file and the
// in-memory session state are left exactly as they were; no retries
// are attempted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing bpm tag to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer persists BPM values into audio file tags.
type Writer struct {
	Mode      types.WriteMode
	OutputDir string
}

func NewWriter(mode types.WriteMode, outputDir string) *Writer {
	return &Writer{Mode: mode, OutputDir: outputDir}
}

// WriteBPM stores bpm in the tag of the file at path, or of a copy placed
// in OutputDir when the writer is in directory mode. It returns the value
// as persisted: MP3 TBPM frames hold whole numbers, so the value is
// rounded; FLAC keeps full precision.
func (w *Writer) WriteBPM(path string, bpm float64) (float64, error) {
	dest := path
	if w.Mode == types.WriteToDirectory {
		dest = filepath.Join(w.OutputDir, filepath.Base(path))
		if filepath.Clean(dest) != filepath.Clean(path) {
			if err := copyFile(path, dest); err != nil {
				return 0, &WriteError{Path: dest, Err: err}
			}
		}
	}

	var (
		stored float64
		err    error
	)
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".mp3":
		stored = math.Round(bpm)
		err = writeMP3BPM(dest, stored)
	case ".flac":
		stored = bpm
		err = writeFLACBPM(dest, stored)
	default:
		err = fmt.Errorf("unsupported file extension %q", filepath.Ext(dest))
	}
	if err != nil {
		return 0, &WriteError{Path: dest, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"path": dest,
		"bpm":  stored,
	}).Info("wrote bpm tag")
	return stored, nil
}

func writeMP3BPM(path string, bpm float64) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.AddTextFrame(tag.CommonID("BPM"), id3v2.EncodingUTF8, strconv.Itoa(int(bpm)))
	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving id3 tag: %w", err)
	}
	return nil
}

func writeFLACBPM(path string, bpm float64) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing flac container: %w", err)
	}

	cmt, idx, err := vorbisComment(f)
	if err != nil {
		return err
	}
	if cmt == nil {
		cmt = flacvorbis.New()
	}

	// Previous BPM entries are replaced, not accumulated.
	kept := cmt.Comments[:0]
	for _, c := range cmt.Comments {
		if !strings.HasPrefix(strings.ToUpper(c), "BPM=") {
			kept = append(kept, c)
		}
	}
	cmt.Comments = kept
	if err := cmt.Add("BPM", strconv.FormatFloat(bpm, 'f', -1, 64)); err != nil {
		return fmt.Errorf("adding bpm comment: %w", err)
	}

	block := cmt.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("saving flac container: %w", err)
	}
	return nil
}

// vorbisComment finds the comment block in a parsed FLAC file. A file
// without one returns nil and index -1 with no error.
func vorbisComment(f *flac.File) (*flacvorbis.MetaDataBlockVorbisComment, int, error) {
	for i, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, -1, fmt.Errorf("parsing vorbis comment: %w", err)
		}
		return cmt, i, nil
	}
	return nil, -1, nil
}

// ReadBPM returns the BPM tag of the file at path, 0 when the tag is
// absent or not numeric.
func ReadBPM(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return readMP3BPM(path)
	case ".flac":
		return readFLACBPM(path)
	default:
		return 0, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func readMP3BPM(path string) (float64, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return 0, fmt.Errorf("opening id3 tag: %w", err)
	}
	defer tag.Close()

	text := strings.TrimSpace(tag.GetTextFrame(tag.CommonID("BPM")).Text)
	if text == "" {
		return 0, nil
	}
	bpm, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, nil
	}
	return bpm, nil
}

func readFLACBPM(path string) (float64, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("parsing flac container: %w", err)
	}

	cmt, _, err := vorbisComment(f)
	if err != nil || cmt == nil {
		return 0, err
	}
	vals, err := cmt.Get("BPM")
	if err != nil {
		return 0, fmt.Errorf("reading bpm comment: %w", err)
	}
	if len(vals) == 0 {
		return 0, nil
	}
	bpm, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		return 0, nil
	}
	return bpm, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
