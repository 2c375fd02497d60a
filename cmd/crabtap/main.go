package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Houndie/crabtap/internal/config"
	"github.com/Houndie/crabtap/internal/input"
	"github.com/Houndie/crabtap/internal/metadata"
	"github.com/Houndie/crabtap/internal/midiconnector"
	"github.com/Houndie/crabtap/internal/model"
	"github.com/Houndie/crabtap/internal/playback"
	"github.com/Houndie/crabtap/internal/tags"
	"github.com/Houndie/crabtap/internal/types"
	"github.com/Houndie/crabtap/internal/views"
)

var (
	Version = "dev"

	// Command-line configuration
	flags struct {
		outputDir      string
		inplace        bool
		filterExisting bool
		configPath     string
		log            string
		vim            bool
		midi           bool
	}
)

var rootCmd = &cobra.Command{
	Use:   "crabtap [files...]",
	Short: "Tag audio files with a tempo by tapping along",
	Long: `crabtap loop-plays each track while you tap a key in time with the
music. The tempo is estimated from your most recent taps and written into
the file's metadata once you confirm it.

Features:
• Tap on the keyboard or a MIDI pad
• Estimates from a sliding window of taps, so drift fades out
• Writes TBPM frames to MP3 and BPM comments to FLAC
• Tags in place or into copies in a separate directory`,
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	Run:     runCrabtap,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.outputDir, "output-directory", "o", "",
		"Write tagged copies into this directory, leaving sources untouched")
	rootCmd.PersistentFlags().BoolVarP(&flags.inplace, "inplace", "i", false,
		"Write tags into the source files directly")
	rootCmd.PersistentFlags().BoolVarP(&flags.filterExisting, "filter-existing", "f", false,
		"Skip input files that already carry a BPM tag")
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath(),
		"Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&flags.log, "log", "l", "",
		"Write debug logs to specified file (empty disables)")
	rootCmd.PersistentFlags().BoolVar(&flags.vim, "vim", false,
		"Enable vim-style track navigation (h/l)")
	rootCmd.PersistentFlags().BoolVarP(&flags.midi, "midi", "m", false,
		"Tap along on a MIDI device as well as the keyboard")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	logrus.WithError(err).Error(msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(1)
}

func runCrabtap(cmd *cobra.Command, args []string) {
	// Set up debug logging early
	if flags.log != "" {
		f, err := os.OpenFile(flags.log, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logrus.SetOutput(f)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		// The terminal belongs to the UI; without a log file, say nothing.
		logrus.SetOutput(io.Discard)
	}
	sessionLog := logrus.WithField("session", uuid.NewString())
	sessionLog.WithField("version", Version).Info("starting")

	if len(args) == 0 {
		fatal("no input files given", nil)
	}
	if flags.inplace == (flags.outputDir != "") {
		fatal("exactly one of --inplace or --output-directory is required", nil)
	}

	writeMode := types.WriteInPlace
	if flags.outputDir != "" {
		writeMode = types.WriteToDirectory
		if err := os.MkdirAll(flags.outputDir, 0755); err != nil {
			fatal("cannot create output directory", err)
		}
	}

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		fatal("cannot load configuration", err)
	}
	if flags.vim {
		cfg.UI.VimKeys = true
	}
	if flags.midi {
		cfg.MIDI.Enabled = true
	}

	tracks, err := metadata.LoadTracks(args, flags.filterExisting)
	if errors.Is(err, metadata.ErrAllTagged) {
		fmt.Println("every input file already has a BPM tag, nothing to do")
		return
	}
	if err != nil {
		fatal("cannot load tracks", err)
	}
	sessionLog.WithField("tracks", len(tracks)).Info("tracks loaded")

	engine, err := playback.NewEngine(cfg.Playback.SampleRate, cfg.Playback.BufferMS)
	if err != nil {
		fatal("cannot open audio output", err)
	}

	// Set up cleanup on exit
	setupCleanupOnExit(engine)

	writer := tags.NewWriter(writeMode, flags.outputDir)
	m := model.NewModel(tracks, engine, writer, model.SystemClock{}, cfg)

	// Bind the first playable track before drawing anything; a session
	// with nothing playable is a startup failure, not a UI state.
	m.SelectTrack(0)
	if !engine.IsLoaded(m.CurrentTrack().Path) {
		engine.Stop()
		fatal("none of the input files could be played", nil)
	}

	tm := &tapModel{
		model: m,
		keys:  input.DefaultKeyMap(cfg.UI.VimKeys),
	}
	p := tea.NewProgram(tm, tea.WithAltScreen())

	if cfg.MIDI.Enabled {
		for _, device := range midiconnector.Devices() {
			sessionLog.WithField("device", device).Info("MIDI device found")
		}
		stop, err := midiconnector.Listen(cfg.MIDI.Device, func() {
			p.Send(midiTapMsg{})
		})
		if err != nil {
			sessionLog.WithError(err).Warn("MIDI tap input unavailable")
		} else {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		engine.Stop()
		fatal("terminal UI failed", err)
	}

	// Quit is idempotent; this covers exits that bypassed the quit keys.
	m.Quit()
}

// tapModel wraps the session model and implements the tea.Model interface
type tapModel struct {
	model *model.Model
	keys  input.KeyMap
}

// uiTickMsg fires at a steady UI rate (30fps) to refresh the tap flash
// and redraw without advancing any session state.
type uiTickMsg struct{}

// midiTapMsg is posted by the MIDI listener goroutine; the tap is applied
// on the update loop so the session is never touched concurrently.
type midiTapMsg struct{}

// tickUI schedules the next uiTickMsg at the requested fps.
func tickUI(fps int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return uiTickMsg{}
	})
}

func (tm *tapModel) Init() tea.Cmd {
	return tickUI(30)
}

func (tm *tapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		tm.model.TermWidth = msg.Width
		tm.model.TermHeight = msg.Height
		return tm, nil

	case uiTickMsg:
		// Redraw only; reschedule the next UI tick.
		return tm, tickUI(30)

	case midiTapMsg:
		tm.model.ApplyTap(tm.model.Clock.Now())
		return tm, nil

	case tea.KeyMsg:
		return tm, input.HandleKeyInput(tm.model, tm.keys, msg)
	}

	return tm, nil
}

func (tm tapModel) View() string {
	return views.Render(tm.model)
}

func setupCleanupOnExit(engine *playback.Engine) {
	// Handle cleanup on various exit signals
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-c
		engine.Stop()
		os.Exit(0)
	}()
}
