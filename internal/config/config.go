package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	UI       UIConfig       `toml:"ui"`
	MIDI     MIDIConfig     `toml:"midi"`
}

// PlaybackConfig contains audio output configuration
type PlaybackConfig struct {
	SampleRate int `toml:"sample_rate"`
	BufferMS   int `toml:"buffer_ms"`
}

// UIConfig contains display configuration
type UIConfig struct {
	VimKeys      bool `toml:"vim_keys"`
	FlashMS      int  `toml:"flash_ms"`
	TrackListLen int  `toml:"track_list_len"`
}

// MIDIConfig contains MIDI tap input configuration
type MIDIConfig struct {
	Enabled bool   `toml:"enabled"`
	Device  string `toml:"device"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			SampleRate: 44100,
			BufferMS:   100,
		},
		UI: UIConfig{
			VimKeys:      false,
			FlashMS:      250,
			TrackListLen: 8,
		},
		MIDI: MIDIConfig{
			Enabled: false,
			Device:  "",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "crabtap.toml"
	}
	return filepath.Join(home, ".config", "crabtap", "config.toml")
}

// LoadConfig loads configuration from a TOML file. On the first run the
// file does not exist yet; it is created with the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# crabtap configuration

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Playback.SampleRate < 8000 {
		return fmt.Errorf("playback sample rate must be at least 8000")
	}
	if c.Playback.BufferMS < 1 {
		return fmt.Errorf("playback buffer must be at least 1 ms")
	}
	if c.UI.FlashMS < 0 {
		return fmt.Errorf("ui flash duration cannot be negative")
	}
	if c.UI.TrackListLen < 1 {
		return fmt.Errorf("ui track list length must be at least 1")
	}
	return nil
}
