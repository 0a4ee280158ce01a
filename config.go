package stagehand

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level game configuration, usually read from a TOML file.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Timing  TimingConfig  `toml:"timing"`
	Audio   AudioConfig   `toml:"audio"`
	Logging LoggingConfig `toml:"logging"`
	// Debug enables tree sanity checks.
	Debug bool `toml:"debug"`
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string `toml:"screenshot_dir"`
	// Assets is the root directory assets are loaded from.
	Assets string `toml:"assets"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// ResolutionWidth and ResolutionHeight set the logical screen size.
	// Zero means the window size.
	ResolutionWidth  int  `toml:"resolution_width"`
	ResolutionHeight int  `toml:"resolution_height"`
	Resizable        bool `toml:"resizable"`
	Fullscreen       bool `toml:"fullscreen"`
	Vsync            bool `toml:"vsync"`
	// Background is the clear color as 0xRRGGBB.
	Background uint32 `toml:"background"`
}

type TimingConfig struct {
	FPS int `toml:"fps"` // draw frames per second
	LPS int `toml:"lps"` // logic ticks per second
}

type AudioConfig struct {
	// SampleRate enables sound assets when non-zero.
	SampleRate int `toml:"sample_rate"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "stagehand",
			Width:  640,
			Height: 480,
			Vsync:  true,
		},
		Timing: TimingConfig{
			FPS: defaultFPS,
			LPS: defaultFPS,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		ScreenshotDir: "screenshots",
		Assets:        ".",
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("stagehand: read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("stagehand: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML data over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration values the engine cannot start with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.ResolutionWidth < 0 || c.Window.ResolutionHeight < 0 {
		return fmt.Errorf("resolution %dx%d must not be negative", c.Window.ResolutionWidth, c.Window.ResolutionHeight)
	}
	if c.Timing.FPS <= 0 || c.Timing.LPS <= 0 {
		return fmt.Errorf("fps %d and lps %d must be positive", c.Timing.FPS, c.Timing.LPS)
	}
	return nil
}

// Resolution returns the logical screen size.
func (c *Config) Resolution() (int, int) {
	w, h := c.Window.ResolutionWidth, c.Window.ResolutionHeight
	if w == 0 {
		w = c.Window.Width
	}
	if h == 0 {
		h = c.Window.Height
	}
	return w, h
}

// BackgroundColor returns Window.Background as an opaque Color.
func (c *Config) BackgroundColor() Color {
	bg := c.Window.Background
	return ColorFromRGBA(uint8(bg>>16), uint8(bg>>8), uint8(bg), 255)
}
