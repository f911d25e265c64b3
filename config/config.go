// Package config holds the settings shared by spanlens' commands.
//
// Settings are resolved from defaults, then an optional .env file, then SPANLENS_* environment variables, and
// finally command line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/spantree"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	ConstantEnvFile = ".env"
	ConstantPrefix  = "SPANLENS_"

	DefaultLogLevel = "info"
	DefaultLogFile  = ""
	DefaultTheme    = "light"
	DefaultSort     = "call order"

	// DefaultMinZoomWidth is the narrowest config view of a span tree, in milliseconds.
	DefaultMinZoomWidth = 0.001
	// DefaultBarHeight is the height of one flamegraph row, in logical pixels.
	DefaultBarHeight = 20
	// DefaultFrameInterval is how often the TUI flushes requested frames. 60 Hz.
	DefaultFrameInterval     = time.Second / 60
	DefaultAnimationDuration = 300 * time.Millisecond
	DefaultGapThreshold      = spantree.DefaultGapThreshold
)

type Config struct {
	LogLevel string
	// LogFile receives logs. Empty means standard error, except in the TUI, which discards them.
	LogFile           string
	Theme             string
	Sort              string
	MinZoomWidth      float64
	BarHeight         float64
	FrameInterval     time.Duration
	AnimationDuration time.Duration
	GapThreshold      time.Duration
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		LogFile:           DefaultLogFile,
		Theme:             DefaultTheme,
		Sort:              DefaultSort,
		MinZoomWidth:      DefaultMinZoomWidth,
		BarHeight:         DefaultBarHeight,
		FrameInterval:     DefaultFrameInterval,
		AnimationDuration: DefaultAnimationDuration,
		GapThreshold:      DefaultGapThreshold,
	}
}

// Load resolves the configuration from filename, which may be missing, and the environment. Values in the
// environment take precedence. An empty filename means ConstantEnvFile.
func Load(filename string) (*Config, error) {
	if filename == "" {
		filename = ConstantEnvFile
	}
	file, err := godotenv.Read(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("couldn't read %s: %w", filename, err)
		}
		file = map[string]string{}
	}
	lookup := func(key string) (string, bool) {
		key = ConstantPrefix + key
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	d := Default()
	c := &Config{
		LogLevel: getString(lookup, "LOG_LEVEL", d.LogLevel),
		LogFile:  getString(lookup, "LOG_FILE", d.LogFile),
		Theme:    getString(lookup, "THEME", d.Theme),
		Sort:     getString(lookup, "SORT", d.Sort),
	}
	if c.MinZoomWidth, err = getFloat(lookup, "MIN_ZOOM_WIDTH", d.MinZoomWidth); err != nil {
		return nil, err
	}
	if c.BarHeight, err = getFloat(lookup, "BAR_HEIGHT", d.BarHeight); err != nil {
		return nil, err
	}
	if c.FrameInterval, err = getDuration(lookup, "FRAME_INTERVAL", d.FrameInterval); err != nil {
		return nil, err
	}
	if c.AnimationDuration, err = getDuration(lookup, "ANIMATION_DURATION", d.AnimationDuration); err != nil {
		return nil, err
	}
	if c.GapThreshold, err = getDuration(lookup, "GAP_THRESHOLD", d.GapThreshold); err != nil {
		return nil, err
	}
	return c, nil
}

// RegisterFlags adds a flag for every setting to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this file")
	fs.StringVar(&c.Theme, "theme", c.Theme, "color theme (light, dark)")
	fs.StringVar(&c.Sort, "sort", c.Sort, "sibling order of aggregated flamegraphs (call order, alphabetical, left heavy)")
	fs.Float64Var(&c.MinZoomWidth, "min-zoom-width", c.MinZoomWidth, "narrowest span tree view, in milliseconds")
	fs.Float64Var(&c.BarHeight, "bar-height", c.BarHeight, "flamegraph row height, in pixels")
	fs.DurationVar(&c.FrameInterval, "frame-interval", c.FrameInterval, "minimum time between two frames")
	fs.DurationVar(&c.AnimationDuration, "animation-duration", c.AnimationDuration, "duration of zoom animations")
	fs.DurationVar(&c.GapThreshold, "gap-threshold", c.GapThreshold, "smallest gap reported as missing instrumentation, 0 to disable")
}

func (c *Config) Validate() error {
	if _, err := color.ThemeByName(c.Theme); err != nil {
		return err
	}
	if _, err := flamegraph.ParseSort(c.Sort); err != nil {
		return err
	}
	if !(c.MinZoomWidth > 0) {
		return fmt.Errorf("minimum zoom width must be positive, got %v", c.MinZoomWidth)
	}
	if !(c.BarHeight >= 1) {
		return fmt.Errorf("bar height must be at least 1, got %v", c.BarHeight)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %s", c.FrameInterval)
	}
	if c.AnimationDuration < 0 {
		return fmt.Errorf("animation duration must not be negative, got %s", c.AnimationDuration)
	}
	if c.GapThreshold < 0 {
		return fmt.Errorf("gap threshold must not be negative, got %s", c.GapThreshold)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func getString(lookup lookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

func getFloat(lookup lookupFunc, key string, fallback float64) (float64, error) {
	v, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", ConstantPrefix, key, err)
	}
	return f, nil
}

func getDuration(lookup lookupFunc, key string, fallback time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", ConstantPrefix, key, err)
	}
	return d, nil
}
