package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spanlens.env")
	env := "SPANLENS_THEME=dark\nSPANLENS_BAR_HEIGHT=24\nSPANLENS_LOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(path, []byte(env), 0o644))
	t.Setenv("SPANLENS_LOG_LEVEL", "warn")
	t.Setenv("SPANLENS_GAP_THRESHOLD", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, float64(24), cfg.BarHeight)
	assert.Equal(t, "warn", cfg.LogLevel, "the environment overrides the file")
	assert.Equal(t, 250*time.Millisecond, cfg.GapThreshold)
	assert.Equal(t, DefaultFrameInterval, cfg.FrameInterval)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("SPANLENS_FRAME_INTERVAL", "often")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "SPANLENS_FRAME_INTERVAL")
}

func TestRegisterFlags(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--theme=dark", "--gap-threshold=0", "--sort", "left heavy"}))
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, time.Duration(0), cfg.GapThreshold)
	assert.Equal(t, "left heavy", cfg.Sort)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown theme", func(c *Config) { c.Theme = "solarized" }, "unknown theme"},
		{"unknown sort", func(c *Config) { c.Sort = "random" }, "unknown sort"},
		{"zero zoom width", func(c *Config) { c.MinZoomWidth = 0 }, "zoom width"},
		{"small bars", func(c *Config) { c.BarHeight = 0.5 }, "bar height"},
		{"zero frame interval", func(c *Config) { c.FrameInterval = 0 }, "frame interval"},
		{"negative animation", func(c *Config) { c.AnimationDuration = -time.Second }, "animation duration"},
		{"negative gap", func(c *Config) { c.GapThreshold = -1 }, "gap threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
