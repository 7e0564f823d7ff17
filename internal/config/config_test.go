package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 300, cfg.Render.DPI)
	assert.Equal(t, 95, cfg.Render.JPEGQuality)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "runs", cfg.Dirs.State)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"csv format", func(c *Config) { c.Output.Format = "csv" }, true},
		{"empty log level", func(c *Config) { c.LogLevel = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"zero dpi", func(c *Config) { c.Render.DPI = 0 }, false},
		{"negative dpi", func(c *Config) { c.Render.DPI = -72 }, false},
		{"quality too high", func(c *Config) { c.Render.JPEGQuality = 101 }, false},
		{"quality zero", func(c *Config) { c.Render.JPEGQuality = 0 }, false},
		{"zero ocr workers", func(c *Config) { c.Workers.OCR = 0 }, false},
		{"zero crop workers", func(c *Config) { c.Workers.Crop = 0 }, false},
		{"zero pdf workers", func(c *Config) { c.Workers.PDF = 0 }, false},
		{"bad format", func(c *Config) { c.Output.Format = "parquet" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
