// Package config defines the typed configuration for the votershield
// pipeline and its viper-based loader. Every recognized option is an
// explicit struct field; there are no string-keyed option bags.
package config

import (
	"fmt"
)

// Config represents the complete configuration for the votershield pipeline.
// It supports loading from configuration files, environment variables, and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Directory layout
	Dirs DirConfig `mapstructure:"dirs" yaml:"dirs" json:"dirs"`

	// Rendering settings
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Worker pool sizes
	Workers WorkerConfig `mapstructure:"workers" yaml:"workers" json:"workers"`

	// OCR engine settings
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// Output settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Object store endpoints
	Store StoreConfig `mapstructure:"store" yaml:"store" json:"store"`
}

// DirConfig holds the on-disk layout of the pipeline.
type DirConfig struct {
	PDF      string `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	JPG      string `mapstructure:"jpg" yaml:"jpg" json:"jpg"`
	Crops    string `mapstructure:"crops" yaml:"crops" json:"crops"`
	OCR      string `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	CSV      string `mapstructure:"csv" yaml:"csv" json:"csv"`
	State    string `mapstructure:"state" yaml:"state" json:"state"`
	Fixtures string `mapstructure:"fixtures" yaml:"fixtures" json:"fixtures"`
}

// RenderConfig contains PDF rasterization settings.
type RenderConfig struct {
	DPI         int `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	JPEGQuality int `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// WorkerConfig contains the bounded pool sizes. Documents are processed
// sequentially; PDF is reserved for future document-level parallelism.
type WorkerConfig struct {
	PDF  int `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Crop int `mapstructure:"crop" yaml:"crop" json:"crop"`
	OCR  int `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
}

// OCRConfig contains Tesseract engine settings. TessdataDir is threaded
// through the run explicitly instead of mutating process globals.
type OCRConfig struct {
	TessdataDir string `mapstructure:"tessdata_dir" yaml:"tessdata_dir" json:"tessdata_dir"`
}

// OutputConfig contains per-PDF and combined output settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	NoCombined bool   `mapstructure:"no_combined" yaml:"no_combined" json:"no_combined"`
}

// StoreConfig contains the object-store input and output locations.
type StoreConfig struct {
	InputURIs []string `mapstructure:"input_uris" yaml:"input_uris" json:"input_uris"`
	OutputURI string   `mapstructure:"output_uri" yaml:"output_uri" json:"output_uri"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Dirs: DirConfig{
			PDF:      "pdf",
			JPG:      "jpg",
			Crops:    "crops",
			OCR:      "ocr",
			CSV:      "csv",
			State:    "runs",
			Fixtures: "testdata/fixtures",
		},
		Render: RenderConfig{
			DPI:         300,
			JPEGQuality: 95,
		},
		Workers: WorkerConfig{
			PDF:  1,
			Crop: 4,
			OCR:  2,
		},
		Output: OutputConfig{
			Format: "xlsx",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.Render.DPI)
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in 1..100, got %d", c.Render.JPEGQuality)
	}
	if c.Workers.Crop < 1 {
		return fmt.Errorf("crop workers must be at least 1, got %d", c.Workers.Crop)
	}
	if c.Workers.OCR < 1 {
		return fmt.Errorf("ocr workers must be at least 1, got %d", c.Workers.OCR)
	}
	if c.Workers.PDF < 1 {
		return fmt.Errorf("pdf workers must be at least 1, got %d", c.Workers.PDF)
	}
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("output format must be csv or xlsx, got %q", c.Output.Format)
	}
	return nil
}
