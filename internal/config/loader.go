package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "votershield"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "VOTERSHIELD"
)

// Loader handles loading configuration from files, environment variables,
// and bound command-line flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader backed by the global viper
// instance so flag bindings made by the CLI layer are visible.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Load loads configuration from the default search paths, environment
// variables, and defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "votershield"))
	}
	l.v.AddConfigPath("/etc/votershield")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	def := Default()

	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)

	l.v.SetDefault("dirs.pdf", def.Dirs.PDF)
	l.v.SetDefault("dirs.jpg", def.Dirs.JPG)
	l.v.SetDefault("dirs.crops", def.Dirs.Crops)
	l.v.SetDefault("dirs.ocr", def.Dirs.OCR)
	l.v.SetDefault("dirs.csv", def.Dirs.CSV)
	l.v.SetDefault("dirs.state", def.Dirs.State)
	l.v.SetDefault("dirs.fixtures", def.Dirs.Fixtures)

	l.v.SetDefault("render.dpi", def.Render.DPI)
	l.v.SetDefault("render.jpeg_quality", def.Render.JPEGQuality)

	l.v.SetDefault("workers.pdf", def.Workers.PDF)
	l.v.SetDefault("workers.crop", def.Workers.Crop)
	l.v.SetDefault("workers.ocr", def.Workers.OCR)

	l.v.SetDefault("ocr.tessdata_dir", def.OCR.TessdataDir)

	l.v.SetDefault("output.format", def.Output.Format)
	l.v.SetDefault("output.no_combined", def.Output.NoCombined)

	l.v.SetDefault("store.input_uris", def.Store.InputURIs)
	l.v.SetDefault("store.output_uri", def.Store.OutputURI)
}
