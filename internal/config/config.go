// Package config reads the optional user configuration file (config dir/llmroof/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shayne-snap/llmroof/internal/logging"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

// Config holds defaults for command flags. Pointer fields distinguish "not set" from zero values;
// a value is applied only when the matching flag was not given on the command line.
type Config struct {
	Strict            *bool    `yaml:"strict"`
	KVBasis           string   `yaml:"kv_basis"`
	Accelerator       string   `yaml:"accelerator"`
	Quantization      string   `yaml:"quantization"`
	ContextLength     *uint32  `yaml:"context_length"`
	BatchSize         *uint32  `yaml:"batch_size"`
	PromptTokens      *uint32  `yaml:"prompt_tokens"`
	OutputTokens      *uint32  `yaml:"output_tokens"`
	PrefillEfficiency *float64 `yaml:"prefill_efficiency"`
	DecodeEfficiency  *float64 `yaml:"decode_efficiency"`
	SystemEfficiency  *float64 `yaml:"system_efficiency"`
	Approximate       *bool    `yaml:"approximate"`
	LogLevel          string   `yaml:"log_level"`
	LogFormat         string   `yaml:"log_format"`
}

// Path returns the default config file location, or "" when the config dir is unknown.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "llmroof", "config.yaml")
}

// Load reads and validates the file at path. A missing file yields a zero Config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerations and ranges so bad values fail at load time, not mid-command.
func (c Config) Validate() error {
	if c.KVBasis != "" {
		if _, err := roofline.ParseKVCacheBasis(c.KVBasis); err != nil {
			return err
		}
	}
	if c.Quantization != "" {
		if _, err := models.ParseQuantization(c.Quantization); err != nil {
			return err
		}
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.BatchSize != nil && *c.BatchSize == 0 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	for name, pct := range map[string]*float64{
		"prefill_efficiency": c.PrefillEfficiency,
		"decode_efficiency":  c.DecodeEfficiency,
		"system_efficiency":  c.SystemEfficiency,
	} {
		if pct != nil && (*pct < 1 || *pct > 200) {
			return fmt.Errorf("%s must be between 1 and 200, got %v", name, *pct)
		}
	}
	return nil
}
