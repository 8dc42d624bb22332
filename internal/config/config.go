// Package config loads eml-vectorizer settings from defaults, an optional
// YAML file and EMLVEC_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felo/eml-vectorizer/internal/vectorizer"
	"github.com/felo/eml-vectorizer/internal/words"
)

// Config holds application configuration
type Config struct {
	// Server settings
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Database settings
	DBPath string `yaml:"db_path"`

	// Corpus and model settings
	CorpusPath     string `yaml:"corpus_path"`
	ModelPath      string `yaml:"model_path"`
	VocabularySize int    `yaml:"vocabulary_size"`
	Workers        int    `yaml:"workers"`

	LogLevel string `yaml:"log_level"`

	Normalizer NormalizerConfig `yaml:"normalizer"`
}

// NormalizerConfig holds the text normalization toggles
type NormalizerConfig struct {
	StripHeaders     bool   `yaml:"strip_headers"`
	Lowercase        bool   `yaml:"lowercase"`
	StripPunctuation bool   `yaml:"strip_punctuation"`
	ReplaceURLs      bool   `yaml:"replace_urls"`
	ReplaceNumbers   bool   `yaml:"replace_numbers"`
	Stem             bool   `yaml:"stem"`
	StemLanguage     string `yaml:"stem_language"`
}

// Default returns default configuration
func Default() *Config {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Use ~/.eml-vectorizer for data directory
	dataDir := filepath.Join(homeDir, ".eml-vectorizer")

	opts := words.DefaultOptions()
	return &Config{
		Host:           "localhost",
		Port:           "8080",
		DBPath:         filepath.Join(dataDir, "vectorizer.db"),
		CorpusPath:     "./corpus",
		VocabularySize: vectorizer.DefaultVocabularySize,
		Workers:        runtime.NumCPU() * 2,
		LogLevel:       "info",
		Normalizer: NormalizerConfig{
			StripHeaders:     opts.StripHeaders,
			Lowercase:        opts.Lowercase,
			StripPunctuation: opts.StripPunctuation,
			ReplaceURLs:      opts.ReplaceURLs,
			ReplaceNumbers:   opts.ReplaceNumbers,
			Stem:             opts.Stem,
			StemLanguage:     "english",
		},
	}
}

// Load returns the defaults overridden by environment variables. A .env
// file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file over the defaults, then
// overrides with environment variables. Returns an error if the file does
// not exist.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("EMLVEC_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("EMLVEC_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("EMLVEC_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("EMLVEC_CORPUS_PATH"); v != "" {
		c.CorpusPath = v
	}
	if v := os.Getenv("EMLVEC_MODEL_PATH"); v != "" {
		c.ModelPath = v
	}
	if v := os.Getenv("EMLVEC_VOCABULARY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VocabularySize = n
		}
	}
	if v := os.Getenv("EMLVEC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("EMLVEC_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.VocabularySize < 1 {
		return fmt.Errorf("vocabulary_size must be positive, got %d", c.VocabularySize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Normalizer.Stem && !words.IsSnowballLanguage(c.Normalizer.StemLanguage) {
		return fmt.Errorf("unsupported stem_language %q", c.Normalizer.StemLanguage)
	}
	return nil
}

// NormalizerOptions returns the normalization toggles
func (c *Config) NormalizerOptions() words.Options {
	return words.Options{
		StripHeaders:     c.Normalizer.StripHeaders,
		Lowercase:        c.Normalizer.Lowercase,
		StripPunctuation: c.Normalizer.StripPunctuation,
		ReplaceURLs:      c.Normalizer.ReplaceURLs,
		ReplaceNumbers:   c.Normalizer.ReplaceNumbers,
		Stem:             c.Normalizer.Stem,
	}
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
