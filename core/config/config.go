package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/emenda-labs/xsdiff/drivers/xsd"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "XSDIFF_"

// DefaultEnvFile is loaded when present and no other file was requested.
const DefaultEnvFile = ".env"

// Config holds the run settings shared by the CLI and the wiring layer.
type Config struct {
	Formats   []string
	Workers   int
	KeepGoing bool
	Profile   string
	LogLevel  slog.Level
	// CacheSize bounds the parsed-model cache. Zero disables it.
	CacheSize int
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Formats:   []string{"html", "csv"},
		Workers:   1,
		Profile:   "full",
		LogLevel:  slog.LevelInfo,
		CacheSize: xsd.DefaultCacheSize,
	}
}

// Load returns the defaults overlaid with the env file and then the
// XSDIFF_* environment. An empty envFile means the optional DefaultEnvFile;
// an explicitly named file must exist. Variables already set in the process
// environment win over the file.
func Load(envFile string) (Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	return FromEnv(Default(), os.LookupEnv)
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// FromEnv overlays XSDIFF_* variables from lookup onto base.
func FromEnv(base Config, lookup func(string) (string, bool)) (Config, error) {
	cfg := base

	if v, ok := lookup(EnvPrefix + "FORMATS"); ok {
		cfg.Formats = SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "KEEP_GOING"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%sKEEP_GOING: %w", EnvPrefix, err)
		}
		cfg.KeepGoing = b
	}
	if v, ok := lookup(EnvPrefix + "PROFILE"); ok {
		cfg.Profile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		level, err := ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup(EnvPrefix + "CACHE_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%sCACHE_SIZE: %w", EnvPrefix, err)
		}
		cfg.CacheSize = n
	}

	return cfg, nil
}

// Validate checks value ranges. Format and profile names are checked by the
// packages that own them.
func (c Config) Validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one report format is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// ParseLevel maps debug, info, warn or error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
