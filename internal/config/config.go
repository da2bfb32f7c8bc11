// Package config loads the collatz command configuration.
//
// Precedence, lowest first:
//
//	Default() → YAML file → COLLATZ_* environment variables → CLI flags
//
// CLI flags are applied by the command itself; this package handles the
// rest and validates the merged result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the merged configuration.
type Config struct {
	// Bits is the integer width used by every query.
	Bits int `yaml:"bits" validate:"gte=4,lte=128"`

	// Workers bounds concurrent queries in batch commands.
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`

	// SharedMemo reuses one memo across the queries of an invocation.
	SharedMemo bool `yaml:"shared_memo"`

	// MaxWalk bounds one forward walk; 0 disables the limit.
	MaxWalk int `yaml:"max_walk" validate:"gte=0"`

	// MaxMemo caps memo entries per query, or in total for a shared memo;
	// 0 disables the cap.
	MaxMemo int `yaml:"max_memo" validate:"gte=0"`

	// MetricsOut, when set, receives a Prometheus text dump on exit.
	MetricsOut string `yaml:"metrics_out"`

	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// StoreConfig configures the optional BadgerDB memo archive.
type StoreConfig struct {
	// Path enables the archive when non-empty.
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// Enabled reports whether a memo archive is configured.
func (s StoreConfig) Enabled() bool {
	return s.Path != "" || s.InMemory
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// MaxLength rejects larger targets to bound request cost.
	MaxLength int `yaml:"max_length" validate:"gte=2,lte=100000"`

	// Timeout caps the time spent on one request.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bits:       128,
		Workers:    4,
		SharedMemo: false,
		MaxWalk:    1 << 20,
		MaxMemo:    1 << 22,
		Store:      StoreConfig{SyncWrites: true},
		Log:        LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:      ":8080",
			MaxLength: 350,
			Timeout:   10 * time.Second,
		},
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load merges defaults, the YAML file at path (skipped when path is empty
// or the file does not exist) and the environment, then validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := loadEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // no file, keep defaults
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// loadEnv applies COLLATZ_* overrides. lookup is os.LookupEnv outside tests.
func loadEnv(cfg *Config, lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"COLLATZ_BITS", &cfg.Bits},
		{"COLLATZ_WORKERS", &cfg.Workers},
		{"COLLATZ_MAX_WALK", &cfg.MaxWalk},
		{"COLLATZ_MAX_MEMO", &cfg.MaxMemo},
		{"COLLATZ_SERVER_MAX_LENGTH", &cfg.Server.MaxLength},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"COLLATZ_STORE_PATH", &cfg.Store.Path},
		{"COLLATZ_LOG_LEVEL", &cfg.Log.Level},
		{"COLLATZ_LOG_FORMAT", &cfg.Log.Format},
		{"COLLATZ_METRICS_OUT", &cfg.MetricsOut},
		{"COLLATZ_SERVER_ADDR", &cfg.Server.Addr},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok {
			*e.dst = v
		}
	}

	if v, ok := lookup("COLLATZ_SHARED_MEMO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: COLLATZ_SHARED_MEMO: %w", err)
		}
		cfg.SharedMemo = b
	}
	if v, ok := lookup("COLLATZ_SERVER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: COLLATZ_SERVER_TIMEOUT: %w", err)
		}
		cfg.Server.Timeout = d
	}
	return nil
}
