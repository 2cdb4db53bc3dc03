// Package config loads vocabdiff settings from defaults, an optional .env file
// and VOCABDIFF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "VOCABDIFF_"

// Diff modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

var (
	// ErrMissingSetting is returned by Validate when a required setting is empty.
	ErrMissingSetting = errors.New("missing required setting")
	// ErrInvalidURL is returned by Validate when a URL setting cannot be used.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidMode is returned by Validate for an unknown diff mode.
	ErrInvalidMode = errors.New("invalid mode")
)

// Config holds every runtime setting.
type Config struct {
	RemoteURL   string        `koanf:"remote_url"`
	FeedURL     string        `koanf:"feed_url"`
	DatabaseURL string        `koanf:"database_url"`
	CachePath   string        `koanf:"cache_path"`
	ExportDir   string        `koanf:"export_dir"`
	Mode        string        `koanf:"mode"`
	Lang        string        `koanf:"lang"`
	Timeout     time.Duration `koanf:"timeout"`
	LogLevel    string        `koanf:"log_level"`
	LogJSON     bool          `koanf:"log_json"`
	Workers     int           `koanf:"workers"`
}

// Default returns the built-in defaults. Remote and feed URLs have none.
func Default() *Config {
	return &Config{
		CachePath: "vocabdiff.db",
		ExportDir: ".",
		Mode:      ModeLocal,
		Lang:      "en",
		Timeout:   15 * time.Second,
		LogLevel:  "info",
		Workers:   4,
	}
}

// Load builds a Config. envFile, when non-empty and present on disk, is loaded
// into the process environment first; variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			if strings.TrimSpace(value) == "" {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the remote store and feed URLs are present and usable.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.RemoteURL) == "" {
		missing = append(missing, EnvPrefix+"REMOTE_URL")
	}
	if strings.TrimSpace(c.FeedURL) == "" {
		missing = append(missing, EnvPrefix+"FEED_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	if err := checkURL("remote_url", c.RemoteURL); err != nil {
		return err
	}
	if err := checkURL("feed_url", c.FeedURL); err != nil {
		return err
	}
	switch c.Mode {
	case ModeLocal, ModeRemote:
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidMode, c.Mode, ModeLocal, ModeRemote)
	}
	return nil
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidURL, name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must be http or https, got %q", ErrInvalidURL, name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s has no host", ErrInvalidURL, name)
	}
	return nil
}
