package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPollIntervalSeconds is the chat message poll cadence used when the
// config file does not set one.
const DefaultPollIntervalSeconds = 3

// DefaultAPIBaseURL is used when the config file does not set api_base_url.
const DefaultAPIBaseURL = "http://localhost:8000/api"

// Config represents the global ~/.mtshop/config.toml.
type Config struct {
	// APIBaseURL is the marketplace REST API root, e.g. "https://shop.example.com/api".
	APIBaseURL string `toml:"api_base_url"`
	// DefaultProfile selects the profile used when --profile is not given.
	DefaultProfile string `toml:"default_profile"`
	// PollIntervalSeconds controls how often an open chat room is re-fetched.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	// StorageBucket is the object storage bucket for image uploads.
	StorageBucket string `toml:"storage_bucket"`
	// StorageCredentials is an optional service credentials file path.
	StorageCredentials string `toml:"storage_credentials"`
}

// PollInterval returns the configured poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	secs := c.PollIntervalSeconds
	if secs <= 0 {
		secs = DefaultPollIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
