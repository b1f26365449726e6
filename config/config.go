package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Backend BackendConfig `json:"backend" toml:"backend"`
	Cache   CacheConfig   `json:"cache" toml:"cache"`
	Listing ListingConfig `json:"listing" toml:"listing"`
	Diff    DiffConfig    `json:"diff" toml:"diff"`
	Filters FilterConfig  `json:"filters" toml:"filters"`
	Log     LogConfig     `json:"log" toml:"log"`
}

// BackendConfig describes how to reach the repository.
type BackendConfig struct {
	Kind           string `json:"kind" toml:"kind"`                      // Default: "git"
	Binary         string `json:"binary" toml:"binary"`                  // Default: "git" (looked up on PATH)
	SourceRoot     string `json:"sourceRoot" toml:"source_root"`         // Default: "."
	TimeoutSeconds int    `json:"timeoutSeconds" toml:"timeout_seconds"` // Per invocation; Default: 60
	DefaultBranch  string `json:"defaultBranch" toml:"default_branch"`   // Empty: ask the backend
}

// CacheConfig selects the result cache store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type          string `json:"type" toml:"type"` // "none", "memory", "filesystem", "sqlite" or "s3"
	MaxAgeSeconds int    `json:"maxAgeSeconds" toml:"max_age_seconds"`

	Dir  string `json:"dir,omitempty" toml:"dir,omitempty"`   // only used for type=filesystem
	Path string `json:"path,omitempty" toml:"path,omitempty"` // only used for type=sqlite

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `json:"s3Bucket,omitempty" toml:"s3_bucket,omitempty"`
	S3Prefix          string `json:"s3Prefix,omitempty" toml:"s3_prefix,omitempty"`
	S3Region          string `json:"s3Region,omitempty" toml:"s3_region,omitempty"`
	S3Endpoint        string `json:"s3Endpoint,omitempty" toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `json:"s3AccessKeyId,omitempty" toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `json:"s3SecretAccessKey,omitempty" toml:"s3_secret_access_key,omitempty"`
}

// ListingConfig holds directory listing defaults.
type ListingConfig struct {
	Sort        string `json:"sort" toml:"sort"`           // name, age, author, revision
	Direction   string `json:"direction" toml:"direction"` // asc, desc
	ShowDeleted bool   `json:"showDeleted" toml:"show_deleted"`
}

// DiffConfig holds diff defaults.
type DiffConfig struct {
	ContextLines     int  `json:"contextLines" toml:"context_lines"`
	IgnoreWhitespace bool `json:"ignoreWhitespace" toml:"ignore_whitespace"`
	Color            bool `json:"color" toml:"color"`
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" toml:"include"`
	Exclude []string `json:"exclude" toml:"exclude"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `json:"level" toml:"level"` // debug, info, warn, error
	File  string `json:"file" toml:"file"`   // Optional; logs are also written to stderr
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:           "git",
			Binary:         "git",
			SourceRoot:     ".",
			TimeoutSeconds: 60,
		},
		Cache: CacheConfig{
			Type: "memory",
		},
		Listing: ListingConfig{
			Sort:      "name",
			Direction: "asc",
		},
		Diff: DiffConfig{
			ContextLines: 3,
			Color:        true,
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Timeout returns the per-invocation backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// MaxAge returns the cache freshness bound. Zero accepts entries of any age.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case "git", "cvs":
	default:
		return fmt.Errorf("unknown backend kind: %q", c.Backend.Kind)
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	switch c.Cache.Type {
	case "", "none", "memory", "filesystem", "sqlite", "s3":
	default:
		return fmt.Errorf("unknown cache type: %q", c.Cache.Type)
	}
	switch c.Listing.Sort {
	case "name", "age", "author", "revision":
	default:
		return fmt.Errorf("unknown listing sort: %q", c.Listing.Sort)
	}
	switch c.Listing.Direction {
	case "asc", "desc":
	default:
		return fmt.Errorf("unknown listing direction: %q", c.Listing.Direction)
	}
	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("diff context lines must not be negative")
	}
	return nil
}

var configNames = []string{".vcsview.json", ".vcsview.toml"}

// LoadConfig loads configuration from a file, merging with defaults.
// Files ending in .toml are decoded as TOML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := append([]string(nil), configNames...)
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			for _, n := range configNames {
				candidates = append(candidates, filepath.Join(home, n))
			}
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isTOML(path) {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to a file in the format its extension names.
func SaveConfig(cfg *Config, path string) error {
	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
