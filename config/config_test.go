package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend.Kind != "git" {
		t.Errorf("Backend.Kind = %q, expected %q", cfg.Backend.Kind, "git")
	}
	if cfg.Backend.Timeout() != 60*time.Second {
		t.Errorf("Backend.Timeout() = %v, expected 60s", cfg.Backend.Timeout())
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("Cache.Type = %q, expected %q", cfg.Cache.Type, "memory")
	}
	if cfg.Cache.MaxAge() != 0 {
		t.Errorf("Cache.MaxAge() = %v, expected 0", cfg.Cache.MaxAge())
	}
	if cfg.Listing.Sort != "name" || cfg.Listing.Direction != "asc" {
		t.Errorf("Listing = %+v", cfg.Listing)
	}
	if cfg.Diff.ContextLines != 3 {
		t.Errorf("Diff.ContextLines = %d, expected 3", cfg.Diff.ContextLines)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, expected %q", cfg.Log.Level, "warn")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "cvs kind", mutate: func(c *Config) { c.Backend.Kind = "cvs" }, ok: true},
		{name: "unknown kind", mutate: func(c *Config) { c.Backend.Kind = "svn" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Backend.TimeoutSeconds = -1 }},
		{name: "sqlite cache", mutate: func(c *Config) { c.Cache.Type = "sqlite" }, ok: true},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Type = "redis" }},
		{name: "age sort", mutate: func(c *Config) { c.Listing.Sort = "age" }, ok: true},
		{name: "unknown sort", mutate: func(c *Config) { c.Listing.Sort = "size" }},
		{name: "unknown direction", mutate: func(c *Config) { c.Listing.Direction = "up" }},
		{name: "negative context", mutate: func(c *Config) { c.Diff.ContextLines = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, expected nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, expected an error")
			}
		})
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	data := `{"backend": {"defaultBranch": "main"}, "cache": {"type": "sqlite", "path": "cache.db"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q", cfg.Backend.DefaultBranch)
	}
	if cfg.Cache.Type != "sqlite" || cfg.Cache.Path != "cache.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	// Unset sections keep their defaults.
	if cfg.Backend.Binary != "git" || cfg.Diff.ContextLines != 3 {
		t.Errorf("defaults lost: %+v %+v", cfg.Backend, cfg.Diff)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	data := `
[backend]
timeout_seconds = 5

[cache]
type = "s3"
s3_bucket = "history"
s3_prefix = "vcsview"

[listing]
sort = "age"
direction = "desc"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.Timeout() != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Backend.Timeout())
	}
	if cfg.Cache.S3Bucket != "history" || cfg.Cache.S3Prefix != "vcsview" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Listing.Sort != "age" || cfg.Listing.Direction != "desc" {
		t.Errorf("Listing = %+v", cfg.Listing)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"listing": {"sort": "size"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.Kind != "git" {
		t.Errorf("expected defaults, got %+v", cfg.Backend)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Filters.Exclude = []string{"vendor/**"}
			cfg.Log.File = "/tmp/vcsview.log"

			if err := SaveConfig(cfg, path); err != nil {
				t.Fatalf("SaveConfig: %v", err)
			}
			got, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if len(got.Filters.Exclude) != 1 || got.Filters.Exclude[0] != "vendor/**" {
				t.Errorf("Exclude = %v", got.Filters.Exclude)
			}
			if got.Log.File != cfg.Log.File {
				t.Errorf("Log.File = %q", got.Log.File)
			}
		})
	}
}
