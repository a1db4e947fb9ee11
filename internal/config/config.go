// Package config provides configuration loading and validation for the job sheet renderer.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

// Config represents the complete renderer configuration.
type Config struct {
	Renderer   RendererConfig   `yaml:"renderer"`
	Sanitizer  SanitizerConfig  `yaml:"sanitizer"`
	Pagination PaginationConfig `yaml:"pagination"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Server     ServerConfig     `yaml:"server"`
}

// RendererConfig controls the headless Chrome rasterizer.
type RendererConfig struct {
	ChromePath string        `yaml:"chrome_path,omitempty"`
	RemoteURL  string        `yaml:"remote_url,omitempty"` // DevTools endpoint; empty launches a local browser
	Timeout    time.Duration `yaml:"timeout"`
	Scale      float64       `yaml:"scale"`
	NoSandbox  bool          `yaml:"no_sandbox"`
}

// SanitizerConfig controls remote image inlining.
type SanitizerConfig struct {
	UserAgent      string        `yaml:"user_agent,omitempty"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	MaxBytes       int64         `yaml:"max_bytes"`
}

// PaginationConfig holds the page plan toggle.
type PaginationConfig struct {
	// MultiPage routes reports that need pagination through the chunked
	// renderer. Off by default: every report is rendered as one tall page.
	MultiPage bool `yaml:"multi_page"`
}

// OutputConfig describes where generated files are written locally.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig selects optional remote storage for generated files.
type StorageConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config contains S3 (or S3-compatible) upload settings.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	DefaultHost    string        `yaml:"default_host,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Renderer: RendererConfig{
			Timeout:   60 * time.Second,
			Scale:     2,
			NoSandbox: true,
		},
		Sanitizer: SanitizerConfig{
			Timeout:        15 * time.Second,
			MaxConcurrency: 8,
			MaxBytes:       10 << 20,
		},
		Output: OutputConfig{Dir: "reports"},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 2 * time.Minute,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file on top of Default.
func LoadConfig(path string) (*Config, error) {
	validPath, err := pathutil.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(validPath) //nolint:gosec // path validated above
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when set and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer.timeout must be positive")
	}
	if c.Renderer.Scale < 1 || c.Renderer.Scale > 4 {
		return fmt.Errorf("renderer.scale must be between 1 and 4, got %g", c.Renderer.Scale)
	}

	if c.Sanitizer.Timeout <= 0 {
		return fmt.Errorf("sanitizer.timeout must be positive")
	}
	if c.Sanitizer.MaxConcurrency < 1 {
		return fmt.Errorf("sanitizer.max_concurrency must be at least 1")
	}
	if c.Sanitizer.MaxBytes <= 0 {
		return fmt.Errorf("sanitizer.max_bytes must be positive")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if s3 := c.Storage.S3; s3 != nil {
		if s3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.s3 is set")
		}
		if s3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when storage.s3 is set")
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	return nil
}

// HasS3 reports whether S3 uploads are configured.
func (c *Config) HasS3() bool {
	return c.Storage.S3 != nil && c.Storage.S3.Bucket != ""
}
