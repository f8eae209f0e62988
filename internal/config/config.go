// Package config loads the cradle configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// BuildConfig describes an optional pre-run image build.
type BuildConfig struct {
	Context string `yaml:"context"`            // directory containing the Dockerfile
	Tag     string `yaml:"tag,omitempty"`      // defaults to the payload image
	NoCache bool   `yaml:"no_cache,omitempty"` //
	Timeout string `yaml:"timeout,omitempty"`  // e.g. "5m"; empty means no limit
}

// Config is the top-level cradle configuration.
type Config struct {
	Image           string       `yaml:"image"`
	NamespaceRoot   string       `yaml:"namespace_root,omitempty"`
	LogDir          string       `yaml:"log_dir,omitempty"`
	ContainerLogDir string       `yaml:"container_log_dir,omitempty"`
	DockerSocket    string       `yaml:"docker_socket,omitempty"`
	Network         string       `yaml:"network,omitempty"`
	Memory          string       `yaml:"memory,omitempty"` // human form, e.g. "512m"
	CPUs            string       `yaml:"cpus,omitempty"`
	ExtraRunArgs    string       `yaml:"extra_run_args,omitempty"` // shell-style string
	PathFlags       []string     `yaml:"path_flags,omitempty"`     // explicit path-flag schema
	Build           *BuildConfig `yaml:"build,omitempty"`
}

// Default returns the configuration used when no file is given.
// The log directory is the conventional per-user location.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	return Config{
		NamespaceRoot:   "/docker_mounts",
		LogDir:          filepath.Join(home, ".cradle", "logs"),
		ContainerLogDir: "/cradle/logs",
		DockerSocket:    "/var/run/docker.sock",
	}
}

// Load reads a YAML configuration file and fills in defaults for
// anything left unset.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields whose values feed directly into the
// composed docker command line.
func (c Config) Validate() error {
	if c.NamespaceRoot == "" || !strings.HasPrefix(c.NamespaceRoot, "/") {
		return fmt.Errorf("namespace_root %q must be an absolute container path", c.NamespaceRoot)
	}
	if c.ContainerLogDir == "" || !strings.HasPrefix(c.ContainerLogDir, "/") {
		return fmt.Errorf("container_log_dir %q must be an absolute container path", c.ContainerLogDir)
	}
	if c.Memory != "" {
		if _, err := units.RAMInBytes(c.Memory); err != nil {
			return fmt.Errorf("memory %q: %w", c.Memory, err)
		}
	}
	if c.Build != nil {
		if c.Build.Context == "" {
			return fmt.Errorf("build section requires a context directory")
		}
		if _, err := c.BuildTimeout(); err != nil {
			return err
		}
	}
	return nil
}

// BuildTimeout parses the configured build timeout; zero means no limit.
func (c Config) BuildTimeout() (time.Duration, error) {
	if c.Build == nil || c.Build.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Build.Timeout)
	if err != nil {
		return 0, fmt.Errorf("build timeout %q: %w", c.Build.Timeout, err)
	}
	return d, nil
}

// MemoryBytes returns the configured memory limit in bytes, or 0 when unset.
func (c Config) MemoryBytes() int64 {
	if c.Memory == "" {
		return 0
	}
	n, err := units.RAMInBytes(c.Memory)
	if err != nil {
		return 0
	}
	return n
}

// BuildTag returns the tag to build, falling back to the payload image.
func (c Config) BuildTag() string {
	if c.Build == nil {
		return ""
	}
	if c.Build.Tag != "" {
		return c.Build.Tag
	}
	return c.Image
}
