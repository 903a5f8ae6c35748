// Package config loads pypeline settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/pypeline/pkg/kernel/sdfx"
)

// Config holds settings shared by the desktop app, the REPL and the
// HTTP server.
type Config struct {
	Kernel   KernelConfig   `yaml:"kernel"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	// Catalog is an optional size catalog replacing the embedded one.
	Catalog string `yaml:"catalog"`
}

type KernelConfig struct {
	// MeshCells is the marching cubes resolution along the longest axis.
	MeshCells int `yaml:"mesh_cells"`
}

// DefaultsConfig sizes parts created without explicit dimensions.
type DefaultsConfig struct {
	Size   string  `yaml:"size"`
	Rating string  `yaml:"rating"`
	OD     float64 `yaml:"od"`
	Thk    float64 `yaml:"thk"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Kernel:   KernelConfig{MeshCells: sdfx.DefaultMeshCells},
		Defaults: DefaultsConfig{Size: "DN50", Rating: "SCH-STD", OD: 60.3, Thk: 3},
		Store:    StoreConfig{Path: "pypeline.db"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load reads the file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads YAML from r over the defaults. Keys absent from the input
// keep their default values.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Kernel.MeshCells < 0 {
		return fmt.Errorf("config: kernel.mesh_cells must not be negative, got %d", c.Kernel.MeshCells)
	}
	if c.Defaults.OD < 0 || c.Defaults.Thk < 0 {
		return fmt.Errorf("config: default dimensions must not be negative")
	}
	if c.Defaults.Thk > c.Defaults.OD/2 {
		return fmt.Errorf("config: default thk %g exceeds half of OD %g", c.Defaults.Thk, c.Defaults.OD)
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
