package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Kernel.MeshCells != 200 {
		t.Errorf("MeshCells = %d, want 200", cfg.Kernel.MeshCells)
	}
	if cfg.Defaults.Size != "DN50" || cfg.Defaults.Rating != "SCH-STD" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %s, want :8080", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "pypeline.db" {
		t.Errorf("Store.Path = %s", cfg.Store.Path)
	}

	cfg, err = Load("")
	if err != nil || cfg.Server.Addr != ":8080" {
		t.Errorf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestLoad_OverridesKeepOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pypeline.yaml")
	data := `
kernel:
  mesh_cells: 64
defaults:
  size: DN80
  od: 88.9
  thk: 5.49
server:
  addr: 127.0.0.1:9000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kernel.MeshCells != 64 {
		t.Errorf("MeshCells = %d, want 64", cfg.Kernel.MeshCells)
	}
	if cfg.Defaults.Size != "DN80" || cfg.Defaults.OD != 88.9 {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
	if cfg.Defaults.Rating != "SCH-STD" {
		t.Errorf("Rating = %s, want default SCH-STD", cfg.Defaults.Rating)
	}
	if cfg.Store.Path != "pypeline.db" {
		t.Errorf("Store.Path = %s, want default", cfg.Store.Path)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %s", cfg.Server.Addr)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"bad yaml", "kernel: [", "parse"},
		{"negative cells", "kernel:\n  mesh_cells: -1\n", "mesh_cells"},
		{"negative od", "defaults:\n  od: -5\n", "negative"},
		{"thick wall", "defaults:\n  od: 10\n  thk: 6\n", "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Catalog = "sizes.yaml"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}
