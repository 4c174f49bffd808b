package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfigValidates(t *testing.T) {
	c := NewDefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if c.SpillCompression != "s2" {
		t.Fatalf("expected default spill compression s2, got %q", c.SpillCompression)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero spill threshold", func(c *Config) { c.SortSpillThreshold = 0 }},
		{"zero insertion limit", func(c *Config) { c.SortInsertionLimit = 0 }},
		{"growth factor too small", func(c *Config) { c.BufferGrowthFactor = 1.0 }},
		{"unknown codec", func(c *Config) { c.SpillCompression = "lz4" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewDefaultConfig()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected Validate to reject %s", tc.name)
			}
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qengine.yaml")
	if err := os.WriteFile(path, []byte("sort_spill_threshold: 128\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.SortSpillThreshold != 128 {
		t.Fatalf("expected override to 128, got %d", c.SortSpillThreshold)
	}
	if c.SpillCompression != "s2" {
		t.Fatalf("unset fields should keep their default, got %q", c.SpillCompression)
	}
}

func TestExampleConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example.yaml")
	if err := os.WriteFile(path, []byte(ExampleConfig()), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("ExampleConfig should be a loadable config: %v", err)
	}
}
