// Package engine holds execution-tuning knobs for the plan package's
// operators and the row codec: spill thresholds, buffer growth policy,
// and sort limits. Neither plan nor rowcodec imports this package; a
// caller copies the values it wants onto the operators it builds (for
// example SortTree.SpillThreshold and SortTree.SpillCodec). It is
// deliberately small — the rest of a
// deployment's configuration (storage adapter wiring, network listeners)
// lives with whatever binds an Adapter together, not here.
package engine

import (
	"flag"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config is the root execution-tuning configuration, loaded once at
// startup. plan.ExecContext has no field for it.
type Config struct {
	// SortSpillThreshold is the resident row count at which
	// plan.SortTree starts spilling batches through compr.
	SortSpillThreshold int `json:"sort_spill_threshold"`

	// SortInsertionLimit is a configured ceiling on a bounded top-K
	// sort's in-memory size. plan.SortInsertionLimited does not read
	// it; that operator holds up to its own Limit rows.
	SortInsertionLimit int `json:"sort_insertion_limit"`

	// BufferGrowthFactor is a configured growth factor for owned row
	// codec scratch buffers. rowcodec.Build does not read it; Build
	// always doubles.
	BufferGrowthFactor float64 `json:"buffer_growth_factor"`

	// SpillCompression names the compr codec used for sort spill
	// batches ("s2" or "zstd").
	SpillCompression string `json:"spill_compression"`
}

// RegisterFlagsAndApplyDefaults registers flags for every Config field
// and sets default values; the config struct owns its own flag
// registration rather than leaving that to the caller.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.IntVar(&c.SortSpillThreshold, prefix+"sort.spill-threshold", 4096, "resident row count at which sort_Tree compresses a batch in memory.")
	f.IntVar(&c.SortInsertionLimit, prefix+"sort.insertion-limit", 10000, "configured ceiling on sort_InsertionLimited's in-memory heap size (not read by the operator).")
	f.Float64Var(&c.BufferGrowthFactor, prefix+"codec.buffer-growth-factor", 2.0, "configured growth factor for row codec scratch buffers (not read by the codec, which doubles).")
	f.StringVar(&c.SpillCompression, prefix+"sort.spill-compression", "s2", "compression codec used for sort spill batches (s2 or zstd).")
}

// NewDefaultConfig returns a Config with every default applied.
func NewDefaultConfig() *Config {
	c := &Config{}
	c.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.PanicOnError))
	return c
}

// Validate rejects configurations that would make an operator
// misbehave rather than merely run slowly.
func (c *Config) Validate() error {
	if c.SortSpillThreshold <= 0 {
		return fmt.Errorf("engine: sort_spill_threshold must be positive, got %d", c.SortSpillThreshold)
	}
	if c.SortInsertionLimit <= 0 {
		return fmt.Errorf("engine: sort_insertion_limit must be positive, got %d", c.SortInsertionLimit)
	}
	if c.BufferGrowthFactor <= 1.0 {
		return fmt.Errorf("engine: buffer_growth_factor must be greater than 1.0, got %g", c.BufferGrowthFactor)
	}
	switch c.SpillCompression {
	case "s2", "zstd":
	default:
		return fmt.Errorf("engine: unknown spill_compression %q", c.SpillCompression)
	}
	return nil
}

// LoadConfig reads a YAML document from path, applying it over the
// defaults from NewDefaultConfig and validating the result.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: reading config %s: %w", path, err)
	}
	c := NewDefaultConfig()
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, fmt.Errorf("engine: parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ExampleConfig returns a sample YAML document documenting every
// field, runnable as-is.
func ExampleConfig() string {
	return `# qengine execution tuning
sort_spill_threshold: 4096
sort_insertion_limit: 10000
buffer_growth_factor: 2.0
spill_compression: s2
`
}
