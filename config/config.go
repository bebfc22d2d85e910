package config

import (
	"errors"
	"flag"
	"fmt"
)

var argConfigFile = flag.String("c", "", "config file path")

// ErrInvalid is returned by Validate for configurations that cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config is the configuration of the engine and the tools built on it. Every field may be overridden by an
// environment variable with the CNB_ prefix, such as CNB_BITS_PER_BLOCK_SIDE.
type Config struct {
	// BitsPerBlockSide is the amount of cells along every side of a subdivided block.
	BitsPerBlockSide int `yaml:"bits_per_block_side" json:"bits_per_block_side" env:"BITS_PER_BLOCK_SIDE"`
	// Database is the directory of the block entity database.
	Database string `yaml:"database" json:"database" env:"DATABASE"`
	// Journal is the path of the sqlite database changes are journaled to. Changes are only kept in memory
	// if it is empty.
	Journal string `yaml:"journal" json:"journal" env:"JOURNAL"`
	// Materials is an optional file of materials registered after the built-in ones.
	Materials string `yaml:"materials" json:"materials" env:"MATERIALS"`
	// EligibilityCacheSize is the capacity of the eligibility cache while no materials are registered.
	EligibilityCacheSize int `yaml:"eligibility_cache_size" json:"eligibility_cache_size" env:"ELIGIBILITY_CACHE_SIZE"`
	// MaxUndo is the amount of changes that may be undone. It must be at least 1.
	MaxUndo     int  `yaml:"max_undo" json:"max_undo" env:"MAX_UNDO"`
	DebugBounds bool `yaml:"debug_bounds" json:"debug_bounds" env:"DEBUG_BOUNDS"`
	WorldMinY   int  `yaml:"world_min_y" json:"world_min_y" env:"WORLD_MIN_Y"`
	WorldMaxY   int  `yaml:"world_max_y" json:"world_max_y" env:"WORLD_MAX_Y"`

	writeBackPath string
}

// Default returns the configuration used for everything not set in a config file.
func Default() Config {
	return Config{
		BitsPerBlockSide:     16,
		Database:             "blocks",
		Journal:              "journal.sqlite",
		EligibilityCacheSize: 1000,
		MaxUndo:              64,
		WorldMinY:            -64,
		WorldMaxY:            319,
	}
}

// Validate checks if the configuration can be used.
func (c *Config) Validate() error {
	side := c.BitsPerBlockSide
	if side < 2 || side > 64 || side&(side-1) != 0 {
		return fmt.Errorf("%w: bits_per_block_side must be a power of two between 2 and 64, got %v", ErrInvalid, side)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database must be set", ErrInvalid)
	}
	if c.EligibilityCacheSize <= 0 {
		return fmt.Errorf("%w: eligibility_cache_size must be positive, got %v", ErrInvalid, c.EligibilityCacheSize)
	}
	if c.MaxUndo < 1 {
		return fmt.Errorf("%w: max_undo must be at least 1, got %v", ErrInvalid, c.MaxUndo)
	}
	if c.WorldMinY > c.WorldMaxY {
		return fmt.Errorf("%w: world_min_y %v is above world_max_y %v", ErrInvalid, c.WorldMinY, c.WorldMaxY)
	}
	return nil
}

// WriteBackPath returns the file the configuration was read from, or would be written to if none existed.
func (c *Config) WriteBackPath() string {
	return c.writeBackPath
}
