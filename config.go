package ratchettree

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko"
)

// MaxTreeSize is the largest number of nodes a tree may hold. Node positions
// are 32-bit, and the largest odd 32-bit value is MaxUint32 itself.
const MaxTreeSize uint32 = math.MaxUint32

// Configuration keys read by ConfigFromSettings.
const (
	KeyMaxSize      = "ratchettree.maxsize"
	KeyCheckOnMerge = "ratchettree.checkonmerge"
)

// Config configures the capacity and self-checking of a tree.
//
// The zero value is valid and configures a tree with capacity MaxTreeSize.
type Config struct {
	// MaxSize is the maximum number of nodes, which must be odd. 0 means MaxTreeSize.
	MaxSize uint32
	// CheckOnMerge lets MergeDiff validate a staged diff before applying it.
	CheckOnMerge bool
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{MaxSize: MaxTreeSize}
}

func (cfg Config) normalized() Config {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = MaxTreeSize
	}
	return cfg
}

func (cfg Config) validate() error {
	cfg = cfg.normalized()
	if cfg.MaxSize%2 == 0 {
		return fmt.Errorf("%w: max size %d must be odd", ErrInvalidConfig, cfg.MaxSize)
	}
	return nil
}

// ConfigFromSettings reads a tree configuration from an application
// configuration. Keys not present keep their defaults.
//
//	ratchettree.maxsize       maximum number of nodes (odd)
//	ratchettree.checkonmerge  validate invariants after each merge
func ConfigFromSettings(conf schuko.Configuration) (Config, error) {
	cfg := DefaultConfig()
	if conf == nil {
		return cfg, nil
	}
	if conf.IsSet(KeyMaxSize) {
		n := conf.GetInt(KeyMaxSize)
		if n <= 0 || uint64(n) > uint64(MaxTreeSize) {
			return cfg, fmt.Errorf("%w: %s=%d", ErrInvalidConfig, KeyMaxSize, n)
		}
		cfg.MaxSize = uint32(n)
	}
	if conf.IsSet(KeyCheckOnMerge) {
		cfg.CheckOnMerge = conf.GetBool(KeyCheckOnMerge)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	tracer().P("maxsize", cfg.MaxSize).Debugf("tree configuration read from settings")
	return cfg, nil
}
