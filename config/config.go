// Package config loads the balancer's option table (spec §6) from YAML
// and applies the documented defaults, in the same plain-struct-plus-
// constructor shape the teacher uses for its own configuration types.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RankGroupStrategy selects how per-cycle rank groups are formed.
type RankGroupStrategy string

const (
	// RankGroupContiguous forms rank groups as contiguous ranges, as in
	// spec §4.G.
	RankGroupContiguous RankGroupStrategy = "contiguous"

	// RankGroupGraph forms rank groups via graphpart.Bisect instead.
	RankGroupGraph RankGroupStrategy = "graph"
)

// Options is the balancer's configuration input, mirroring spec §6's
// option table plus the SPEC_FULL.md additions.
type Options struct {
	// FlexibleLoadTolerance is the fractional slack above ideal load a
	// rank may carry before it is considered over its band.
	FlexibleLoadTolerance float64 `yaml:"flexible_load_tolerance"`

	// MaxCycleSpreadRatio bounds how many receivers one sender may feed
	// within a single cycle.
	MaxCycleSpreadRatio int `yaml:"max_cycle_spread_ratio"`

	// ReportLoadBalance selects summary load-balance statistics. It is
	// loaded and validated only: balancer.Balance does not read it, always
	// fills Result.Report, and prints nothing itself.
	ReportLoadBalance bool `yaml:"report_load_balance"`

	// SummarizeMap, if true, emits a text summary of the unbalanced to
	// balanced connector.
	SummarizeMap bool `yaml:"summarize_map"`

	// MinLoadFractionPerBox is an advisory floor on a breakoff's share of
	// a box's load (Open Question (a)): the breaker never rejects a
	// candidate solely for falling below it.
	MinLoadFractionPerBox float64 `yaml:"min_load_fraction_per_box"`

	// RankGroupStrategy selects contiguous or graph-based rank grouping.
	RankGroupStrategy RankGroupStrategy `yaml:"rank_group_strategy"`
}

// MinNProcForMulticycle is the |R| threshold from spec §4.G at or above
// which a balance call always runs multiple cycles, regardless of load
// spread.
const MinNProcForMulticycle = 65

// Default returns the option table's documented defaults.
func Default() Options {
	return Options{
		FlexibleLoadTolerance: 0.05,
		MaxCycleSpreadRatio:   1000000,
		ReportLoadBalance:     false,
		SummarizeMap:          false,
		MinLoadFractionPerBox: 0,
		RankGroupStrategy:     RankGroupContiguous,
	}
}

// Load reads Options from a YAML file at path, starting from Default()
// and overriding only the fields present in the file.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports a descriptive error if opts holds a value outside its
// documented domain.
func (o Options) Validate() error {
	if o.FlexibleLoadTolerance < 0 || o.FlexibleLoadTolerance > 1 {
		return fmt.Errorf("config: flexible_load_tolerance must be in [0,1], got %v", o.FlexibleLoadTolerance)
	}
	if o.MaxCycleSpreadRatio <= 1 {
		return fmt.Errorf("config: max_cycle_spread_ratio must be > 1, got %v", o.MaxCycleSpreadRatio)
	}
	switch o.RankGroupStrategy {
	case RankGroupContiguous, RankGroupGraph, "":
	default:
		return fmt.Errorf("config: unknown rank_group_strategy %q", o.RankGroupStrategy)
	}
	return nil
}
