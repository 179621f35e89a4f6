package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	d := Default()
	if d.FlexibleLoadTolerance != 0.05 {
		t.Errorf("FlexibleLoadTolerance = %v, want 0.05", d.FlexibleLoadTolerance)
	}
	if d.MaxCycleSpreadRatio != 1000000 {
		t.Errorf("MaxCycleSpreadRatio = %v, want 1000000", d.MaxCycleSpreadRatio)
	}
	if d.ReportLoadBalance || d.SummarizeMap {
		t.Errorf("ReportLoadBalance/SummarizeMap should default false")
	}
	if d.RankGroupStrategy != RankGroupContiguous {
		t.Errorf("RankGroupStrategy = %v, want contiguous", d.RankGroupStrategy)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Default() fails Validate: %v", err)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	if err := os.WriteFile(path, []byte("flexible_load_tolerance: 0.1\nreport_load_balance: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.FlexibleLoadTolerance != 0.1 {
		t.Errorf("FlexibleLoadTolerance = %v, want 0.1", opts.FlexibleLoadTolerance)
	}
	if !opts.ReportLoadBalance {
		t.Errorf("ReportLoadBalance = false, want true")
	}
	if opts.MaxCycleSpreadRatio != 1000000 {
		t.Errorf("MaxCycleSpreadRatio = %v, want default 1000000 preserved", opts.MaxCycleSpreadRatio)
	}
}

func TestValidateRejectsOutOfRangeTolerance(t *testing.T) {
	o := Default()
	o.FlexibleLoadTolerance = 1.5
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error for tolerance > 1")
	}
}

func TestValidateRejectsUnknownRankGroupStrategy(t *testing.T) {
	o := Default()
	o.RankGroupStrategy = "bogus"
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error for unknown rank group strategy")
	}
}
