package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.HealthThreshold = 120 },
			wantSub: "health_threshold",
		},
		{
			name:    "depth too deep",
			mutate:  func(c *Config) { c.AnalysisDepth = 9 },
			wantSub: "analysis_depth",
		},
		{
			name:    "weights off by too much",
			mutate:  func(c *Config) { c.Dependencies.Weights.Freshness = 0.9 },
			wantSub: "weights sum",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Dependencies.Weights.License = -0.1 },
			wantSub: "negative",
		},
		{
			name:    "confidence above one",
			mutate:  func(c *Config) { c.Detect.ConfidenceThreshold = 1.5 },
			wantSub: "confidence_threshold",
		},
		{
			name:    "zero lookup concurrency",
			mutate:  func(c *Config) { c.Dependencies.LookupConcurrency = 0 },
			wantSub: "lookup_concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.wantSub)
			}
		})
	}
}

func TestWeightToleranceAccepted(t *testing.T) {
	cfg := Default()
	cfg.Dependencies.Weights.Freshness = 0.405 // sum = 1.005, inside ±0.01
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil within tolerance", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HealthThreshold != DefaultHealthThreshold {
		t.Errorf("HealthThreshold = %d, want default %d", cfg.HealthThreshold, DefaultHealthThreshold)
	}
	if cfg.Dependencies.Weights.Freshness != DefaultFreshnessWeight {
		t.Errorf("Freshness weight = %v, want default", cfg.Dependencies.Weights.Freshness)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.yaml")
	content := `health_threshold: 65
analysis_depth: 3
dependencies:
  weights:
    freshness: 0.25
    vulnerability: 0.25
    maintenance: 0.25
    license: 0.25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HealthThreshold != 65 {
		t.Errorf("HealthThreshold = %d, want 65", cfg.HealthThreshold)
	}
	if cfg.AnalysisDepth != 3 {
		t.Errorf("AnalysisDepth = %d, want 3", cfg.AnalysisDepth)
	}
	if cfg.Dependencies.Weights.License != 0.25 {
		t.Errorf("License weight = %v, want 0.25", cfg.Dependencies.Weights.License)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.yaml")
	if err := os.WriteFile(path, []byte("health_threshold: 400\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() = nil error for out-of-range threshold")
	}
}
