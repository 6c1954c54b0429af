// Package config holds the typed configuration for an audit run. Defaults
// are named constants, and validation happens at construction: an invalid
// weight set or numeric range is rejected before any analyzer runs.
package config

import (
	"fmt"
	"math"
)

// Defaults for every tunable. The health threshold gates the deep audit and
// is consumed by both the orchestrator and the health scorer from this one
// value.
const (
	DefaultHealthThreshold     = 80
	DefaultAnalysisDepth       = 2
	DefaultConfidenceThreshold = 0.6
	DefaultLowCoverage         = 70.0

	DefaultFreshnessWeight     = 0.4
	DefaultVulnerabilityWeight = 0.3
	DefaultMaintenanceWeight   = 0.2
	DefaultLicenseWeight       = 0.1
	DefaultLookupConcurrency   = 10

	DefaultIssueCeiling      = 50
	DefaultDependencyCeiling = 150

	DefaultCommitSampleSize      = 100
	DefaultActiveCommitThreshold = 50
	DefaultBusFactorCap          = 3
	DefaultTopContributors       = 5

	DefaultMaxScannedFiles = 40
	DefaultHotspotLines    = 300

	weightTolerance = 0.01
)

// Config is the full configuration surface of the audit pipeline.
type Config struct {
	HealthThreshold int `mapstructure:"health_threshold"`
	AnalysisDepth   int `mapstructure:"analysis_depth"`

	Health       HealthConfig       `mapstructure:"health"`
	Detect       DetectConfig       `mapstructure:"detect"`
	History      HistoryConfig      `mapstructure:"history"`
	Static       StaticConfig       `mapstructure:"static"`
	Dependencies DependenciesConfig `mapstructure:"dependencies"`
	Coverage     CoverageConfig     `mapstructure:"coverage"`
}

// HealthConfig tunes the initial health scorer.
type HealthConfig struct {
	IssueCeiling      int `mapstructure:"issue_ceiling"`
	DependencyCeiling int `mapstructure:"dependency_ceiling"`
}

// DetectConfig tunes the type/stack detector.
type DetectConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// HistoryConfig tunes the git history analyzer.
type HistoryConfig struct {
	CommitSampleSize      int `mapstructure:"commit_sample_size"`
	ActiveCommitThreshold int `mapstructure:"active_commit_threshold"`
	BusFactorCap          int `mapstructure:"bus_factor_cap"`
	TopContributors       int `mapstructure:"top_contributors"`
}

// StaticConfig tunes the static structure analyzer.
type StaticConfig struct {
	Extensions      []string `mapstructure:"extensions"`
	Patterns        []string `mapstructure:"patterns"`
	MaxScannedFiles int      `mapstructure:"max_scanned_files"`
	HotspotLines    int      `mapstructure:"hotspot_lines"`
}

// Weights are the dependency sub-metric weights. They must sum to 1 within
// tolerance.
type Weights struct {
	Freshness     float64 `mapstructure:"freshness"`
	Vulnerability float64 `mapstructure:"vulnerability"`
	Maintenance   float64 `mapstructure:"maintenance"`
	License       float64 `mapstructure:"license"`
}

// Map returns the weights keyed by metric name for the score combinator.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		"freshness":     w.Freshness,
		"vulnerability": w.Vulnerability,
		"maintenance":   w.Maintenance,
		"license":       w.License,
	}
}

// DependenciesConfig tunes the dependency risk analyzer.
type DependenciesConfig struct {
	Weights            Weights  `mapstructure:"weights"`
	LookupConcurrency  int      `mapstructure:"lookup_concurrency"`
	DisallowedLicenses []string `mapstructure:"disallowed_licenses"`
}

// CoverageConfig tunes the test coverage analyzer.
type CoverageConfig struct {
	LowThreshold float64  `mapstructure:"low_threshold"`
	FilePatterns []string `mapstructure:"file_patterns"`
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	return &Config{
		HealthThreshold: DefaultHealthThreshold,
		AnalysisDepth:   DefaultAnalysisDepth,
		Health: HealthConfig{
			IssueCeiling:      DefaultIssueCeiling,
			DependencyCeiling: DefaultDependencyCeiling,
		},
		Detect: DetectConfig{
			ConfidenceThreshold: DefaultConfidenceThreshold,
		},
		History: HistoryConfig{
			CommitSampleSize:      DefaultCommitSampleSize,
			ActiveCommitThreshold: DefaultActiveCommitThreshold,
			BusFactorCap:          DefaultBusFactorCap,
			TopContributors:       DefaultTopContributors,
		},
		Static: StaticConfig{
			Extensions: []string{
				".go", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".rs", ".ex", ".exs",
			},
			Patterns: []string{
				"TODO", "FIXME", "HACK", "if ", "for ", "while ", "catch",
			},
			MaxScannedFiles: DefaultMaxScannedFiles,
			HotspotLines:    DefaultHotspotLines,
		},
		Dependencies: DependenciesConfig{
			Weights: Weights{
				Freshness:     DefaultFreshnessWeight,
				Vulnerability: DefaultVulnerabilityWeight,
				Maintenance:   DefaultMaintenanceWeight,
				License:       DefaultLicenseWeight,
			},
			LookupConcurrency:  DefaultLookupConcurrency,
			DisallowedLicenses: []string{"GPL", "AGPL", "SSPL"},
		},
		Coverage: CoverageConfig{
			LowThreshold: DefaultLowCoverage,
			FilePatterns: []string{
				"lcov.info", "coverage.xml", "cobertura.xml",
				"cobertura-coverage.xml", "coverage-summary.json", "coverage-final.json",
			},
		},
	}
}

// Validate rejects invalid configuration before any analyzer runs.
func (c *Config) Validate() error {
	if c.HealthThreshold < 0 || c.HealthThreshold > 100 {
		return fmt.Errorf("health_threshold %d out of range [0,100]", c.HealthThreshold)
	}
	if c.AnalysisDepth < 1 || c.AnalysisDepth > 5 {
		return fmt.Errorf("analysis_depth %d out of range [1,5]", c.AnalysisDepth)
	}
	if c.Detect.ConfidenceThreshold < 0 || c.Detect.ConfidenceThreshold > 1 {
		return fmt.Errorf("detect.confidence_threshold %.2f out of range [0,1]", c.Detect.ConfidenceThreshold)
	}
	if c.Coverage.LowThreshold < 0 || c.Coverage.LowThreshold > 100 {
		return fmt.Errorf("coverage.low_threshold %.1f out of range [0,100]", c.Coverage.LowThreshold)
	}
	if c.Dependencies.LookupConcurrency < 1 {
		return fmt.Errorf("dependencies.lookup_concurrency must be at least 1")
	}

	if err := c.Dependencies.Weights.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the weights sum to 1 within tolerance with no negative
// entries.
func (w Weights) Validate() error {
	for name, v := range w.Map() {
		if v < 0 {
			return fmt.Errorf("dependencies.weights.%s is negative", name)
		}
	}
	sum := w.Freshness + w.Vulnerability + w.Maintenance + w.License
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("dependencies.weights sum to %.3f, want 1.0 ±%.2f", sum, weightTolerance)
	}
	return nil
}
