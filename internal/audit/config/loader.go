package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".repoaudit"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for repoaudit settings.
const envPrefix = "REPOAUDIT"

// Load reads configuration from file, environment, and defaults.
// If configPath is non-empty it is used as the explicit config file path;
// otherwise the file is searched in CWD and $HOME. A missing config file is
// not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("health_threshold", def.HealthThreshold)
	v.SetDefault("analysis_depth", def.AnalysisDepth)

	v.SetDefault("health.issue_ceiling", def.Health.IssueCeiling)
	v.SetDefault("health.dependency_ceiling", def.Health.DependencyCeiling)

	v.SetDefault("detect.confidence_threshold", def.Detect.ConfidenceThreshold)

	v.SetDefault("history.commit_sample_size", def.History.CommitSampleSize)
	v.SetDefault("history.active_commit_threshold", def.History.ActiveCommitThreshold)
	v.SetDefault("history.bus_factor_cap", def.History.BusFactorCap)
	v.SetDefault("history.top_contributors", def.History.TopContributors)

	v.SetDefault("static.extensions", def.Static.Extensions)
	v.SetDefault("static.patterns", def.Static.Patterns)
	v.SetDefault("static.max_scanned_files", def.Static.MaxScannedFiles)
	v.SetDefault("static.hotspot_lines", def.Static.HotspotLines)

	v.SetDefault("dependencies.weights.freshness", def.Dependencies.Weights.Freshness)
	v.SetDefault("dependencies.weights.vulnerability", def.Dependencies.Weights.Vulnerability)
	v.SetDefault("dependencies.weights.maintenance", def.Dependencies.Weights.Maintenance)
	v.SetDefault("dependencies.weights.license", def.Dependencies.Weights.License)
	v.SetDefault("dependencies.lookup_concurrency", def.Dependencies.LookupConcurrency)
	v.SetDefault("dependencies.disallowed_licenses", def.Dependencies.DisallowedLicenses)

	v.SetDefault("coverage.low_threshold", def.Coverage.LowThreshold)
	v.SetDefault("coverage.file_patterns", def.Coverage.FilePatterns)
}
