// Package schema defines the result types produced by the audit pipeline.
//
// Each analyzer owns the construction of its own result type; the aggregator
// only assembles references into an AuditResult. Every section besides the
// health assessment is optional — a nil section means the analyzer was
// skipped or failed, and the report degrades to "no data" for that section.
package schema

import "time"

// HealthSummary classifies a repository's overall condition.
type HealthSummary string

const (
	// SummaryHealthy means the score cleared the audit threshold and no
	// deep audit was performed.
	SummaryHealthy HealthSummary = "healthy"
	// SummaryNeedsAudit means the score fell below the threshold and the
	// deep-audit analyzers were dispatched.
	SummaryNeedsAudit HealthSummary = "needs-audit"
)

// HealthAssessment is the initial weighted score, computed once per run.
// It is the single gate for all downstream branching.
type HealthAssessment struct {
	Score   int           `json:"score"`
	Summary HealthSummary `json:"summary"`
}

// RepoType categorizes a repository by its dominant stack.
type RepoType string

const (
	TypeFrontend RepoType = "frontend"
	TypeBackend  RepoType = "backend"
	TypeAI       RepoType = "ai"
	TypeMobile   RepoType = "mobile"
	TypeMonorepo RepoType = "monorepo"
	TypeUnknown  RepoType = "unknown"
)

// RepositoryProfile is the type detector's result. When confidence falls
// below the configured threshold the profile collapses to TypeUnknown with
// frameworks cleared and confidence forced to zero.
type RepositoryProfile struct {
	Type           RepoType `json:"type"`
	Languages      []string `json:"languages,omitempty"`
	Frameworks     []string `json:"frameworks,omitempty"`
	PackageManager string   `json:"package_manager,omitempty"`
	Confidence     float64  `json:"confidence"`
	Warnings       []string `json:"warnings,omitempty"`
}

// CommitFrequency labels recent commit activity.
type CommitFrequency string

const (
	FrequencyActive   CommitFrequency = "active"
	FrequencyModerate CommitFrequency = "moderate"
)

// ContributorStat is one entry in the ranked contributor list.
type ContributorStat struct {
	Login       string `json:"login"`
	CommitCount int    `json:"commit_count"`
}

// GitInsight is the git history analyzer's result.
type GitInsight struct {
	CommitFrequency CommitFrequency   `json:"commit_frequency"`
	BusFactor       int               `json:"bus_factor"`
	OrphanedPaths   []string          `json:"orphaned_paths,omitempty"`
	Contributors    []ContributorStat `json:"contributors,omitempty"`
}

// StaticFindings is the static structure analyzer's result. Each finding is
// an evidence string (usually a path plus supporting counts).
type StaticFindings struct {
	ComplexityHotspots []string `json:"complexity_hotspots,omitempty"`
	AntiPatterns       []string `json:"anti_patterns,omitempty"`
	DocumentationGaps  []string `json:"documentation_gaps,omitempty"`
}

// HealthStatus is the dependency audit's banded status label.
type HealthStatus string

const (
	StatusExcellent HealthStatus = "excellent"
	StatusGood      HealthStatus = "good"
	StatusFair      HealthStatus = "fair"
	StatusPoor      HealthStatus = "poor"
	StatusCritical  HealthStatus = "critical"
)

// StatusForScore maps a 0-100 dependency score to its fixed band.
func StatusForScore(score int) HealthStatus {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 80:
		return StatusGood
	case score >= 60:
		return StatusFair
	case score >= 40:
		return StatusPoor
	default:
		return StatusCritical
	}
}

// DependencyMetrics holds the four dependency sub-scores, each 0-100.
type DependencyMetrics struct {
	Freshness     int `json:"freshness"`
	Vulnerability int `json:"vulnerability"`
	Maintenance   int `json:"maintenance"`
	License       int `json:"license"`
}

// DependencyTotals holds aggregate counts over all declared dependencies.
type DependencyTotals struct {
	TotalDependencies       int `json:"total_dependencies"`
	OutdatedDependencies    int `json:"outdated_dependencies"`
	VulnerableDependencies  int `json:"vulnerable_dependencies"`
	DeprecatedDependencies  int `json:"deprecated_dependencies"`
	IncompatibleLicenses    int `json:"incompatible_licenses"`
	AvgDaysOutdated         int `json:"avg_days_outdated"`
	CriticalVulnerabilities int `json:"critical_vulnerabilities"`
	HighVulnerabilities     int `json:"high_vulnerabilities"`
}

// Advisory is one known vulnerability affecting a dependency.
type Advisory struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// ProblematicDependency is a dependency flagged as outdated, vulnerable,
// deprecated, or license-incompatible.
type ProblematicDependency struct {
	Name            string     `json:"name"`
	CurrentVersion  string     `json:"current_version"`
	LatestVersion   string     `json:"latest_version"`
	DaysOutdated    int        `json:"days_outdated"`
	Vulnerabilities []Advisory `json:"vulnerabilities,omitempty"`
	License         string     `json:"license,omitempty"`
	Deprecated      bool       `json:"deprecated,omitempty"`
}

// DependencyAudit is the dependency risk analyzer's result.
// ProblematicDependencies is sorted worst-first: vulnerability count
// descending, then days outdated descending.
type DependencyAudit struct {
	Score                   int                     `json:"score"`
	HealthStatus            HealthStatus            `json:"health_status"`
	Metrics                 DependencyMetrics       `json:"metrics"`
	Totals                  DependencyTotals        `json:"totals"`
	ProblematicDependencies []ProblematicDependency `json:"problematic_dependencies,omitempty"`
}

// TestCoverageReport is the coverage analyzer's result. When no coverage
// artifact is discoverable this carries the fixed degenerate value rather
// than an error.
type TestCoverageReport struct {
	CoveragePercentage float64  `json:"coverage_percentage"`
	ReportCount        int      `json:"report_count"`
	IsLowCoverage      bool     `json:"is_low_coverage"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// AuditResult is the composite record handed to the report synthesizer.
// Constructed once per audit invocation and never mutated afterwards.
type AuditResult struct {
	ID          string    `json:"id"`
	Repository  string    `json:"repository"`
	GeneratedAt time.Time `json:"generated_at"`

	Health          HealthAssessment    `json:"health"`
	Profile         *RepositoryProfile  `json:"profile,omitempty"`
	GitInsight      *GitInsight         `json:"git_insight,omitempty"`
	StaticFindings  *StaticFindings     `json:"static_findings,omitempty"`
	DependencyAudit *DependencyAudit    `json:"dependency_audit,omitempty"`
	TestCoverage    *TestCoverageReport `json:"test_coverage,omitempty"`
}
