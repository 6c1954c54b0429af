// Package health implements the initial health scorer whose result gates
// the deep audit.
//
// Six weighted sub-metrics, each normalized to [0,1]:
//   - activity: linear decay of days since last commit over a 365-day window
//   - issues: linear decay of open-issue count, saturating at a ceiling
//   - documentation: README/LICENSE presence, blended in favor of README
//   - dependencies: decay favoring fewer declared dependencies
//   - ci: presence of a CI configuration path
//   - coverage: count of known coverage-artifact conventions found, capped
//
// The combined score must be deterministic given identical remote state: a
// missing file contributes zero, and a transient lookup failure degrades
// that one sub-metric to zero rather than failing the assessment.
package health

import (
	"context"
	"time"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
	"github.com/build-flow-labs/repoaudit/internal/audit/score"
	"github.com/build-flow-labs/repoaudit/manifest"
)

// Sub-metric weights. They sum to 1.
var metricWeights = map[string]float64{
	"activity":      0.25,
	"issues":        0.15,
	"documentation": 0.20,
	"dependencies":  0.15,
	"ci":            0.15,
	"coverage":      0.10,
}

const (
	activityWindowDays = 365
	coverageFileCap    = 3
)

// ciPaths are checked in order; any hit marks CI as configured.
var ciPaths = []string{
	".github/workflows",
	".gitlab-ci.yml",
	".circleci/config.yml",
	"Jenkinsfile",
	".travis.yml",
}

// readmePaths and licensePaths are the filename conventions the
// documentation metric accepts, checked in order.
var readmePaths = []string{
	"README.md",
	"README.rst",
	"README",
	"readme.md",
}

var licensePaths = []string{
	"LICENSE",
	"LICENSE.md",
	"LICENSE.txt",
	"COPYING",
}

// coverageConventions are the artifact names the presence heuristic probes.
var coverageConventions = []string{
	"coverage/lcov.info",
	"lcov.info",
	"coverage.xml",
	"coverage-summary.json",
}

// Scorer computes the gate score for one repository.
type Scorer struct {
	src       github.Source
	threshold int
	cfg       config.HealthConfig
	now       func() time.Time
}

// NewScorer creates a health scorer. The threshold is the single audit gate
// shared with the orchestrator.
func NewScorer(src github.Source, threshold int, cfg config.HealthConfig) *Scorer {
	return &Scorer{src: src, threshold: threshold, cfg: cfg, now: time.Now}
}

// Assess computes the weighted health score. It returns an error only when
// the context is cancelled; remote failures degrade individual sub-metrics.
func (s *Scorer) Assess(ctx context.Context) (schema.HealthAssessment, error) {
	metrics := map[string]float64{
		"activity":      s.activityMetric(ctx),
		"issues":        s.issueMetric(ctx),
		"documentation": s.documentationMetric(ctx),
		"dependencies":  s.dependencyMetric(ctx),
		"ci":            s.ciMetric(ctx),
		"coverage":      s.coverageMetric(ctx),
	}
	if err := ctx.Err(); err != nil {
		return schema.HealthAssessment{}, err
	}

	combined, err := score.Combine(metrics, metricWeights)
	if err != nil {
		return schema.HealthAssessment{}, err
	}

	summary := schema.SummaryNeedsAudit
	if combined >= s.threshold {
		summary = schema.SummaryHealthy
	}
	return schema.HealthAssessment{Score: combined, Summary: summary}, nil
}

// activityMetric decays linearly from 1 (commit today) to 0 (a year or more
// since the last commit).
func (s *Scorer) activityMetric(ctx context.Context) float64 {
	commits, err := s.src.ListCommits(ctx, 1, time.Time{}, time.Time{})
	if err != nil || len(commits) == 0 {
		return 0
	}
	days := s.now().Sub(commits[0].Date).Hours() / 24
	return clamp01(1 - days/activityWindowDays)
}

// issueMetric decays linearly with open-issue count, saturating at the
// configured ceiling.
func (s *Scorer) issueMetric(ctx context.Context) float64 {
	count, err := s.src.CountOpenIssues(ctx)
	if err != nil {
		return 0
	}
	ceiling := s.cfg.IssueCeiling
	if ceiling <= 0 {
		ceiling = config.DefaultIssueCeiling
	}
	return clamp01(1 - float64(count)/float64(ceiling))
}

// documentationMetric blends README and LICENSE presence, favoring README.
func (s *Scorer) documentationMetric(ctx context.Context) float64 {
	value := 0.0
	if s.anyExists(ctx, readmePaths) {
		value += 0.7
	}
	if s.anyExists(ctx, licensePaths) {
		value += 0.3
	}
	return value
}

func (s *Scorer) anyExists(ctx context.Context, paths []string) bool {
	for _, path := range paths {
		if exists, err := s.src.FileExists(ctx, path); err == nil && exists {
			return true
		}
	}
	return false
}

// dependencyMetric favors fewer declared dependencies. A repository with no
// discoverable manifest declares nothing and scores full marks.
func (s *Scorer) dependencyMetric(ctx context.Context) float64 {
	ceiling := s.cfg.DependencyCeiling
	if ceiling <= 0 {
		ceiling = config.DefaultDependencyCeiling
	}
	for _, p := range manifest.Parsers() {
		content, found, err := s.src.FileContent(ctx, p.Filename())
		if err != nil || !found {
			continue
		}
		deps, err := p.Parse(content)
		if err != nil {
			continue
		}
		return clamp01(1 - float64(len(deps))/float64(ceiling))
	}
	return 1
}

func (s *Scorer) ciMetric(ctx context.Context) float64 {
	for _, path := range ciPaths {
		if exists, err := s.src.FileExists(ctx, path); err == nil && exists {
			return 1
		}
	}
	return 0
}

func (s *Scorer) coverageMetric(ctx context.Context) float64 {
	found := 0
	for _, path := range coverageConventions {
		if exists, err := s.src.FileExists(ctx, path); err == nil && exists {
			found++
			if found == coverageFileCap {
				break
			}
		}
	}
	return float64(found) / coverageFileCap
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
