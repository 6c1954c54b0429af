// Package coverage discovers test coverage artifacts in the repository
// tree and averages their reported percentages.
package coverage

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

// noReportsRecommendation is the fixed advice attached to the degenerate
// zero-report result.
const noReportsRecommendation = "no coverage reports found; add coverage reporting to your test runs"

// Analyzer locates and parses coverage report files.
type Analyzer struct {
	src    github.Source
	cfg    config.CoverageConfig
	depth  int
	logger *slog.Logger
}

// NewAnalyzer creates a coverage analyzer. depth bounds the artifact
// search.
func NewAnalyzer(src github.Source, cfg config.CoverageConfig, depth int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{src: src, cfg: cfg, depth: depth, logger: logger}
}

// Analyze searches the tree for files matching the configured report
// names, parses each, and averages the percentages. Zero discovered
// reports yields the fixed degenerate result, never an error; malformed
// reports are skipped individually.
func (a *Analyzer) Analyze(ctx context.Context) (*schema.TestCoverageReport, error) {
	entries, err := a.src.Tree(ctx, a.depth)
	if err != nil {
		return nil, fmt.Errorf("coverage: fetch tree: %w", err)
	}

	var reports []*report
	for _, e := range entries {
		if e.Type != "blob" || !a.wantFile(path.Base(e.Path)) {
			continue
		}
		content, found, err := a.src.FileContent(ctx, e.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("skipping unreadable coverage report", "path", e.Path, "err", err)
			continue
		}
		if !found {
			continue
		}
		r, err := parseReport(path.Base(e.Path), content)
		if err != nil {
			a.logger.Warn("skipping malformed coverage report", "path", e.Path, "err", err)
			continue
		}
		reports = append(reports, r)
	}

	if len(reports) == 0 {
		return &schema.TestCoverageReport{
			CoveragePercentage: 0,
			ReportCount:        0,
			IsLowCoverage:      true,
			Recommendations:    []string{noReportsRecommendation},
		}, nil
	}

	// Simple arithmetic mean across reports, not weighted by line counts.
	sum := 0.0
	for _, r := range reports {
		sum += r.percentage
	}
	avg := sum / float64(len(reports))

	out := &schema.TestCoverageReport{
		CoveragePercentage: avg,
		ReportCount:        len(reports),
		IsLowCoverage:      avg < a.cfg.LowThreshold,
	}
	if out.IsLowCoverage {
		out.Recommendations = append(out.Recommendations,
			fmt.Sprintf("coverage %.1f%% is below the %.0f%% target; prioritize tests for untested paths", avg, a.cfg.LowThreshold))
	}
	return out, nil
}

func (a *Analyzer) wantFile(base string) bool {
	for _, pattern := range a.cfg.FilePatterns {
		if base == pattern {
			return true
		}
	}
	return false
}
