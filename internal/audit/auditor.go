// Package audit wires the analyzers into the conditional audit pipeline:
// the health scorer runs first, and the deep-audit analyzers run in
// parallel only when the score falls below the configured threshold.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/coverage"
	"github.com/build-flow-labs/repoaudit/internal/audit/deps"
	"github.com/build-flow-labs/repoaudit/internal/audit/detect"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/health"
	"github.com/build-flow-labs/repoaudit/internal/audit/history"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
	"github.com/build-flow-labs/repoaudit/internal/audit/static"
)

// Auditor runs the full pipeline for one repository. All collaborators
// are injected at construction and scoped to one Run invocation.
type Auditor struct {
	cfg    *config.Config
	logger *slog.Logger

	assess      func(ctx context.Context) (schema.HealthAssessment, error)
	runProfile  func(ctx context.Context) (*schema.RepositoryProfile, error)
	runHistory  func(ctx context.Context) (*schema.GitInsight, error)
	runStatic   func(ctx context.Context) (*schema.StaticFindings, error)
	runDeps     func(ctx context.Context) (*schema.DependencyAudit, error)
	runCoverage func(ctx context.Context) (*schema.TestCoverageReport, error)
}

// NewAuditor wires the health scorer and the five deep-audit analyzers
// over one repository data source.
func NewAuditor(src github.Source, cfg *config.Config, registry deps.MetadataSource, vulns deps.VulnFeed, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	scorer := health.NewScorer(src, cfg.HealthThreshold, cfg.Health)
	detector := detect.NewDetector(src, cfg.Detect, cfg.AnalysisDepth)
	historian := history.NewAnalyzer(src, cfg.History)
	structure := static.NewAnalyzer(src, cfg.Static, cfg.AnalysisDepth, logger)
	depAuditor := deps.NewAnalyzer(src, cfg.Dependencies, registry, vulns, logger)
	coverer := coverage.NewAnalyzer(src, cfg.Coverage, cfg.AnalysisDepth, logger)

	return &Auditor{
		cfg:         cfg,
		logger:      logger,
		assess:      scorer.Assess,
		runProfile:  detector.Detect,
		runHistory:  historian.Analyze,
		runStatic:   structure.Analyze,
		runDeps:     depAuditor.Analyze,
		runCoverage: coverer.Analyze,
	}
}

// Run executes the pipeline: health assessment, conditional parallel
// deep audit, merge. A failed deep-audit analyzer is isolated — its
// section is absent and the rest of the result is still produced. Only
// the health assessment itself is pipeline-fatal.
func (a *Auditor) Run(ctx context.Context, ref Ref) (*schema.AuditResult, error) {
	assessment, err := a.assess(ctx)
	if err != nil {
		return nil, fmt.Errorf("health assessment for %s: %w", ref, err)
	}
	a.logger.Info("health assessed",
		"repository", ref.String(), "score", assessment.Score, "summary", assessment.Summary)

	if assessment.Score >= a.cfg.HealthThreshold {
		return Merge(ref, assessment, Outcomes{
			Profile:  SkippedOutcome[schema.RepositoryProfile](),
			History:  SkippedOutcome[schema.GitInsight](),
			Static:   SkippedOutcome[schema.StaticFindings](),
			Deps:     SkippedOutcome[schema.DependencyAudit](),
			Coverage: SkippedOutcome[schema.TestCoverageReport](),
		}), nil
	}

	outcomes := a.deepAudit(ctx, ref)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return Merge(ref, assessment, outcomes), nil
}

// deepAudit fans the five analyzers out concurrently and captures each
// terminal state. Goroutines never propagate analyzer errors: a failure
// becomes a Failed outcome so the remaining sections survive.
func (a *Auditor) deepAudit(ctx context.Context, ref Ref) Outcomes {
	var outcomes Outcomes
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		outcomes.Profile = capture(a, gctx, ref, "detect", a.runProfile)
		return nil
	})
	g.Go(func() error {
		outcomes.History = capture(a, gctx, ref, "history", a.runHistory)
		return nil
	})
	g.Go(func() error {
		outcomes.Static = capture(a, gctx, ref, "static", a.runStatic)
		return nil
	})
	g.Go(func() error {
		outcomes.Deps = capture(a, gctx, ref, "dependencies", a.runDeps)
		return nil
	})
	g.Go(func() error {
		outcomes.Coverage = capture(a, gctx, ref, "coverage", a.runCoverage)
		return nil
	})

	// Workers capture failures as outcomes instead of returning them.
	_ = g.Wait()
	return outcomes
}

func capture[T any](a *Auditor, ctx context.Context, ref Ref, name string, run func(context.Context) (*T, error)) Outcome[T] {
	result, err := run(ctx)
	if err != nil {
		a.logger.Warn("analyzer failed", "analyzer", name, "repository", ref.String(), "err", err)
		return FailedOutcome[T](err)
	}
	return CompletedOutcome(result)
}
