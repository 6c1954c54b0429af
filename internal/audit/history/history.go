// Package history analyzes recent commit activity and contributor
// concentration.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

// OrphanDetector locates paths that look abandoned. Implementations decide
// what staleness signal to use; when no signal is available they return an
// empty list, never a guess.
type OrphanDetector interface {
	Orphans(ctx context.Context, src github.Source) ([]string, error)
}

// noSignalDetector is the default detector. The commit listing endpoint
// gives no per-path staleness data, so it reports nothing.
type noSignalDetector struct{}

func (noSignalDetector) Orphans(context.Context, github.Source) ([]string, error) {
	return nil, nil
}

// Analyzer builds a GitInsight from a bounded commit sample and the
// contributor list.
type Analyzer struct {
	src     github.Source
	cfg     config.HistoryConfig
	orphans OrphanDetector
}

// NewAnalyzer creates a history analyzer with the default orphan detector.
func NewAnalyzer(src github.Source, cfg config.HistoryConfig) *Analyzer {
	return &Analyzer{src: src, cfg: cfg, orphans: noSignalDetector{}}
}

// WithOrphanDetector swaps the orphan detection strategy.
func (a *Analyzer) WithOrphanDetector(d OrphanDetector) *Analyzer {
	a.orphans = d
	return a
}

// Analyze samples the most recent commits and classifies activity. It
// returns an error only when the commit log itself is unreachable; a
// contributor listing failure degrades to an empty ranking.
func (a *Analyzer) Analyze(ctx context.Context) (*schema.GitInsight, error) {
	commits, err := a.src.ListCommits(ctx, a.cfg.CommitSampleSize, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("history: list commits: %w", err)
	}

	frequency := schema.FrequencyModerate
	if len(commits) > a.cfg.ActiveCommitThreshold {
		frequency = schema.FrequencyActive
	}

	insight := &schema.GitInsight{CommitFrequency: frequency}

	contributors, err := a.src.ListContributors(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		contributors = nil
	}

	insight.BusFactor = busFactor(len(contributors), a.cfg.BusFactorCap)
	insight.Contributors = rank(contributors, a.cfg.TopContributors)

	orphaned, err := a.orphans.Orphans(ctx, a.src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		orphaned = nil
	}
	insight.OrphanedPaths = orphaned

	return insight, nil
}

// busFactor is a crude concentration signal: contributor count capped at a
// small constant, not a distribution measure.
func busFactor(contributors, limit int) int {
	if contributors < limit {
		return contributors
	}
	return limit
}

// rank returns the top-n contributors by commit count descending, login
// ascending on ties for a stable order.
func rank(contributors []github.Contributor, n int) []schema.ContributorStat {
	if len(contributors) == 0 {
		return nil
	}
	sorted := make([]github.Contributor, len(contributors))
	copy(sorted, contributors)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CommitCount != sorted[j].CommitCount {
			return sorted[i].CommitCount > sorted[j].CommitCount
		}
		return sorted[i].Login < sorted[j].Login
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	stats := make([]schema.ContributorStat, len(sorted))
	for i, c := range sorted {
		stats[i] = schema.ContributorStat{Login: c.Login, CommitCount: c.CommitCount}
	}
	return stats
}
