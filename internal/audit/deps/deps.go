// Package deps audits the declared dependency set of a repository's
// primary manifest: freshness, known vulnerabilities, maintenance status,
// and license compatibility, combined into one banded score.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
	"github.com/build-flow-labs/repoaudit/internal/audit/score"
	"github.com/build-flow-labs/repoaudit/manifest"
)

// osvEcosystems maps manifest ecosystem names to the vulnerability feed's
// naming.
var osvEcosystems = map[string]string{
	"npm":    "npm",
	"python": "PyPI",
	"cargo":  "crates.io",
	"hex":    "Hex",
	"gem":    "RubyGems",
}

// Analyzer runs the dependency risk audit.
type Analyzer struct {
	src      github.Source
	cfg      config.DependenciesConfig
	registry MetadataSource
	vulns    VulnFeed
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyzer creates a dependency analyzer over the given metadata and
// vulnerability sources.
func NewAnalyzer(src github.Source, cfg config.DependenciesConfig, registry MetadataSource, vulns VulnFeed, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		src:      src,
		cfg:      cfg,
		registry: registry,
		vulns:    vulns,
		logger:   logger,
		now:      time.Now,
	}
}

// depReport is the per-dependency lookup outcome. info is nil when the
// metadata lookup failed; advisories are gathered independently.
type depReport struct {
	dep          manifest.Dependency
	info         *PackageInfo
	advisories   []schema.Advisory
	outdated     bool
	daysOutdated int
	incompatible bool
}

// Analyze parses the primary manifest and audits every declared dependency
// concurrently. Metadata and advisory lookups fail independently per
// dependency; a failure is logged and the audit continues with what it has.
func (a *Analyzer) Analyze(ctx context.Context) (*schema.DependencyAudit, error) {
	if err := a.cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("deps: %w", err)
	}

	declared, err := a.declaredDependencies(ctx)
	if err != nil {
		return nil, err
	}
	if len(declared) == 0 {
		return a.emptyAudit()
	}

	reports := make([]depReport, len(declared))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.LookupConcurrency)
	for i, dep := range declared {
		i, dep := i, dep
		g.Go(func() error {
			reports[i] = a.auditOne(gctx, dep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return a.assemble(reports)
}

// declaredDependencies parses the highest-priority manifest present.
func (a *Analyzer) declaredDependencies(ctx context.Context) ([]manifest.Dependency, error) {
	for _, p := range manifest.Parsers() {
		content, found, err := a.src.FileContent(ctx, p.Filename())
		if err != nil {
			return nil, fmt.Errorf("deps: fetch %s: %w", p.Filename(), err)
		}
		if !found {
			continue
		}
		deps, err := p.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("deps: parse %s: %w", p.Filename(), err)
		}
		return deps, nil
	}
	return nil, nil
}

// auditOne queries metadata and advisories for one dependency. The two
// lookups fail independently: a dependency with no reachable metadata
// source still gets its advisories counted, and vice versa.
func (a *Analyzer) auditOne(ctx context.Context, dep manifest.Dependency) depReport {
	r := depReport{dep: dep}
	current := baseVersion(dep.Declared)

	info, err := a.registry.Lookup(ctx, dep.Ecosystem, dep.Name)
	if err != nil {
		a.logger.Warn("dependency metadata lookup failed, continuing without metadata", "dependency", dep.Name, "err", err)
	} else {
		r.info = info
		r.outdated = semverLess(current, info.LatestVersion)
		if r.outdated && !info.LatestPublished.IsZero() {
			if days := int(a.now().Sub(info.LatestPublished).Hours() / 24); days > 0 {
				r.daysOutdated = days
			}
		}
		r.incompatible = a.licenseIncompatible(info.License)
	}

	advisories, err := a.vulns.Advisories(ctx, osvEcosystems[dep.Ecosystem], dep.Name, current)
	if err != nil {
		a.logger.Warn("vulnerability lookup failed, continuing without advisories", "dependency", dep.Name, "err", err)
	} else {
		r.advisories = advisories
	}
	return r
}

// assemble computes totals, the four sub-metrics, and the combined banded
// score from the per-dependency reports.
func (a *Analyzer) assemble(reports []depReport) (*schema.DependencyAudit, error) {
	totals := schema.DependencyTotals{TotalDependencies: len(reports)}
	var problematic []schema.ProblematicDependency
	daysSum := 0
	otherAdvisories := 0

	for _, r := range reports {
		deprecated := r.info != nil && r.info.Deprecated
		if r.outdated {
			totals.OutdatedDependencies++
			daysSum += r.daysOutdated
		}
		if len(r.advisories) > 0 {
			totals.VulnerableDependencies++
		}
		if deprecated {
			totals.DeprecatedDependencies++
		}
		if r.incompatible {
			totals.IncompatibleLicenses++
		}
		for _, adv := range r.advisories {
			switch adv.Severity {
			case "critical":
				totals.CriticalVulnerabilities++
			case "high":
				totals.HighVulnerabilities++
			default:
				otherAdvisories++
			}
		}

		if r.outdated || len(r.advisories) > 0 || deprecated || r.incompatible {
			entry := schema.ProblematicDependency{
				Name:            r.dep.Name,
				CurrentVersion:  baseVersion(r.dep.Declared),
				DaysOutdated:    r.daysOutdated,
				Vulnerabilities: r.advisories,
				Deprecated:      deprecated,
			}
			if r.info != nil {
				entry.LatestVersion = r.info.LatestVersion
				entry.License = r.info.License
			}
			problematic = append(problematic, entry)
		}
	}

	if totals.OutdatedDependencies > 0 {
		totals.AvgDaysOutdated = daysSum / totals.OutdatedDependencies
	}

	// Worst first: vulnerability count descending, then staleness.
	sort.SliceStable(problematic, func(i, j int) bool {
		if len(problematic[i].Vulnerabilities) != len(problematic[j].Vulnerabilities) {
			return len(problematic[i].Vulnerabilities) > len(problematic[j].Vulnerabilities)
		}
		return problematic[i].DaysOutdated > problematic[j].DaysOutdated
	})

	total := totals.TotalDependencies
	metrics := schema.DependencyMetrics{
		Freshness:     ratioMetric(totals.OutdatedDependencies, total),
		Vulnerability: floor0(100 - (5*totals.CriticalVulnerabilities + 3*totals.HighVulnerabilities + otherAdvisories)),
		Maintenance:   ratioMetric(totals.DeprecatedDependencies, total),
		License:       ratioMetric(totals.IncompatibleLicenses, total),
	}

	combined, err := score.Combine(map[string]float64{
		"freshness":     float64(metrics.Freshness) / 100,
		"vulnerability": float64(metrics.Vulnerability) / 100,
		"maintenance":   float64(metrics.Maintenance) / 100,
		"license":       float64(metrics.License) / 100,
	}, a.cfg.Weights.Map())
	if err != nil {
		return nil, fmt.Errorf("deps: combine metrics: %w", err)
	}

	return &schema.DependencyAudit{
		Score:                   combined,
		HealthStatus:            schema.StatusForScore(combined),
		Metrics:                 metrics,
		Totals:                  totals,
		ProblematicDependencies: problematic,
	}, nil
}

// emptyAudit is the result for a repository with no parseable manifest: no
// declared dependencies carry no dependency risk.
func (a *Analyzer) emptyAudit() (*schema.DependencyAudit, error) {
	metrics := schema.DependencyMetrics{Freshness: 100, Vulnerability: 100, Maintenance: 100, License: 100}
	combined, err := score.Combine(map[string]float64{
		"freshness": 1, "vulnerability": 1, "maintenance": 1, "license": 1,
	}, a.cfg.Weights.Map())
	if err != nil {
		return nil, fmt.Errorf("deps: combine metrics: %w", err)
	}
	return &schema.DependencyAudit{
		Score:        combined,
		HealthStatus: schema.StatusForScore(combined),
		Metrics:      metrics,
	}, nil
}

func (a *Analyzer) licenseIncompatible(license string) bool {
	if license == "" {
		return false
	}
	upper := strings.ToUpper(license)
	for _, family := range a.cfg.DisallowedLicenses {
		if strings.Contains(upper, strings.ToUpper(family)) {
			return true
		}
	}
	return false
}

// baseVersion strips range operators from a declared version so it can be
// compared and queried as a concrete version.
func baseVersion(declared string) string {
	v := strings.TrimSpace(declared)
	v = strings.TrimLeft(v, "^~><=!")
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, " ,"); i >= 0 {
		v = v[:i]
	}
	return v
}

// semverLess reports whether a is semantically older than b. Versions that
// do not parse as semver are never reported outdated.
func semverLess(a, b string) bool {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if !semver.IsValid(va) || !semver.IsValid(vb) {
		return false
	}
	return semver.Compare(va, vb) < 0
}

// ratioMetric is 100 - 100*(count/total), computed in float64 and rounded
// so a single bad dependency in a large set still registers.
func ratioMetric(count, total int) int {
	return floor0(int(math.Round(100 - 100*float64(count)/float64(total))))
}

func floor0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
