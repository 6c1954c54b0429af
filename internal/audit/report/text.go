package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

var (
	goodColor = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	badColor  = color.New(color.FgRed)
)

// TextSynthesizer renders the audit as a formatted terminal report.
type TextSynthesizer struct{}

// NewTextSynthesizer creates the terminal renderer.
func NewTextSynthesizer() *TextSynthesizer { return &TextSynthesizer{} }

func (s *TextSynthesizer) Render(out io.Writer, result *schema.AuditResult) error {
	fmt.Fprintf(out, "REPOSITORY AUDIT: %s  [%s] %d/100\n",
		result.Repository, summaryLabel(result.Health.Summary), result.Health.Score)
	fmt.Fprintf(out, "Generated %s (%s)\n",
		result.GeneratedAt.Format("2006-01-02 15:04 UTC"), humanize.Time(result.GeneratedAt))
	fmt.Fprintln(out, strings.Repeat("─", 60))

	if result.Health.Summary == schema.SummaryHealthy && result.Profile == nil {
		fmt.Fprintln(out, "Health score cleared the audit threshold; deep audit skipped.")
		return nil
	}

	if result.Profile != nil {
		s.renderProfile(out, result.Profile)
	}
	if result.GitInsight != nil {
		s.renderGitInsight(out, result.GitInsight)
	}
	if result.StaticFindings != nil {
		s.renderStaticFindings(out, result.StaticFindings)
	}
	if result.DependencyAudit != nil {
		s.renderDependencyAudit(out, result.DependencyAudit)
	}
	if result.TestCoverage != nil {
		s.renderCoverage(out, result.TestCoverage)
	}
	return nil
}

func (s *TextSynthesizer) renderProfile(out io.Writer, p *schema.RepositoryProfile) {
	fmt.Fprintln(out, "\nPROFILE")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Type\t%s\n", p.Type)
	if len(p.Languages) > 0 {
		fmt.Fprintf(w, "  Languages\t%s\n", strings.Join(p.Languages, ", "))
	}
	if len(p.Frameworks) > 0 {
		fmt.Fprintf(w, "  Frameworks\t%s\n", strings.Join(p.Frameworks, ", "))
	}
	if p.PackageManager != "" {
		fmt.Fprintf(w, "  Package manager\t%s\n", p.PackageManager)
	}
	fmt.Fprintf(w, "  Confidence\t%.2f\n", p.Confidence)
	w.Flush()
	for _, warning := range p.Warnings {
		fmt.Fprintf(out, "  %s %s\n", warnColor.Sprint("!"), warning)
	}
}

func (s *TextSynthesizer) renderGitInsight(out io.Writer, g *schema.GitInsight) {
	fmt.Fprintln(out, "\nGIT HISTORY")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Commit frequency\t%s\n", g.CommitFrequency)
	fmt.Fprintf(w, "  Bus factor\t%d\n", g.BusFactor)
	w.Flush()
	if len(g.Contributors) > 0 {
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "  CONTRIBUTOR\tCOMMITS\n")
		for _, c := range g.Contributors {
			fmt.Fprintf(w, "  %s\t%d\n", c.Login, c.CommitCount)
		}
		w.Flush()
	}
	for _, path := range g.OrphanedPaths {
		fmt.Fprintf(out, "  orphaned: %s\n", path)
	}
}

func (s *TextSynthesizer) renderStaticFindings(out io.Writer, f *schema.StaticFindings) {
	fmt.Fprintln(out, "\nSTRUCTURE")
	if len(f.ComplexityHotspots)+len(f.AntiPatterns)+len(f.DocumentationGaps) == 0 {
		fmt.Fprintln(out, "  no structural findings")
		return
	}
	for _, h := range f.ComplexityHotspots {
		fmt.Fprintf(out, "  hotspot: %s\n", h)
	}
	for _, p := range f.AntiPatterns {
		fmt.Fprintf(out, "  anti-pattern: %s\n", p)
	}
	for _, g := range f.DocumentationGaps {
		fmt.Fprintf(out, "  doc gap: %s\n", g)
	}
}

func (s *TextSynthesizer) renderDependencyAudit(out io.Writer, d *schema.DependencyAudit) {
	fmt.Fprintf(out, "\nDEPENDENCIES  [%s] %d/100\n", statusLabel(d.HealthStatus), d.Score)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Freshness\t%d\tVulnerability\t%d\n", d.Metrics.Freshness, d.Metrics.Vulnerability)
	fmt.Fprintf(w, "  Maintenance\t%d\tLicense\t%d\n", d.Metrics.Maintenance, d.Metrics.License)
	w.Flush()
	t := d.Totals
	fmt.Fprintf(out, "  %d dependencies: %d outdated, %d vulnerable, %d deprecated, %d license conflicts\n",
		t.TotalDependencies, t.OutdatedDependencies, t.VulnerableDependencies,
		t.DeprecatedDependencies, t.IncompatibleLicenses)

	if len(d.ProblematicDependencies) > 0 {
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "  DEPENDENCY\tCURRENT\tLATEST\tDAYS BEHIND\tADVISORIES\n")
		for _, p := range d.ProblematicDependencies {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\n",
				p.Name, p.CurrentVersion, p.LatestVersion, p.DaysOutdated, len(p.Vulnerabilities))
		}
		w.Flush()
	}
}

func (s *TextSynthesizer) renderCoverage(out io.Writer, c *schema.TestCoverageReport) {
	label := goodColor.Sprintf("%.1f%%", c.CoveragePercentage)
	if c.IsLowCoverage {
		label = badColor.Sprintf("%.1f%%", c.CoveragePercentage)
	}
	fmt.Fprintf(out, "\nTEST COVERAGE  %s across %d report(s)\n", label, c.ReportCount)
	for _, rec := range c.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
}

func summaryLabel(s schema.HealthSummary) string {
	if s == schema.SummaryHealthy {
		return goodColor.Sprint(string(s))
	}
	return warnColor.Sprint(string(s))
}

func statusLabel(s schema.HealthStatus) string {
	switch s {
	case schema.StatusExcellent, schema.StatusGood:
		return goodColor.Sprint(string(s))
	case schema.StatusFair:
		return warnColor.Sprint(string(s))
	}
	return badColor.Sprint(string(s))
}
