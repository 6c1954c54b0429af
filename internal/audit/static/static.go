// Package static scans source files for complexity hotspots, anti-pattern
// markers, and documentation gaps using a depth-bounded tree traversal.
package static

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

// branchDensityThreshold is the pattern-hits-per-line ratio above which a
// file is flagged even when it is short.
const branchDensityThreshold = 0.25

// markerPatterns are the subset of scan patterns that indicate deferred
// work rather than branching structure.
var markerPatterns = map[string]bool{"TODO": true, "FIXME": true, "HACK": true, "XXX": true}

// docRootCandidates are top-level directories whose presence without any
// markdown content counts as a documentation gap.
var docRootCandidates = []string{"docs", "doc"}

// Analyzer walks the repository tree and tallies pattern occurrences per
// source file.
type Analyzer struct {
	src    github.Source
	cfg    config.StaticConfig
	depth  int
	logger *slog.Logger
}

// NewAnalyzer creates a static analyzer. depth bounds the tree traversal
// (valid values 1 through 5).
func NewAnalyzer(src github.Source, cfg config.StaticConfig, depth int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{src: src, cfg: cfg, depth: depth, logger: logger}
}

// fileStats is the exact, reproducible tally taken for one scanned file.
type fileStats struct {
	path        string
	lines       int
	patternHits int // structural patterns only
	markerHits  int // TODO/FIXME/HACK style markers
}

// Analyze traverses the tree to the configured depth, scans matching
// source files, and reports findings as evidence strings. Files that fail
// to fetch are skipped, not fatal.
func (a *Analyzer) Analyze(ctx context.Context) (*schema.StaticFindings, error) {
	entries, err := a.src.Tree(ctx, a.depth)
	if err != nil {
		return nil, fmt.Errorf("static: fetch tree: %w", err)
	}

	var stats []fileStats
	scanned := 0
	hasMarkdown := false
	dirs := map[string]bool{}

	for _, e := range entries {
		if e.Type == "tree" {
			dirs[e.Path] = true
			continue
		}
		ext := strings.ToLower(path.Ext(e.Path))
		if ext == ".md" {
			hasMarkdown = true
		}
		if !a.wantExtension(ext) {
			continue
		}
		if scanned >= a.cfg.MaxScannedFiles {
			continue
		}
		content, found, err := a.src.FileContent(ctx, e.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("skipping unreadable file", "path", e.Path, "err", err)
			continue
		}
		if !found {
			continue
		}
		scanned++
		stats = append(stats, a.scan(e.Path, content))
	}

	findings := &schema.StaticFindings{}
	for _, s := range stats {
		if hotspot, evidence := a.isHotspot(s); hotspot {
			findings.ComplexityHotspots = append(findings.ComplexityHotspots, evidence)
		}
		if s.markerHits > 0 {
			findings.AntiPatterns = append(findings.AntiPatterns,
				fmt.Sprintf("%s: %d deferred-work markers", s.path, s.markerHits))
		}
	}
	findings.DocumentationGaps = a.documentationGaps(stats, dirs, hasMarkdown)
	return findings, nil
}

func (a *Analyzer) wantExtension(ext string) bool {
	for _, want := range a.cfg.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// scan counts lines and pattern occurrences in one file's raw text.
func (a *Analyzer) scan(filePath, content string) fileStats {
	s := fileStats{path: filePath, lines: countLines(content)}
	for _, pattern := range a.cfg.Patterns {
		hits := strings.Count(content, pattern)
		if hits == 0 {
			continue
		}
		if markerPatterns[strings.TrimSpace(pattern)] {
			s.markerHits += hits
		} else {
			s.patternHits += hits
		}
	}
	return s
}

// isHotspot flags files that are long, or short but saturated with
// branching patterns.
func (a *Analyzer) isHotspot(s fileStats) (bool, string) {
	if s.lines >= a.cfg.HotspotLines {
		return true, fmt.Sprintf("%s: %d lines, %d branch patterns", s.path, s.lines, s.patternHits)
	}
	if s.lines > 0 && float64(s.patternHits)/float64(s.lines) > branchDensityThreshold {
		return true, fmt.Sprintf("%s: %d branch patterns in %d lines", s.path, s.patternHits, s.lines)
	}
	return false, ""
}

// documentationGaps reports source directories with no markdown anywhere in
// the scanned tree, plus doc directories that exist but hold nothing.
func (a *Analyzer) documentationGaps(stats []fileStats, dirs map[string]bool, hasMarkdown bool) []string {
	var gaps []string
	if len(stats) > 0 && !hasMarkdown {
		gaps = append(gaps, "no markdown documentation found in scanned tree")
	}
	for _, candidate := range docRootCandidates {
		if !dirs[candidate] {
			continue
		}
		populated := false
		for _, s := range stats {
			if strings.HasPrefix(s.path, candidate+"/") {
				populated = true
				break
			}
		}
		if !populated && !hasMarkdown {
			gaps = append(gaps, candidate+"/: directory present but no documentation files found")
		}
	}
	return gaps
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
