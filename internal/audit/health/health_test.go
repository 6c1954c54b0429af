package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/github/githubtest"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newScorer(src github.Source) *Scorer {
	s := NewScorer(src, config.DefaultHealthThreshold, config.Default().Health)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAssessHealthyRepo(t *testing.T) {
	fake := &githubtest.Fake{
		Files: map[string]string{
			"README.md":    "# demo",
			"LICENSE":      "MIT",
			"package.json": `{"dependencies": {"express": "^4.18.0"}}`,
		},
		Dirs: []string{".github/workflows"},
		Commits: []github.Commit{
			{SHA: "abc", Date: fixedNow.Add(-24 * time.Hour)},
		},
		Meta: github.Metadata{OpenIssues: 2},
	}

	got, err := newScorer(fake).Assess(context.Background())
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if got.Summary != schema.SummaryHealthy {
		t.Errorf("Summary = %q (score %d), want healthy", got.Summary, got.Score)
	}
	if got.Score < 80 || got.Score > 100 {
		t.Errorf("Score = %d, want [80,100]", got.Score)
	}
}

func TestAssessNeglectedRepo(t *testing.T) {
	fake := &githubtest.Fake{
		Commits: []github.Commit{
			{SHA: "old", Date: fixedNow.Add(-400 * 24 * time.Hour)},
		},
		Meta: github.Metadata{OpenIssues: 90},
	}

	got, err := newScorer(fake).Assess(context.Background())
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if got.Summary != schema.SummaryNeedsAudit {
		t.Errorf("Summary = %q (score %d), want needs-audit", got.Summary, got.Score)
	}
}

// Increasing the days since last commit must never increase the activity
// sub-metric.
func TestActivityMonotonic(t *testing.T) {
	previous := 2.0
	for _, days := range []int{0, 10, 100, 200, 364, 365, 400, 1000} {
		fake := &githubtest.Fake{
			Commits: []github.Commit{
				{SHA: "x", Date: fixedNow.Add(-time.Duration(days) * 24 * time.Hour)},
			},
		}
		got := newScorer(fake).activityMetric(context.Background())
		if got > previous {
			t.Fatalf("activityMetric at %d days = %v, increased from %v", days, got, previous)
		}
		if got < 0 || got > 1 {
			t.Fatalf("activityMetric at %d days = %v, out of [0,1]", days, got)
		}
		previous = got
	}
}

// A lookup failure on the README check yields hasReadme=false, never an
// error out of the scorer.
func TestMissingReadmeIsNotAnError(t *testing.T) {
	fake := &githubtest.Fake{
		Files: map[string]string{"LICENSE": "MIT"},
		Commits: []github.Commit{
			{SHA: "abc", Date: fixedNow.Add(-24 * time.Hour)},
		},
	}

	got := newScorer(fake).documentationMetric(context.Background())
	if got != 0.3 {
		t.Errorf("documentationMetric = %v, want 0.3 (LICENSE only)", got)
	}
}

// Documentation conventions other than README.md/LICENSE still count.
func TestDocumentationMetricConventions(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  float64
	}{
		{"rst readme", map[string]string{"README.rst": "demo"}, 0.7},
		{"bare readme", map[string]string{"README": "demo"}, 0.7},
		{"lowercase readme", map[string]string{"readme.md": "demo"}, 0.7},
		{"license markdown", map[string]string{"LICENSE.md": "MIT"}, 0.3},
		{"copying", map[string]string{"COPYING": "GPL"}, 0.3},
		{"rst and txt license", map[string]string{"README.rst": "demo", "LICENSE.txt": "MIT"}, 1},
		{"nothing", map[string]string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &githubtest.Fake{Files: tt.files}
			got := newScorer(fake).documentationMetric(context.Background())
			if got != tt.want {
				t.Errorf("documentationMetric = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransientFailureDegrades(t *testing.T) {
	fake := &githubtest.Fake{
		Files: map[string]string{"README.md": "# demo"},
		Errors: map[string]error{
			"commits":  &github.TransientError{Op: "commits", Err: errors.New("rate limited")},
			"metadata": &github.TransientError{Op: "repo", Err: errors.New("rate limited")},
		},
	}

	got, err := newScorer(fake).Assess(context.Background())
	if err != nil {
		t.Fatalf("Assess() error = %v, want graceful degradation", err)
	}
	if got.Summary != schema.SummaryNeedsAudit {
		t.Errorf("Summary = %q, want needs-audit when activity and issues degrade", got.Summary)
	}
}

func TestAssessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScorer(&githubtest.Fake{}).Assess(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Assess() error = %v, want context.Canceled", err)
	}
}

func TestIssueMetricSaturates(t *testing.T) {
	tests := []struct {
		issues int
		want   float64
	}{
		{0, 1},
		{25, 0.5},
		{50, 0},
		{500, 0},
	}
	for _, tt := range tests {
		fake := &githubtest.Fake{Meta: github.Metadata{OpenIssues: tt.issues}}
		got := newScorer(fake).issueMetric(context.Background())
		if got != tt.want {
			t.Errorf("issueMetric with %d issues = %v, want %v", tt.issues, got, tt.want)
		}
	}
}
