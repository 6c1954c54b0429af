package history

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

func historyConfig() config.HistoryConfig {
	return config.HistoryConfig{
		CommitSampleSize:      100,
		ActiveCommitThreshold: 50,
		BusFactorCap:          3,
		TopContributors:       5,
	}
}

func makeCommits(n int) []github.Commit {
	commits := make([]github.Commit, n)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range commits {
		commits[i] = github.Commit{
			SHA:  string(rune('a'+i%26)) + "0000000",
			Date: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return commits
}

func TestAnalyzeFrequency(t *testing.T) {
	tests := []struct {
		name    string
		commits int
		want    schema.CommitFrequency
	}{
		{"empty history", 0, schema.FrequencyModerate},
		{"at threshold", 50, schema.FrequencyModerate},
		{"above threshold", 51, schema.FrequencyActive},
		{"sample saturated", 300, schema.FrequencyActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &githubtest.Fake{Commits: makeCommits(tt.commits)}
			insight, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background())
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if insight.CommitFrequency != tt.want {
				t.Errorf("CommitFrequency = %q, want %q", insight.CommitFrequency, tt.want)
			}
		})
	}
}

func TestAnalyzeBusFactorCapped(t *testing.T) {
	tests := []struct {
		contributors int
		want         int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{12, 3},
	}
	for _, tt := range tests {
		contributors := make([]github.Contributor, tt.contributors)
		for i := range contributors {
			contributors[i] = github.Contributor{Login: "user" + string(rune('a'+i)), CommitCount: 10}
		}
		fake := &githubtest.Fake{Commits: makeCommits(5), Contributors: contributors}
		insight, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if insight.BusFactor != tt.want {
			t.Errorf("%d contributors: BusFactor = %d, want %d", tt.contributors, insight.BusFactor, tt.want)
		}
	}
}

func TestAnalyzeContributorRanking(t *testing.T) {
	fake := &githubtest.Fake{
		Commits: makeCommits(5),
		Contributors: []github.Contributor{
			{Login: "casual", CommitCount: 2},
			{Login: "maintainer", CommitCount: 900},
			{Login: "drive-by", CommitCount: 1},
			{Login: "bot", CommitCount: 2},
			{Login: "regular", CommitCount: 40},
			{Login: "reviewer", CommitCount: 40},
			{Login: "intern", CommitCount: 7},
		},
	}

	insight, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(insight.Contributors) != 5 {
		t.Fatalf("len(Contributors) = %d, want 5", len(insight.Contributors))
	}
	wantOrder := []string{"maintainer", "regular", "reviewer", "intern", "bot"}
	for i, want := range wantOrder {
		if insight.Contributors[i].Login != want {
			t.Errorf("Contributors[%d] = %q, want %q", i, insight.Contributors[i].Login, want)
		}
	}
}

func TestAnalyzeCommitLogFailureFatal(t *testing.T) {
	fake := &githubtest.Fake{}
	fake.Errors = map[string]error{"commits": errors.New("boom")}
	if _, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background()); err == nil {
		t.Fatal("expected error when commit log is unreachable")
	}
}

func TestAnalyzeContributorFailureDegrades(t *testing.T) {
	fake := &githubtest.Fake{Commits: makeCommits(10)}
	fake.Errors = map[string]error{"contributors": errors.New("boom")}
	insight, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if insight.BusFactor != 0 {
		t.Errorf("BusFactor = %d, want 0", insight.BusFactor)
	}
	if len(insight.Contributors) != 0 {
		t.Errorf("Contributors = %v, want empty", insight.Contributors)
	}
}

type fixedOrphans []string

func (f fixedOrphans) Orphans(context.Context, github.Source) ([]string, error) {
	return f, nil
}

func TestAnalyzeOrphanDetection(t *testing.T) {
	fake := &githubtest.Fake{Commits: makeCommits(5)}

	insight, err := NewAnalyzer(fake, historyConfig()).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(insight.OrphanedPaths) != 0 {
		t.Errorf("default detector OrphanedPaths = %v, want empty", insight.OrphanedPaths)
	}

	custom := NewAnalyzer(fake, historyConfig()).
		WithOrphanDetector(fixedOrphans{"legacy/old.js"})
	insight, err = custom.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(insight.OrphanedPaths) != 1 || insight.OrphanedPaths[0] != "legacy/old.js" {
		t.Errorf("OrphanedPaths = %v, want [legacy/old.js]", insight.OrphanedPaths)
	}
}
