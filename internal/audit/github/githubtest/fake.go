// Package githubtest provides an in-memory Source implementation for
// analyzer tests.
package githubtest

import (
	"context"
	"strings"
	"time"

	"github.com/build-flow-labs/repoaudit/internal/audit/github"
)

// Fake is an in-memory github.Source. Zero value is an empty repository.
type Fake struct {
	Files        map[string]string // path -> content
	Dirs         []string          // paths that exist as directories
	Commits      []github.Commit
	Contributors []github.Contributor
	Meta         github.Metadata
	TreeEntries  []github.TreeEntry

	// Errors maps an operation key to a forced error: "commits",
	// "contributors", "metadata", "tree", or a file path.
	Errors map[string]error

	// Calls records every operation, for asserting that skipped analyzers
	// made no remote calls.
	Calls []string
}

var _ github.Source = (*Fake)(nil)

func (f *Fake) record(op string) { f.Calls = append(f.Calls, op) }

func (f *Fake) FileExists(ctx context.Context, path string) (bool, error) {
	f.record("exists:" + path)
	if err := f.Errors[path]; err != nil {
		return false, err
	}
	if _, ok := f.Files[path]; ok {
		return true, nil
	}
	for _, d := range f.Dirs {
		if d == path {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) FileContent(ctx context.Context, path string) (string, bool, error) {
	f.record("content:" + path)
	if err := f.Errors[path]; err != nil {
		return "", false, err
	}
	content, ok := f.Files[path]
	return content, ok, nil
}

func (f *Fake) ListCommits(ctx context.Context, max int, since, until time.Time) ([]github.Commit, error) {
	f.record("commits")
	if err := f.Errors["commits"]; err != nil {
		return nil, err
	}
	commits := f.Commits
	if len(commits) > max {
		commits = commits[:max]
	}
	return commits, nil
}

func (f *Fake) CountOpenIssues(ctx context.Context) (int, error) {
	f.record("issues")
	if err := f.Errors["metadata"]; err != nil {
		return 0, err
	}
	return f.Meta.OpenIssues, nil
}

func (f *Fake) ListContributors(ctx context.Context) ([]github.Contributor, error) {
	f.record("contributors")
	if err := f.Errors["contributors"]; err != nil {
		return nil, err
	}
	return f.Contributors, nil
}

func (f *Fake) Metadata(ctx context.Context) (*github.Metadata, error) {
	f.record("metadata")
	if err := f.Errors["metadata"]; err != nil {
		return nil, err
	}
	meta := f.Meta
	return &meta, nil
}

func (f *Fake) Tree(ctx context.Context, maxDepth int) ([]github.TreeEntry, error) {
	f.record("tree")
	if err := f.Errors["tree"]; err != nil {
		return nil, err
	}
	var entries []github.TreeEntry
	for _, e := range f.TreeEntries {
		if strings.Count(e.Path, "/")+1 > maxDepth {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
