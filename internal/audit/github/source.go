// Package github adapts the GitHub REST API into the Source interface the
// audit analyzers consume. Absence of a resource is a normal result, not an
// error: existence checks never fail on 404, and transient failures are
// retried a bounded number of times before surfacing.
package github

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// Commit is one entry of the repository's commit log, newest-first.
type Commit struct {
	SHA         string
	AuthorName  string
	AuthorLogin string
	Date        time.Time
	Message     string
}

// Contributor is one entry of the contributor list, ordered by commit count
// descending.
type Contributor struct {
	Login       string
	CommitCount int
}

// Metadata holds top-level repository facts.
type Metadata struct {
	SizeKB        int
	Archived      bool
	DefaultBranch string
	OpenIssues    int
}

// TreeEntry is one node of the repository file tree.
type TreeEntry struct {
	Path string
	Type string // "blob" or "tree"
	Size int
}

// Source is the repository data source consumed by all analyzers. The
// implementation is shared read-only across concurrent analyzers; no
// analyzer mutates client configuration mid-run.
type Source interface {
	// FileExists never returns ErrNotFound; a missing path is (false, nil).
	FileExists(ctx context.Context, path string) (bool, error)
	// FileContent returns the decoded file text. A missing path is
	// ("", false, nil), not an error.
	FileContent(ctx context.Context, path string) (string, bool, error)
	// ListCommits returns up to max commits, newest-first. The zero time
	// disables the corresponding bound.
	ListCommits(ctx context.Context, max int, since, until time.Time) ([]Commit, error)
	// CountOpenIssues returns the number of open issues.
	CountOpenIssues(ctx context.Context) (int, error)
	// ListContributors returns contributors ordered by commit count descending.
	ListContributors(ctx context.Context) ([]Contributor, error)
	// Metadata returns top-level repository facts.
	Metadata(ctx context.Context) (*Metadata, error)
	// Tree returns blob and tree entries up to maxDepth path segments deep.
	Tree(ctx context.Context, maxDepth int) ([]TreeEntry, error)
}

// RepoSource implements Source against one {owner, repo} via the GitHub API.
// It is safe for concurrent use by the parallel analyzers.
type RepoSource struct {
	client *gh.Client
	owner  string
	repo   string

	mu     sync.Mutex
	branch string // resolved from repo metadata on first use
}

// NewRepoSource creates a Source for one repository. An empty token uses
// unauthenticated access (low rate limits).
func NewRepoSource(ctx context.Context, token, owner, repo string) *RepoSource {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = 30 * time.Second
	}
	return &RepoSource{
		client: gh.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// NewRepoSourceWithClient creates a Source backed by a preconfigured client
// (used in tests to point at a local server).
func NewRepoSourceWithClient(client *gh.Client, owner, repo string) *RepoSource {
	return &RepoSource{client: client, owner: owner, repo: repo}
}

// classify maps a go-github error to the adapter's failure taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &TransientError{Op: op, Err: err}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden, http.StatusTooManyRequests,
			http.StatusBadGateway, http.StatusServiceUnavailable:
			return &TransientError{Op: op, Err: err}
		}
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Network-level failures (DNS, connection reset, client timeout).
	return &TransientError{Op: op, Err: err}
}

func (s *RepoSource) FileExists(ctx context.Context, path string) (bool, error) {
	_, found, err := s.FileContent(ctx, path)
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *RepoSource) FileContent(ctx context.Context, path string) (string, bool, error) {
	var content string
	var found bool

	err := withRetry(ctx, func() error {
		fc, dir, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
		if err := classify("contents "+path, err); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		if fc == nil {
			// Directory listing: the path exists but has no file body.
			found = len(dir) > 0
			return nil
		}
		text, err := fc.GetContent()
		if err != nil {
			return nil // undecodable content is treated as absent
		}
		content, found = text, true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return content, found, nil
}

func (s *RepoSource) ListCommits(ctx context.Context, max int, since, until time.Time) ([]Commit, error) {
	opts := &gh.CommitsListOptions{
		Since:       since,
		Until:       until,
		ListOptions: gh.ListOptions{PerPage: max},
	}

	var commits []Commit
	err := withRetry(ctx, func() error {
		raw, _, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, opts)
		if err := classify("commits", err); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil // empty repository
			}
			return err
		}
		commits = commits[:0]
		for _, rc := range raw {
			c := Commit{SHA: rc.GetSHA()}
			if rc.Commit != nil {
				c.Message = rc.Commit.GetMessage()
				if rc.Commit.Author != nil {
					c.AuthorName = rc.Commit.Author.GetName()
					c.Date = rc.Commit.Author.GetDate().Time
				}
			}
			if rc.Author != nil {
				c.AuthorLogin = rc.Author.GetLogin()
			}
			commits = append(commits, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(commits) > max {
		commits = commits[:max]
	}
	return commits, nil
}

func (s *RepoSource) CountOpenIssues(ctx context.Context) (int, error) {
	meta, err := s.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return meta.OpenIssues, nil
}

func (s *RepoSource) ListContributors(ctx context.Context) ([]Contributor, error) {
	opts := &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var contributors []Contributor
	err := withRetry(ctx, func() error {
		raw, _, err := s.client.Repositories.ListContributors(ctx, s.owner, s.repo, opts)
		if err := classify("contributors", err); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		contributors = contributors[:0]
		for _, c := range raw {
			contributors = append(contributors, Contributor{
				Login:       c.GetLogin(),
				CommitCount: c.GetContributions(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contributors, nil
}

func (s *RepoSource) Metadata(ctx context.Context) (*Metadata, error) {
	var meta *Metadata
	err := withRetry(ctx, func() error {
		repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
		if err := classify("repo", err); err != nil {
			return err
		}
		meta = &Metadata{
			SizeKB:        repo.GetSize(),
			Archived:      repo.GetArchived(),
			DefaultBranch: repo.GetDefaultBranch(),
			OpenIssues:    repo.GetOpenIssuesCount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// defaultBranch resolves and caches the default branch. The lock is held
// across the metadata fetch so concurrent first callers resolve it once.
func (s *RepoSource) defaultBranch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.branch != "" {
		return s.branch, nil
	}
	meta, err := s.Metadata(ctx)
	if err != nil {
		return "", err
	}
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	s.branch = branch
	return branch, nil
}

func (s *RepoSource) Tree(ctx context.Context, maxDepth int) ([]TreeEntry, error) {
	branch, err := s.defaultBranch(ctx)
	if err != nil {
		return nil, err
	}

	var entries []TreeEntry
	err = withRetry(ctx, func() error {
		tree, _, err := s.client.Git.GetTree(ctx, s.owner, s.repo, branch, true)
		if err := classify("tree", err); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		entries = entries[:0]
		for _, e := range tree.Entries {
			path := e.GetPath()
			if depthOf(path) > maxDepth {
				continue
			}
			entries = append(entries, TreeEntry{
				Path: path,
				Type: e.GetType(),
				Size: e.GetSize(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// depthOf counts path segments: "a.go" is depth 1, "pkg/a.go" is depth 2.
func depthOf(path string) int {
	return strings.Count(path, "/") + 1
}
