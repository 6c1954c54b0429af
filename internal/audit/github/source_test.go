package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// newTestSource points a RepoSource at a local httptest server.
func newTestSource(t *testing.T, mux *http.ServeMux) *RepoSource {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := gh.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	client.BaseURL = base

	return NewRepoSourceWithClient(client, "octo", "demo")
}

func TestFileContentAbsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	src := newTestSource(t, mux)

	content, found, err := src.FileContent(context.Background(), "README.md")
	if err != nil {
		t.Fatalf("FileContent() error = %v, want nil for 404", err)
	}
	if found || content != "" {
		t.Errorf("FileContent() = (%q, %v), want absent", content, found)
	}

	exists, err := src.FileExists(context.Background(), "README.md")
	if err != nil {
		t.Fatalf("FileExists() error = %v", err)
	}
	if exists {
		t.Error("FileExists() = true for missing file")
	}
}

func TestFileContentDecodes(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("# demo\n"))
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"type":"file","path":"README.md","encoding":"base64","content":%q}`, encoded)
	})
	src := newTestSource(t, mux)

	content, found, err := src.FileContent(context.Background(), "README.md")
	if err != nil {
		t.Fatalf("FileContent() error = %v", err)
	}
	if !found || content != "# demo\n" {
		t.Errorf("FileContent() = (%q, %v), want decoded content", content, found)
	}
}

func TestTransientRetry(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"size": 1024, "archived": false, "default_branch": "main", "open_issues_count": 7}`)
	})
	src := newTestSource(t, mux)

	meta, err := src.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v after retries", err)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
	if meta.SizeKB != 1024 || meta.OpenIssues != 7 || meta.DefaultBranch != "main" {
		t.Errorf("Metadata() = %+v", meta)
	}
}

func TestTransientExhaustion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	src := newTestSource(t, mux)

	_, err := src.Metadata(context.Background())
	if err == nil {
		t.Fatal("Metadata() error = nil, want transient failure")
	}
	if !IsTransient(err) {
		t.Errorf("Metadata() error = %v, want TransientError", err)
	}
}

func TestListCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
		  {"sha":"abc","commit":{"message":"fix: bug","author":{"name":"Alice","date":"2026-08-01T10:00:00Z"}},"author":{"login":"alice"}},
		  {"sha":"def","commit":{"message":"feat: thing","author":{"name":"Bob","date":"2026-07-30T09:00:00Z"}},"author":{"login":"bob"}}
		]`)
	})
	src := newTestSource(t, mux)

	commits, err := src.ListCommits(context.Background(), 100, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("ListCommits() returned %d commits, want 2", len(commits))
	}
	if commits[0].SHA != "abc" || commits[0].AuthorLogin != "alice" || commits[0].AuthorName != "Alice" {
		t.Errorf("first commit = %+v", commits[0])
	}
	if commits[0].Date.IsZero() {
		t.Error("commit date not parsed")
	}
}

func TestListContributors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"alice","contributions":42},{"login":"bob","contributions":7}]`)
	})
	src := newTestSource(t, mux)

	contributors, err := src.ListContributors(context.Background())
	if err != nil {
		t.Fatalf("ListContributors() error = %v", err)
	}
	if len(contributors) != 2 || contributors[0].Login != "alice" || contributors[0].CommitCount != 42 {
		t.Errorf("ListContributors() = %+v", contributors)
	}
}

func TestTreeDepthFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/octo/demo/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha":"root","tree":[
		  {"path":"main.go","type":"blob","size":120},
		  {"path":"pkg","type":"tree"},
		  {"path":"pkg/util.go","type":"blob","size":300},
		  {"path":"pkg/deep/nested.go","type":"blob","size":10}
		]}`)
	})
	src := newTestSource(t, mux)

	entries, err := src.Tree(context.Background(), 2)
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	for _, e := range entries {
		if e.Path == "pkg/deep/nested.go" {
			t.Error("Tree() included entry beyond max depth")
		}
	}
	if len(entries) != 3 {
		t.Errorf("Tree() returned %d entries, want 3", len(entries))
	}
}

func TestTreeConcurrent(t *testing.T) {
	var metaCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		metaCalls.Add(1)
		fmt.Fprint(w, `{"default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/octo/demo/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha":"root","tree":[{"path":"main.go","type":"blob","size":120}]}`)
	})
	src := newTestSource(t, mux)

	// The analyzers call Tree concurrently in every deep audit; the branch
	// resolution must be race-free and happen once.
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = src.Tree(context.Background(), 2)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Tree() call %d error = %v", i, err)
		}
	}
	if metaCalls.Load() != 1 {
		t.Errorf("default branch resolved %d times, want 1", metaCalls.Load())
	}
}

func TestDepthOf(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"main.go", 1},
		{"pkg/util.go", 2},
		{"a/b/c.go", 3},
	}
	for _, tt := range tests {
		if got := depthOf(tt.path); got != tt.want {
			t.Errorf("depthOf(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}
