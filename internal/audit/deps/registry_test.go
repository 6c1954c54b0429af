package deps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRegistryLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/left-pad" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"dist-tags": {"latest": "1.3.0"},
			"time": {"1.3.0": "2024-02-01T12:00:00Z"},
			"versions": {
				"1.3.0": {"license": "MIT", "deprecated": "use padStart instead"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewRegistryClientWithBase(srv.URL, srv.Client())
	info, err := client.Lookup(context.Background(), "npm", "left-pad")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if info.LatestVersion != "1.3.0" {
		t.Errorf("LatestVersion = %q, want 1.3.0", info.LatestVersion)
	}
	if !info.Deprecated {
		t.Error("Deprecated = false, want true")
	}
	if info.License != "MIT" {
		t.Errorf("License = %q, want MIT", info.License)
	}
	want := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	if !info.LatestPublished.Equal(want) {
		t.Errorf("LatestPublished = %v, want %v", info.LatestPublished, want)
	}
}

func TestRegistryLookupErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/no-latest":
			w.Write([]byte(`{"dist-tags": {}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewRegistryClientWithBase(srv.URL, srv.Client())
	if _, err := client.Lookup(context.Background(), "npm", "ghost-package"); err == nil {
		t.Error("expected error for missing package")
	}
	if _, err := client.Lookup(context.Background(), "npm", "no-latest"); err == nil {
		t.Error("expected error for document without a latest tag")
	}
	if _, err := client.Lookup(context.Background(), "python", "django"); err == nil {
		t.Error("expected error for unsupported ecosystem")
	}
}

func TestOSVAdvisories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"vulns": [
				{"id": "GHSA-xxxx", "summary": "RCE in parser", "database_specific": {"severity": "CRITICAL"}},
				{"id": "GHSA-yyyy", "database_specific": {"severity": "MODERATE"}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewOSVClientWithURL(srv.URL, srv.Client())
	advisories, err := client.Advisories(context.Background(), "npm", "dep", "1.0.0")
	if err != nil {
		t.Fatalf("Advisories() error = %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("len(advisories) = %d, want 2", len(advisories))
	}
	if advisories[0].Severity != "critical" || advisories[0].Title != "RCE in parser" {
		t.Errorf("advisories[0] = %+v, want critical/RCE in parser", advisories[0])
	}
	if advisories[1].Severity != "moderate" || advisories[1].Title != "GHSA-yyyy" {
		t.Errorf("advisories[1] = %+v, want moderate with ID fallback title", advisories[1])
	}
}

func TestOSVNoVulns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewOSVClientWithURL(srv.URL, srv.Client())
	advisories, err := client.Advisories(context.Background(), "npm", "clean", "1.0.0")
	if err != nil {
		t.Fatalf("Advisories() error = %v", err)
	}
	if len(advisories) != 0 {
		t.Errorf("advisories = %v, want none", advisories)
	}
}
