package deps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

const osvQueryURL = "https://api.osv.dev/v1/query"

// VulnFeed returns the known advisories affecting one dependency at a
// concrete version. Range containment against the version is the feed's
// responsibility.
type VulnFeed interface {
	Advisories(ctx context.Context, ecosystem, name, version string) ([]schema.Advisory, error)
}

// OSVClient queries the OSV.dev vulnerability database.
type OSVClient struct {
	queryURL string
	client   *http.Client
}

// NewOSVClient targets the public OSV API.
func NewOSVClient() *OSVClient {
	return &OSVClient{
		queryURL: osvQueryURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewOSVClientWithURL targets a custom query endpoint, used by tests.
func NewOSVClientWithURL(queryURL string, client *http.Client) *OSVClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &OSVClient{queryURL: queryURL, client: client}
}

type osvQuery struct {
	Version string     `json:"version,omitempty"`
	Package osvPackage `json:"package"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvResponse struct {
	Vulns []struct {
		ID               string `json:"id"`
		Summary          string `json:"summary"`
		DatabaseSpecific struct {
			Severity string `json:"severity"`
		} `json:"database_specific"`
		Severity []struct {
			Type  string `json:"type"`
			Score string `json:"score"`
		} `json:"severity"`
	} `json:"vulns"`
}

func (c *OSVClient) Advisories(ctx context.Context, ecosystem, name, version string) ([]schema.Advisory, error) {
	payload, err := json.Marshal(osvQuery{
		Version: version,
		Package: osvPackage{Name: name, Ecosystem: ecosystem},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osv query %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osv query %s: status %d", name, resp.StatusCode)
	}

	var out osvResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("osv query %s: decode: %w", name, err)
	}

	advisories := make([]schema.Advisory, 0, len(out.Vulns))
	for _, v := range out.Vulns {
		title := v.Summary
		if title == "" {
			title = v.ID
		}
		advisories = append(advisories, schema.Advisory{
			Severity: normalizeSeverity(v.DatabaseSpecific.Severity),
			Title:    title,
		})
	}
	return advisories, nil
}

// normalizeSeverity folds feed-specific labels into the fixed set used by
// the vulnerability metric.
func normalizeSeverity(s string) string {
	switch strings.ToLower(s) {
	case "critical":
		return "critical"
	case "high":
		return "high"
	case "moderate", "medium":
		return "moderate"
	case "low":
		return "low"
	}
	return "unknown"
}
