package deps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const npmRegistryURL = "https://registry.npmjs.org"

// PackageInfo is the registry metadata consulted per dependency.
type PackageInfo struct {
	Name            string
	LatestVersion   string
	LatestPublished time.Time
	Deprecated      bool
	License         string
}

// MetadataSource looks up registry metadata for one dependency.
type MetadataSource interface {
	Lookup(ctx context.Context, ecosystem, name string) (*PackageInfo, error)
}

// RegistryClient is a MetadataSource backed by an npm-style registry.
type RegistryClient struct {
	baseURL string
	client  *http.Client
}

// NewRegistryClient targets the public npm registry.
func NewRegistryClient() *RegistryClient {
	return &RegistryClient{
		baseURL: npmRegistryURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewRegistryClientWithBase targets a custom registry endpoint, used by
// tests and private mirrors.
func NewRegistryClientWithBase(baseURL string, client *http.Client) *RegistryClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RegistryClient{baseURL: baseURL, client: client}
}

// registryDocument is the subset of the registry's package document we
// read. The license field is a string in modern packuments; older ones use
// an object, which we ignore rather than guess at.
type registryDocument struct {
	DistTags map[string]string `json:"dist-tags"`
	Time     map[string]string `json:"time"`
	Versions map[string]struct {
		Deprecated json.RawMessage `json:"deprecated"`
		License    json.RawMessage `json:"license"`
	} `json:"versions"`
}

func (c *RegistryClient) Lookup(ctx context.Context, ecosystem, name string) (*PackageInfo, error) {
	if ecosystem != "npm" {
		return nil, fmt.Errorf("registry lookup %s: unsupported ecosystem %q", name, ecosystem)
	}
	u := c.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry lookup %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry lookup %s: status %d", name, resp.StatusCode)
	}

	var doc registryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("registry lookup %s: decode: %w", name, err)
	}

	latest := doc.DistTags["latest"]
	if latest == "" {
		return nil, fmt.Errorf("registry lookup %s: no latest tag", name)
	}

	info := &PackageInfo{Name: name, LatestVersion: latest}
	if published, ok := doc.Time[latest]; ok {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			info.LatestPublished = t
		}
	}
	if v, ok := doc.Versions[latest]; ok {
		info.Deprecated = len(v.Deprecated) > 0 && string(v.Deprecated) != "null" && string(v.Deprecated) != "false"
		var lic string
		if json.Unmarshal(v.License, &lic) == nil {
			info.License = lic
		}
	}
	return info, nil
}
