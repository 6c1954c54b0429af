// Package detect infers a repository's type, languages, and frameworks from
// its dependency manifests.
//
// Confidence is the share of matched identifiers over all identifiers in
// the matched categories, boosted when evidence spans more than one
// category. A profile below the configured confidence threshold collapses
// to "unknown" with frameworks cleared: low-confidence partial matches are
// never reported as findings.
package detect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
	"github.com/build-flow-labs/repoaudit/manifest"
)

// multiCategoryBoost strengthens confidence when matches span more than one
// category, capped at 1.
const multiCategoryBoost = 1.2

// configProbeDepth is the minimum analysis depth at which build/config
// files are probed for framework fingerprints.
const configProbeDepth = 3

// Detector infers a RepositoryProfile for one repository.
type Detector struct {
	src   github.Source
	cfg   config.DetectConfig
	depth int
}

// NewDetector creates a detector. depth is the configured analysis depth;
// at depth 3 and above, build/config files are probed in addition to
// manifests.
func NewDetector(src github.Source, cfg config.DetectConfig, depth int) *Detector {
	return &Detector{src: src, cfg: cfg, depth: depth}
}

// Detect gathers manifests and produces the repository profile.
func (d *Detector) Detect(ctx context.Context) (*schema.RepositoryProfile, error) {
	var (
		deps      []manifest.Dependency
		languages []string
		warnings  []string
	)
	seenLang := map[string]bool{}
	monorepo := false

	for _, p := range manifest.Parsers() {
		content, found, err := d.src.FileContent(ctx, p.Filename())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			warnings = append(warnings, fmt.Sprintf("could not fetch %s: lookup failed", p.Filename()))
			continue
		}
		if !found {
			continue
		}

		if p.Filename() == "package.json" && manifest.HasWorkspaces(content) {
			monorepo = true
		}
		if p.Filename() == "Cargo.toml" && manifest.IsCargoWorkspace(content) {
			monorepo = true
		}

		parsed, err := p.Parse(content)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not parse %s", p.Filename()))
			continue
		}
		deps = append(deps, parsed...)
		if !seenLang[p.Language()] {
			seenLang[p.Language()] = true
			languages = append(languages, p.Language())
		}
	}

	if !monorepo {
		monorepo = d.workspaceManifestPresent(ctx)
	}

	matchedIdents, matchedFrameworks, matchedCategories := matchSignatures(deps)
	if d.depth >= configProbeDepth {
		d.probeConfigFiles(ctx, matchedIdents, matchedFrameworks, matchedCategories)
	}

	confidence := computeConfidence(matchedIdents, matchedCategories)

	profile := &schema.RepositoryProfile{
		Type:           typeFor(deps, matchedCategories),
		Languages:      languages,
		Frameworks:     sortedKeys(matchedFrameworks),
		PackageManager: d.packageManager(ctx),
		Confidence:     confidence,
		Warnings:       warnings,
	}

	if confidence < d.cfg.ConfidenceThreshold {
		profile.Type = schema.TypeUnknown
		profile.Frameworks = nil
		profile.Confidence = 0
		profile.Warnings = append(profile.Warnings,
			fmt.Sprintf("detection confidence %.2f below threshold %.2f", confidence, d.cfg.ConfidenceThreshold))
	}

	// A workspace manifest overrides all other category inference.
	if monorepo {
		profile.Type = schema.TypeMonorepo
	}
	return profile, nil
}

// matchIdentifier reports whether a dependency name matches one signature
// identifier: exact, scoped-namespace prefix, or substring containment for
// identifiers longer than 3 characters.
func matchIdentifier(dep, ident string) bool {
	if dep == ident {
		return true
	}
	if strings.HasPrefix(ident, "@") && strings.HasPrefix(dep, ident) {
		return true
	}
	if len(ident) > 3 && strings.Contains(dep, ident) {
		return true
	}
	return false
}

// matchSignatures returns the set of matched identifiers, framework names,
// and categories across the signature table.
func matchSignatures(deps []manifest.Dependency) (map[string]bool, map[string]bool, map[string]int) {
	matchedIdents := map[string]bool{}
	matchedFrameworks := map[string]bool{}
	matchedCategories := map[string]int{}

	for category, frameworks := range signatures {
		for framework, idents := range frameworks {
			for _, ident := range idents {
				for _, dep := range deps {
					if matchIdentifier(dep.Name, ident) {
						if !matchedIdents[ident] {
							matchedIdents[ident] = true
							matchedCategories[category]++
						}
						matchedFrameworks[framework] = true
						break
					}
				}
			}
		}
	}
	return matchedIdents, matchedFrameworks, matchedCategories
}

func (d *Detector) probeConfigFiles(ctx context.Context, idents, frameworks map[string]bool, categories map[string]int) {
	for _, sig := range configFileSignatures {
		exists, err := d.src.FileExists(ctx, sig.Path)
		if err != nil || !exists {
			continue
		}
		if !idents[sig.Ident] {
			idents[sig.Ident] = true
			categories[sig.Category]++
		}
		frameworks[sig.Framework] = true
	}
}

// computeConfidence is matched identifiers over all identifiers of the
// matched categories, boosted for multi-category evidence.
func computeConfidence(matchedIdents map[string]bool, matchedCategories map[string]int) float64 {
	if len(matchedIdents) == 0 {
		return 0
	}

	possible := 0
	for category := range matchedCategories {
		for _, idents := range signatures[category] {
			possible += len(idents)
		}
	}
	if possible == 0 {
		return 0
	}

	confidence := float64(len(matchedIdents)) / float64(possible)
	if len(matchedCategories) > 1 {
		confidence *= multiCategoryBoost
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// typeFor picks the type category with the most matched identifiers.
func typeFor(deps []manifest.Dependency, matchedCategories map[string]int) schema.RepoType {
	best := ""
	bestCount := 0
	for _, category := range typeCategories {
		if matchedCategories[category] > bestCount {
			best = category
			bestCount = matchedCategories[category]
		}
	}
	switch best {
	case "frontend":
		return schema.TypeFrontend
	case "backend":
		return schema.TypeBackend
	case "ai":
		return schema.TypeAI
	case "mobile":
		return schema.TypeMobile
	}
	return schema.TypeUnknown
}

// workspaceManifestPresent checks the standalone workspace declarations.
func (d *Detector) workspaceManifestPresent(ctx context.Context) bool {
	if content, found, err := d.src.FileContent(ctx, "pnpm-workspace.yaml"); err == nil && found {
		var ws struct {
			Packages []string `yaml:"packages"`
		}
		if yaml.Unmarshal([]byte(content), &ws) == nil && len(ws.Packages) > 0 {
			return true
		}
	}
	if exists, err := d.src.FileExists(ctx, "lerna.json"); err == nil && exists {
		return true
	}
	return false
}

// packageManager infers the package manager from the first known lockfile.
func (d *Detector) packageManager(ctx context.Context) string {
	for _, lock := range manifest.Lockfiles() {
		if exists, err := d.src.FileExists(ctx, lock); err == nil && exists {
			if mgr, ok := manifest.ManagerForLockfile(lock); ok {
				return mgr
			}
		}
	}
	return ""
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
