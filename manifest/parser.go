// Package manifest parses dependency manifests across the ecosystems the
// audit pipeline supports. Each parser extracts the declared dependency set
// (name and declared version range) from raw manifest text; lockfile names
// are mapped separately to the package manager in use.
package manifest

import (
	"bufio"
	"encoding/json"
	"regexp"
	"strings"
)

// Dependency is a single declared dependency.
type Dependency struct {
	Name      string `json:"name"`
	Declared  string `json:"declared"`  // version range as written in the manifest
	Ecosystem string `json:"ecosystem"` // "npm", "python", "cargo", "hex", "gem"
	Dev       bool   `json:"dev,omitempty"`
}

// Parser extracts dependencies from one manifest format.
type Parser interface {
	// Parse extracts dependencies from the given file content.
	Parse(content string) ([]Dependency, error)
	// Filename returns the manifest filename this parser handles.
	Filename() string
	// Ecosystem returns the ecosystem name.
	Ecosystem() string
	// Language returns the primary language of the ecosystem.
	Language() string
}

// Parsers returns all supported manifest parsers in lookup priority order.
func Parsers() []Parser {
	return []Parser{
		&PackageJSONParser{},
		&RequirementsTxtParser{},
		&CargoTomlParser{},
		&MixExsParser{},
		&GemfileParser{},
	}
}

// ForFile returns the parser for the given filename, or nil.
func ForFile(filename string) Parser {
	base := filename
	if idx := strings.LastIndex(filename, "/"); idx != -1 {
		base = filename[idx+1:]
	}
	for _, p := range Parsers() {
		if p.Filename() == base {
			return p
		}
	}
	return nil
}

// lockfileManagers maps lockfile names to the package manager they imply.
var lockfileManagers = map[string]string{
	"package-lock.json": "npm",
	"yarn.lock":         "yarn",
	"pnpm-lock.yaml":    "pnpm",
	"bun.lockb":         "bun",
	"poetry.lock":       "poetry",
	"Pipfile.lock":      "pipenv",
	"Cargo.lock":        "cargo",
	"mix.lock":          "mix",
	"Gemfile.lock":      "bundler",
}

// ManagerForLockfile returns the package manager implied by a lockfile name.
func ManagerForLockfile(name string) (string, bool) {
	mgr, ok := lockfileManagers[name]
	return mgr, ok
}

// Lockfiles returns the known lockfile names in priority order.
func Lockfiles() []string {
	return []string{
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb",
		"poetry.lock", "Pipfile.lock",
		"Cargo.lock", "mix.lock", "Gemfile.lock",
	}
}

// ----------------------------------------------------------------------------
// PackageJSONParser - npm package.json
// ----------------------------------------------------------------------------

// PackageJSONParser parses package.json files for npm dependencies.
type PackageJSONParser struct{}

func (p *PackageJSONParser) Filename() string  { return "package.json" }
func (p *PackageJSONParser) Ecosystem() string { return "npm" }
func (p *PackageJSONParser) Language() string  { return "JavaScript" }

type packageJSON struct {
	Name            string            `json:"name"`
	Workspaces      json.RawMessage   `json:"workspaces"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Parse extracts production and dev dependencies from a package.json file.
func (p *PackageJSONParser) Parse(content string) ([]Dependency, error) {
	var pkg packageJSON
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, err
	}

	var deps []Dependency
	for name, rng := range pkg.Dependencies {
		deps = append(deps, Dependency{Name: name, Declared: rng, Ecosystem: "npm"})
	}
	for name, rng := range pkg.DevDependencies {
		deps = append(deps, Dependency{Name: name, Declared: rng, Ecosystem: "npm", Dev: true})
	}
	return deps, nil
}

// HasWorkspaces reports whether a package.json declares a multi-package
// workspace (array or object form).
func HasWorkspaces(content string) bool {
	var pkg packageJSON
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return false
	}
	return len(pkg.Workspaces) > 0 && string(pkg.Workspaces) != "null"
}

// ----------------------------------------------------------------------------
// RequirementsTxtParser - Python requirements.txt
// ----------------------------------------------------------------------------

// RequirementsTxtParser parses Python requirements.txt files.
type RequirementsTxtParser struct{}

func (p *RequirementsTxtParser) Filename() string  { return "requirements.txt" }
func (p *RequirementsTxtParser) Ecosystem() string { return "python" }
func (p *RequirementsTxtParser) Language() string  { return "Python" }

var requirementRe = regexp.MustCompile(`^([A-Za-z0-9._-]+)(?:\[[^\]]*\])?\s*([=<>!~]+.*)?$`)

// Parse extracts dependencies from a requirements.txt file.
func (p *RequirementsTxtParser) Parse(content string) ([]Dependency, error) {
	var deps []Dependency

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip environment markers and trailing comments.
		if idx := strings.Index(line, ";"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}
		if idx := strings.Index(line, " #"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		m := requirementRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deps = append(deps, Dependency{
			Name:      strings.ToLower(m[1]),
			Declared:  strings.TrimSpace(m[2]),
			Ecosystem: "python",
		})
	}
	return deps, scanner.Err()
}

// ----------------------------------------------------------------------------
// CargoTomlParser - Rust Cargo.toml
// ----------------------------------------------------------------------------

// CargoTomlParser parses Cargo.toml files for Rust dependencies.
// It handles the common forms: `name = "1.0"`, `name = { version = "1.0" }`,
// and the [dependencies] / [dev-dependencies] section headers.
type CargoTomlParser struct{}

func (p *CargoTomlParser) Filename() string  { return "Cargo.toml" }
func (p *CargoTomlParser) Ecosystem() string { return "cargo" }
func (p *CargoTomlParser) Language() string  { return "Rust" }

var cargoDepRe = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*=\s*(?:"([^"]*)"|\{.*version\s*=\s*"([^"]*)".*\})`)

// Parse extracts dependencies from a Cargo.toml file.
func (p *CargoTomlParser) Parse(content string) ([]Dependency, error) {
	var deps []Dependency

	section := ""
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = strings.Trim(line, "[]")
			continue
		}

		dev := false
		switch section {
		case "dependencies", "build-dependencies":
		case "dev-dependencies":
			dev = true
		default:
			continue
		}

		m := cargoDepRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		version := m[2]
		if version == "" {
			version = m[3]
		}
		deps = append(deps, Dependency{
			Name:      m[1],
			Declared:  version,
			Ecosystem: "cargo",
			Dev:       dev,
		})
	}
	return deps, scanner.Err()
}

// IsCargoWorkspace reports whether a Cargo.toml declares a [workspace].
func IsCargoWorkspace(content string) bool {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "[workspace]" {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// MixExsParser - Elixir mix.exs
// ----------------------------------------------------------------------------

// MixExsParser parses Elixir mix.exs files for hex dependencies.
type MixExsParser struct{}

func (p *MixExsParser) Filename() string  { return "mix.exs" }
func (p *MixExsParser) Ecosystem() string { return "hex" }
func (p *MixExsParser) Language() string  { return "Elixir" }

var mixDepRe = regexp.MustCompile(`\{:([a-z0-9_]+)\s*,\s*"([^"]*)"`)

// Parse extracts dependencies from the deps list of a mix.exs file.
func (p *MixExsParser) Parse(content string) ([]Dependency, error) {
	var deps []Dependency
	for _, m := range mixDepRe.FindAllStringSubmatch(content, -1) {
		deps = append(deps, Dependency{
			Name:      m[1],
			Declared:  m[2],
			Ecosystem: "hex",
		})
	}
	return deps, nil
}

// ----------------------------------------------------------------------------
// GemfileParser - Ruby Gemfile
// ----------------------------------------------------------------------------

// GemfileParser parses Ruby Gemfiles.
type GemfileParser struct{}

func (p *GemfileParser) Filename() string  { return "Gemfile" }
func (p *GemfileParser) Ecosystem() string { return "gem" }
func (p *GemfileParser) Language() string  { return "Ruby" }

var gemRe = regexp.MustCompile(`^gem\s+['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)

// Parse extracts gem declarations from a Gemfile.
func (p *GemfileParser) Parse(content string) ([]Dependency, error) {
	var deps []Dependency

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := gemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deps = append(deps, Dependency{
			Name:      m[1],
			Declared:  m[2],
			Ecosystem: "gem",
		})
	}
	return deps, scanner.Err()
}
