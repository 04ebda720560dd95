package analyzer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// Manifest parsers extract dependency identifiers for framework matching.
// All parsers are best effort: unreadable or malformed manifests yield no
// dependencies rather than an error, because a broken manifest must not
// abort the repository scan.

var (
	artifactIDRe     = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>`)
	packageRefRe     = regexp.MustCompile(`(?i)<PackageReference\s+Include="([^"]+)"`)
	packagesConfigRe = regexp.MustCompile(`(?i)<package\s+id="([^"]+)"`)
	gradleDepRe      = regexp.MustCompile(`['"]([A-Za-z0-9_.\-]+:[A-Za-z0-9_.\-]+)(?::[^'"]*)?['"]`)
	quotedTokenRe    = regexp.MustCompile(`['"]([A-Za-z0-9@/_.\-\[\]]+)`)
	requirementSplit = regexp.MustCompile(`[=<>~!;\[ ]`)
)

// parsePackageJSON returns dependency names from dependencies and
// devDependencies.
func parsePackageJSON(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}

	unmarshalErr := json.Unmarshal(data, &manifest)
	if unmarshalErr != nil {
		return nil
	}

	deps := make([]string, 0, len(manifest.Dependencies)+len(manifest.DevDependencies))

	for name := range manifest.Dependencies {
		deps = append(deps, name)
	}

	for name := range manifest.DevDependencies {
		deps = append(deps, name)
	}

	return deps
}

// parseRequirementsTxt returns package names from a pip requirements file,
// stripping version specifiers, extras, and environment markers.
func parseRequirementsTxt(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var deps []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		name := requirementSplit.Split(line, 2)[0]
		if name != "" {
			deps = append(deps, name)
		}
	}

	return deps
}

// parsePyprojectTOML returns quoted dependency tokens from the dependency
// arrays of a pyproject.toml, stripping version specifiers.
func parsePyprojectTOML(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var (
		deps   []string
		inDeps bool
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "dependencies"):
			inDeps = true
		case inDeps && strings.HasPrefix(line, "["):
			// New section header ends the array.
			inDeps = false
		}

		if !inDeps {
			continue
		}

		for _, match := range quotedTokenRe.FindAllStringSubmatch(line, -1) {
			name := requirementSplit.Split(match[1], 2)[0]
			if name != "" && name != "dependencies" {
				deps = append(deps, name)
			}
		}

		if strings.HasSuffix(line, "]") {
			inDeps = false
		}
	}

	return deps
}

// parsePomXML returns artifact identifiers from a Maven POM.
func parsePomXML(path string) []string {
	return extractAll(path, artifactIDRe)
}

// parseGradle returns group:artifact coordinates from a Gradle build file.
func parseGradle(path string) []string {
	return extractAll(path, gradleDepRe)
}

// parseCSProj returns PackageReference identifiers from an MSBuild project.
func parseCSProj(path string) []string {
	return extractAll(path, packageRefRe)
}

// parsePackagesConfig returns package identifiers from a legacy NuGet
// packages.config.
func parsePackagesConfig(path string) []string {
	return extractAll(path, packagesConfigRe)
}

// parseGoMod returns required module paths from a go.mod file.
func parseGoMod(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var (
		deps    []string
		inBlock bool
	)

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == "require (":
			inBlock = true

			continue
		case inBlock && line == ")":
			inBlock = false

			continue
		}

		if inBlock || strings.HasPrefix(line, "require ") {
			fields := strings.Fields(strings.TrimPrefix(line, "require "))
			if len(fields) >= 1 && strings.Contains(fields[0], "/") {
				deps = append(deps, fields[0])
			}
		}
	}

	return deps
}

// parseComposerJSON returns package names from composer require blocks.
func parseComposerJSON(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var manifest struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}

	unmarshalErr := json.Unmarshal(data, &manifest)
	if unmarshalErr != nil {
		return nil
	}

	deps := make([]string, 0, len(manifest.Require)+len(manifest.RequireDev))

	for name := range manifest.Require {
		deps = append(deps, name)
	}

	for name := range manifest.RequireDev {
		deps = append(deps, name)
	}

	return deps
}

// parseCargoTOML returns crate names from the dependency sections of a
// Cargo.toml.
func parseCargoTOML(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var (
		deps   []string
		inDeps bool
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") {
			inDeps = strings.Contains(line, "dependencies")

			continue
		}

		if !inDeps || line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
		if name != "" {
			deps = append(deps, name)
		}
	}

	return deps
}

// parseGemfile returns gem names from a Ruby Gemfile.
func parseGemfile(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var deps []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "gem ") {
			continue
		}

		match := quotedTokenRe.FindStringSubmatch(line)
		if match != nil {
			deps = append(deps, match[1])
		}
	}

	return deps
}

// extractAll returns the first capture group of every regexp match in the
// file at path.
func extractAll(path string, re *regexp.Regexp) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	matches := re.FindAllSubmatch(data, -1)
	if matches == nil {
		return nil
	}

	deps := make([]string, 0, len(matches))
	for _, match := range matches {
		deps = append(deps, string(bytes.TrimSpace(match[1])))
	}

	return deps
}

// manifestParsers maps manifest basenames to their parser. MSBuild project
// files are handled separately because their names vary.
var manifestParsers = map[string]func(string) []string{
	"package.json":     parsePackageJSON,
	"requirements.txt": parseRequirementsTxt,
	"pyproject.toml":   parsePyprojectTOML,
	"pom.xml":          parsePomXML,
	"build.gradle":     parseGradle,
	"packages.config":  parsePackagesConfig,
	"go.mod":           parseGoMod,
	"composer.json":    parseComposerJSON,
	"Cargo.toml":       parseCargoTOML,
	"Gemfile":          parseGemfile,
}

// matchFrameworks maps dependency identifiers to framework labels using the
// built-in table followed by any extra patterns. Matching is case-insensitive
// substring containment; labels are returned once each, in table order.
func matchFrameworks(deps []string, extra []FrameworkPattern) []string {
	if len(deps) == 0 {
		return nil
	}

	lowered := make([]string, len(deps))
	for i, dep := range deps {
		lowered[i] = strings.ToLower(dep)
	}

	var (
		labels []string
		seen   = map[string]struct{}{}
	)

	for _, table := range [][]FrameworkPattern{frameworkPatterns, extra} {
		for _, fp := range table {
			if _, dup := seen[fp.Label]; dup {
				continue
			}

			if matchesAny(lowered, fp.Patterns) {
				labels = append(labels, fp.Label)
				seen[fp.Label] = struct{}{}
			}
		}
	}

	return labels
}

func matchesAny(deps, patterns []string) bool {
	for _, pattern := range patterns {
		needle := strings.ToLower(pattern)

		for _, dep := range deps {
			if strings.Contains(dep, needle) {
				return true
			}
		}
	}

	return false
}
