// Package analyzer implements the lightweight repository scanner: a single
// directory walk per repository producing file statistics, language and
// framework detection, and configuration-file inventory.
package analyzer

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

const (
	// defaultMaxFiles bounds the number of files visited per repository.
	defaultMaxFiles = 5000

	// defaultSizeCeiling is the file size limit for line counting and
	// content-based detection.
	defaultSizeCeiling = 1 << 20

	// sniffLen is how many leading bytes content sniffers inspect.
	sniffLen = 512

	// maxProjectFiles bounds how many MSBuild project files are parsed for
	// dependencies per repository.
	maxProjectFiles = 5
)

// Options configures an Analyzer. Zero values select defaults.
type Options struct {
	// Logger receives scan diagnostics. Defaults to slog.Default.
	Logger *slog.Logger

	// MaxFiles caps files visited per repository.
	MaxFiles int

	// SizeCeiling is the per-file byte limit for line counting.
	SizeCeiling int64

	// ExtraPatterns extends the built-in framework detection table.
	ExtraPatterns []FrameworkPattern
}

// Analyzer scans repositories under a base path.
type Analyzer struct {
	basePath      string
	logger        *slog.Logger
	extraPatterns []FrameworkPattern
	maxFiles      int
	sizeCeiling   int64
}

// New creates an analyzer rooted at basePath.
func New(basePath string, opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	sizeCeiling := opts.SizeCeiling
	if sizeCeiling <= 0 {
		sizeCeiling = defaultSizeCeiling
	}

	return &Analyzer{
		basePath:      basePath,
		logger:        logger,
		extraPatterns: opts.ExtraPatterns,
		maxFiles:      maxFiles,
		sizeCeiling:   sizeCeiling,
	}
}

// walkResult accumulates statistics and detection signals from the single
// directory walk.
type walkResult struct {
	fileCounts   map[string]int
	languages    map[string]int
	projectFiles []string
	totalFiles   int
	totalLines   int

	terraform      bool
	helm           bool
	cloudFormation bool
	azureFunctions bool
	awsLambda      bool
	jupyter        bool
	airflow        bool
}

// Scan analyzes a single repository directory. It never fails: on internal
// error a partial record is returned with the error recorded under the
// insights key "analysis_error".
func (a *Analyzer) Scan(repoPath string) *model.RepoMetadata {
	name := filepath.Base(repoPath)

	rel, relErr := filepath.Rel(a.basePath, repoPath)
	if relErr != nil {
		rel = name
	}

	meta := model.NewRepoMetadata(name, rel)

	result, walkErr := a.walk(repoPath)
	if walkErr != nil {
		meta.Insights["analysis_error"] = walkErr.Error()
		meta.UpdateDiscoveryStatus()

		return meta
	}

	meta.TotalFiles = result.totalFiles
	meta.FileCounts = result.fileCounts
	meta.TotalLines = result.totalLines
	meta.ConfigFiles = a.findConfigFiles(repoPath)
	meta.TechnologyStack.Frameworks = a.detectFrameworks(repoPath, meta.ConfigFiles, result)
	meta.TechnologyStack.Languages = result.languages
	meta.HasReadme = hasReadme(repoPath)

	meta.UpdateDiscoveryStatus()

	a.logger.Debug("repository scanned",
		"repo", name,
		"files", meta.TotalFiles,
		"lines", meta.TotalLines,
		"frameworks", len(meta.TechnologyStack.Frameworks))

	return meta
}

// walk visits every file once, pruning ignored directories and stopping at
// the file cap. Per-file read failures contribute zero lines and are not
// errors.
func (a *Analyzer) walk(repoPath string) (*walkResult, error) {
	result := &walkResult{
		fileCounts: map[string]int{},
		languages:  map[string]int{},
	}

	visited := 0

	walkErr := filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			if _, ignored := ignoreDirs[entry.Name()]; ignored && path != repoPath {
				return fs.SkipDir
			}

			return nil
		}

		if _, ignored := ignoreFiles[entry.Name()]; ignored {
			return nil
		}

		if visited >= a.maxFiles {
			return fs.SkipAll
		}

		visited++

		a.visitFile(path, entry, result)

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return result, nil
}

// visitFile updates counters and detection signals for one regular file.
func (a *Analyzer) visitFile(path string, entry fs.DirEntry, result *walkResult) {
	info, statErr := entry.Info()
	if statErr != nil {
		return
	}

	fileName := entry.Name()
	ext := strings.ToLower(filepath.Ext(fileName))

	result.fileCounts[ext]++
	result.totalFiles++

	var content []byte

	if info.Size() < a.sizeCeiling {
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			content = data
			result.totalLines += countLines(data)
		}
	}

	if lang := enry.GetLanguage(fileName, content); lang != "" {
		result.languages[lang]++
	}

	a.collectSignals(path, fileName, ext, content, result)
}

// collectSignals records infrastructure, cloud, and data tool evidence seen
// during the walk.
func (a *Analyzer) collectSignals(path, fileName, ext string, content []byte, result *walkResult) {
	switch ext {
	case ".tf":
		result.terraform = true
	case ".ipynb":
		result.jupyter = true
	case ".csproj", ".vbproj", ".fsproj":
		if len(result.projectFiles) < maxProjectFiles {
			result.projectFiles = append(result.projectFiles, path)
		}
	case ".yaml", ".yml":
		if fileName == "Chart.yaml" {
			result.helm = true
		}

		head := sniff(content)
		if strings.Contains(head, "AWSTemplateFormatVersion") || strings.Contains(head, "AWS::") {
			result.cloudFormation = true
		}
	}

	switch fileName {
	case "function.json":
		result.azureFunctions = true
	case "lambda_function.py":
		result.awsLambda = true
	case "index.js":
		head := sniff(content)
		if strings.Contains(head, "exports.handler") || strings.Contains(head, "aws-lambda") {
			result.awsLambda = true
		}
	}

	if ext == ".py" && strings.Contains(filepath.ToSlash(path), "/dags/") {
		head := sniff(content)
		if strings.Contains(head, "from airflow") || strings.Contains(head, "import airflow") {
			result.airflow = true
		}
	}
}

// findConfigFiles checks the repository root for known manifests, project
// descriptors, and other configuration files, in reporting order.
func (a *Analyzer) findConfigFiles(repoPath string) []string {
	configFiles := []string{}

	for _, manifest := range manifestFiles {
		if _, statErr := os.Stat(filepath.Join(repoPath, manifest)); statErr == nil {
			configFiles = append(configFiles, manifest)
		}
	}

	for _, pattern := range projectFileGlobs {
		matches, _ := filepath.Glob(filepath.Join(repoPath, pattern))
		if len(matches) > 0 {
			configFiles = append(configFiles, strings.TrimPrefix(pattern, "*"))
		}
	}

	for _, config := range otherConfigFiles {
		if _, statErr := os.Stat(filepath.Join(repoPath, config)); statErr == nil {
			configFiles = append(configFiles, config)
		}
	}

	return configFiles
}

// detectFrameworks combines manifest dependency matching with the signals
// gathered during the walk.
func (a *Analyzer) detectFrameworks(repoPath string, configFiles []string, result *walkResult) []string {
	var deps []string

	present := map[string]struct{}{}
	for _, config := range configFiles {
		present[config] = struct{}{}
	}

	for manifest, parse := range manifestParsers {
		if _, ok := present[manifest]; ok {
			deps = append(deps, parse(filepath.Join(repoPath, manifest))...)
		}
	}

	var dotnet []string

	for _, projectFile := range result.projectFiles {
		deps = append(deps, parseCSProj(projectFile)...)
		dotnet = append(dotnet, dotnetTargetLabels(projectFile)...)
	}

	frameworks := matchFrameworks(deps, a.extraPatterns)
	frameworks = appendUnique(frameworks, dotnet...)
	frameworks = appendUnique(frameworks, result.signalLabels()...)
	frameworks = appendUnique(frameworks, rootSignalLabels(repoPath, present)...)

	return frameworks
}

// signalLabels converts walk signals into framework labels.
func (r *walkResult) signalLabels() []string {
	var labels []string

	if r.terraform {
		labels = append(labels, "Terraform")
	}

	if r.helm {
		labels = append(labels, "Helm")
	}

	if r.cloudFormation {
		labels = append(labels, "CloudFormation")
	}

	if r.azureFunctions {
		labels = append(labels, "Azure Functions")
	}

	if r.awsLambda {
		labels = append(labels, "AWS Lambda")
	}

	if r.jupyter {
		labels = append(labels, "Jupyter")
	}

	if r.airflow {
		labels = append(labels, "Apache Airflow")
	}

	return labels
}

// rootSignalLabels detects tools identified purely by root-level files.
func rootSignalLabels(repoPath string, present map[string]struct{}) []string {
	var labels []string

	for _, ansibleFile := range []string{"ansible.cfg", "playbook.yml", "playbook.yaml"} {
		if _, statErr := os.Stat(filepath.Join(repoPath, ansibleFile)); statErr == nil {
			labels = append(labels, "Ansible")

			break
		}
	}

	if _, statErr := os.Stat(filepath.Join(repoPath, "serverless.yml")); statErr == nil {
		labels = append(labels, "Serverless Framework")
	}

	if _, statErr := os.Stat(filepath.Join(repoPath, "dbt_project.yml")); statErr == nil {
		labels = append(labels, "dbt")
	}

	return labels
}

// dotnetTargetLabels reports the .NET runtime generation from an MSBuild
// project file's TargetFramework element.
func dotnetTargetLabels(projectFile string) []string {
	data, readErr := os.ReadFile(projectFile)
	if readErr != nil {
		return nil
	}

	content := string(data)
	if !strings.Contains(content, "<TargetFramework>") && !strings.Contains(content, "<TargetFrameworks>") {
		return nil
	}

	lowered := strings.ToLower(content)

	switch {
	case strings.Contains(lowered, "net5") || strings.Contains(lowered, "net6") ||
		strings.Contains(lowered, "net7") || strings.Contains(lowered, "net8"):
		return []string{".NET 5+"}
	case strings.Contains(lowered, "netcoreapp"):
		return []string{".NET Core"}
	case strings.Contains(lowered, "netstandard"):
		return []string{".NET Standard"}
	case strings.Contains(lowered, "net4"):
		return []string{".NET Framework"}
	}

	return nil
}

// hasReadme reports whether any root-level README variant exists.
func hasReadme(repoPath string) bool {
	matches, _ := filepath.Glob(filepath.Join(repoPath, "README*"))
	for _, match := range matches {
		info, statErr := os.Stat(match)
		if statErr == nil && info.Mode().IsRegular() {
			return true
		}
	}

	return false
}

// countLines counts lines the way text iteration does: every newline ends a
// line, plus one trailing line without a final newline.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// sniff returns the leading bytes of content for cheap text matching.
func sniff(content []byte) string {
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}

	return string(content)
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false

		for _, existing := range dst {
			if existing == item {
				found = true

				break
			}
		}

		if !found {
			dst = append(dst, item)
		}
	}

	return dst
}
