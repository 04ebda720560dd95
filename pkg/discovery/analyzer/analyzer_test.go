package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_CountsFilesAndDetectsStack(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	repo := filepath.Join(base, "webshop")

	writeFile(t, filepath.Join(repo, "package.json"), `{
		"dependencies": {"express": "^4.18.0", "react": "^18.2.0"},
		"devDependencies": {"jest": "^29.0.0"}
	}`)
	writeFile(t, filepath.Join(repo, "server.js"), "const express = require('express');\napp.listen(3000);\n")
	writeFile(t, filepath.Join(repo, "README.md"), "# webshop\n")
	writeFile(t, filepath.Join(repo, "Dockerfile"), "FROM node:20\n")
	writeFile(t, filepath.Join(repo, "node_modules", "express", "index.js"), "module.exports = {};\n")
	writeFile(t, filepath.Join(repo, ".gitignore"), "node_modules\n")

	meta := New(base, Options{}).Scan(repo)

	require.NotNil(t, meta)
	assert.Equal(t, "webshop", meta.Name)
	assert.Equal(t, "webshop", meta.Path)
	assert.NotContains(t, meta.Insights, "analysis_error")

	// node_modules and .gitignore are excluded.
	assert.Equal(t, 4, meta.TotalFiles)
	assert.Equal(t, 1, meta.FileCounts[".js"])
	assert.Equal(t, 1, meta.FileCounts[".json"])
	assert.Equal(t, 1, meta.FileCounts[".md"])

	assert.True(t, meta.HasReadme)
	assert.Contains(t, meta.ConfigFiles, "package.json")
	assert.Contains(t, meta.ConfigFiles, "Dockerfile")

	assert.Contains(t, meta.TechnologyStack.Frameworks, "Express.js")
	assert.Contains(t, meta.TechnologyStack.Frameworks, "React")
	assert.Contains(t, meta.TechnologyStack.Frameworks, "Jest")
	assert.Positive(t, meta.TechnologyStack.Languages["JavaScript"])
}

func TestScan_LineCountingUnderCeiling(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	repo := filepath.Join(base, "scripts")

	// Three lines without a trailing newline still count as three.
	writeFile(t, filepath.Join(repo, "run.py"), "import os\nprint('hi')\nprint('bye')")
	writeFile(t, filepath.Join(repo, "big.log"), "aaa\nbbb\n")

	meta := New(base, Options{SizeCeiling: 4}).Scan(repo)

	// big.log and run.py both exceed the tiny ceiling; files still counted.
	assert.Equal(t, 2, meta.TotalFiles)
	assert.Zero(t, meta.TotalLines)

	full := New(base, Options{}).Scan(repo)

	assert.Equal(t, 5, full.TotalLines)
}

func TestScan_FileCapStopsWalk(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	repo := filepath.Join(base, "huge")

	for i := range 10 {
		writeFile(t, filepath.Join(repo, "f"+string(rune('a'+i))+".txt"), "x\n")
	}

	meta := New(base, Options{MaxFiles: 3}).Scan(repo)

	assert.Equal(t, 3, meta.TotalFiles)
}

func TestScan_MissingDirectoryReturnsEmptyRecord(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	meta := New(base, Options{}).Scan(filepath.Join(base, "gone"))

	require.NotNil(t, meta)
	assert.Equal(t, "gone", meta.Name)
	assert.Zero(t, meta.TotalFiles)
	assert.False(t, meta.HasReadme)
}

func TestScan_ExtraPatterns(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	repo := filepath.Join(base, "legacy")

	writeFile(t, filepath.Join(repo, "requirements.txt"), "acme-orm==1.2\nflask>=2.0\n# comment\n")

	extra := []FrameworkPattern{{Label: "Acme ORM", Patterns: []string{"acme-orm"}}}

	meta := New(base, Options{ExtraPatterns: extra}).Scan(repo)

	assert.Contains(t, meta.TechnologyStack.Frameworks, "Flask")
	assert.Contains(t, meta.TechnologyStack.Frameworks, "Acme ORM")
}

func TestLoadPatternsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "patterns.yaml")

	writeFile(t, path, "- label: Internal SDK\n  patterns: [acme-sdk, acme-client]\n")

	patterns, err := LoadPatternsFile(path)

	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "Internal SDK", patterns[0].Label)
	assert.Equal(t, []string{"acme-sdk", "acme-client"}, patterns[0].Patterns)

	_, missingErr := LoadPatternsFile(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, missingErr)
}

func TestParseRequirementsTxt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")

	writeFile(t, path, "django==4.2\nrequests>=2.31 ; python_version > '3.8'\n# pinned\n-r base.txt\nnumpy\n")

	deps := parseRequirementsTxt(path)

	assert.Equal(t, []string{"django", "requests", "numpy"}, deps)
}

func TestParsePomXML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pom.xml")

	writeFile(t, path, `<project>
		<dependencies>
			<dependency><artifactId>spring-boot-starter-web</artifactId></dependency>
			<dependency><artifactId>hibernate-core</artifactId></dependency>
		</dependencies>
	</project>`)

	deps := parsePomXML(path)

	assert.Contains(t, deps, "spring-boot-starter-web")
	assert.Contains(t, deps, "hibernate-core")

	labels := matchFrameworks(deps, nil)

	assert.Contains(t, labels, "Spring Boot")
	assert.Contains(t, labels, "Hibernate")
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Zero(t, countLines(nil))
	assert.Equal(t, 1, countLines([]byte("one")))
	assert.Equal(t, 1, countLines([]byte("one\n")))
	assert.Equal(t, 2, countLines([]byte("one\ntwo")))
}

func TestFindRepositories(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	writeFile(t, filepath.Join(base, "beta", "main.go"), "package main\n")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "alpha", ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, ".hidden"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "empty"), 0o755))
	writeFile(t, filepath.Join(base, "stray.txt"), "not a repo\n")

	repos := FindRepositories(base)

	require.Len(t, repos, 2)
	assert.Equal(t, filepath.Join(base, "alpha"), repos[0])
	assert.Equal(t, filepath.Join(base, "beta"), repos[1])
}

func TestScanAll_EveryPathYieldsOneResult(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	var paths []string

	for _, name := range []string{"one", "two", "three"} {
		repo := filepath.Join(base, name)
		writeFile(t, filepath.Join(repo, "main.go"), "package main\n")
		paths = append(paths, repo)
	}

	scanner := New(base, Options{})

	var progressCalls int

	results := ScanAll(paths, scanner.Scan, 2, func(completed, total int, _ string) {
		progressCalls++
		assert.Equal(t, 3, total)
		assert.LessOrEqual(t, completed, total)
	})

	require.Len(t, results, 3)
	assert.Equal(t, 3, progressCalls)

	for _, name := range []string{"one", "two", "three"} {
		require.Contains(t, results, name)
		assert.Equal(t, 1, results[name].TotalFiles)
	}
}

func TestScanAll_PanicYieldsErrorStub(t *testing.T) {
	t.Parallel()

	paths := []string{"/repos/good", "/repos/bad"}

	scan := func(repoPath string) *model.RepoMetadata {
		if filepath.Base(repoPath) == "bad" {
			panic("corrupted manifest")
		}

		return model.NewRepoMetadata(filepath.Base(repoPath), filepath.Base(repoPath))
	}

	var errored string

	results := ScanAll(paths, scan, 1, func(_, _ int, repoName string) {
		if repoName == "bad (ERROR)" {
			errored = repoName
		}
	})

	require.Len(t, results, 2)
	assert.Equal(t, "bad (ERROR)", errored)
	assert.Equal(t, "corrupted manifest", results["bad"].Insights["analysis_error"])
	assert.NotContains(t, results["good"].Insights, "analysis_error")
}

func TestFormatProgressMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[2/4] (50.0%) Analyzing: billing", FormatProgressMessage(2, 4, "billing"))
	assert.Equal(t, "[0/0] (0.0%) Analyzing: none", FormatProgressMessage(0, 0, "none"))
}
