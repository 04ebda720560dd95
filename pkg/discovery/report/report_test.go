package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

func buildState(t *testing.T) *model.AnalysisState {
	t.Helper()

	state := model.NewAnalysisState("/repos")
	state.TotalRepositories = 3

	complete := model.NewRepoMetadata("billing", "billing")
	complete.TotalFiles = 120
	complete.TotalLines = 8000
	complete.FileCounts = map[string]int{".cs": 90, ".json": 20, ".md": 10}
	complete.TechnologyStack.Frameworks = []string{"ASP.NET Core", "Entity Framework"}
	complete.Insights["purpose"] = "invoice generation"
	complete.AssignedComponents = []string{"payments"}
	complete.UpdateDiscoveryStatus()

	investigated := model.NewRepoMetadata("reporting", "reporting")
	investigated.Insights["purpose"] = "BI exports"
	investigated.UpdateDiscoveryStatus()

	untouched := model.NewRepoMetadata("legacy-ftp", "legacy-ftp")

	state.Repositories["billing"] = complete
	state.Repositories["reporting"] = investigated
	state.Repositories["legacy-ftp"] = untouched

	state.Components["payments"] = &model.ComponentData{
		Name:         "payments",
		Purpose:      "Payment processing",
		Rationale:    "Shared billing domain",
		Repositories: []string{"billing"},
		CreatedAt:    time.Now(),
	}

	return state
}

func TestDiscoveryReport_SectionOrder(t *testing.T) {
	t.Parallel()

	content := DiscoveryReport(buildState(t))

	sections := []string{
		"# Legacy Application Discovery Report",
		"## Executive Summary",
		"## Repository Inventory",
		"## Logical Components Analysis",
		"## Technology Stack Summary",
		"## Assignment Validation",
		"## Recommendations",
	}

	last := -1

	for _, section := range sections {
		idx := strings.Index(content, section)

		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)

		last = idx
	}
}

func TestDiscoveryReport_Content(t *testing.T) {
	t.Parallel()

	content := DiscoveryReport(buildState(t))

	assert.Contains(t, content, "**Base Path:** `/repos`")
	assert.Contains(t, content, "### Complete (Has Insights & Assigned) (1)")
	assert.Contains(t, content, "### Needs Component Assignment (1)")
	assert.Contains(t, content, "### Needs Investigation (1)")
	assert.Contains(t, content, "**billing**")
	assert.Contains(t, content, "- Frameworks: ASP.NET Core, Entity Framework")
	assert.Contains(t, content, "- File types: .cs: 90, .json: 20, .md: 10")
	assert.Contains(t, content, "purpose: invoice generation")
	assert.Contains(t, content, "**Size Assessment:** Single Repo")
	assert.Contains(t, content, "- ASP.NET Core: 1 repositories")
	assert.Contains(t, content, "**Unassigned Repositories (2):**")
	assert.Contains(t, content, "**Assign 2 unassigned repositories**")
}

func TestDiscoveryReport_CompleteStateRecommendsNextPhase(t *testing.T) {
	t.Parallel()

	state := model.NewAnalysisState("/repos")
	state.TotalRepositories = 1

	repo := model.NewRepoMetadata("api", "api")
	repo.Insights["purpose"] = "gateway"
	repo.AssignedComponents = []string{"core"}
	repo.UpdateDiscoveryStatus()
	state.Repositories["api"] = repo

	state.Components["core"] = &model.ComponentData{Name: "core", Repositories: []string{"api"}}

	content := DiscoveryReport(state)

	assert.Contains(t, content, "**Discovery appears complete**")
	assert.Contains(t, content, "**Coverage:** 100.0% of repositories assigned")
}

func TestDeepAnalysisReport_FullContent(t *testing.T) {
	t.Parallel()

	state := buildState(t)

	state.Repositories["billing"].DeepAnalysis = &model.DeepAnalysis{
		MarkdownSummary:   "Monolithic .NET service with nightly batch jobs.",
		DeepInsights:      map[string]any{"migration_risk": "medium"},
		AnalysisTimestamp: time.Now(),
	}

	state.DependencyRecords = []model.DependencyRecord{
		{SourceRepo: "billing", TargetRepo: "reporting", DependencyType: "database", Description: "reads BI views"},
	}

	content := DeepAnalysisReport(state, DeepReportOptions{
		IncludeBasics:       true,
		IncludeDependencies: true,
	})

	assert.Contains(t, content, "# Deep Repository Analysis Report")
	assert.Contains(t, content, "- Repositories with deep analysis: 1/3")
	assert.Contains(t, content, "Monolithic .NET service with nightly batch jobs.")
	assert.Contains(t, content, "- **migration_risk**: medium")
	assert.Contains(t, content, "*No deep analysis available*")
	assert.Contains(t, content, "- → `reporting` (database): reads BI views")
	assert.Contains(t, content, "- ← `billing` (database): reads BI views")
	assert.Contains(t, content, "## Dependency Analysis")
	assert.Contains(t, content, "```mermaid")
	assert.Contains(t, content, "- `legacy-ftp` (no dependencies)")
}

func TestDeepAnalysisReport_FilterAndFlags(t *testing.T) {
	t.Parallel()

	state := buildState(t)

	content := DeepAnalysisReport(state, DeepReportOptions{
		RepoFilter: []string{"billing"},
	})

	assert.Contains(t, content, "### billing")
	assert.NotContains(t, content, "### reporting")
	assert.NotContains(t, content, "**Basic Information:**")
	assert.NotContains(t, content, "## Dependency Analysis")
}

func TestFormatFileExtensions_TopTenPlusOthers(t *testing.T) {
	t.Parallel()

	counts := map[string]int{}
	for i := range 12 {
		counts[string(rune('a'+i))] = 100 - i
	}

	formatted := FormatFileExtensions(counts)

	require.Len(t, formatted, 11)
	assert.Equal(t, 100, formatted["a"])
	assert.Equal(t, 91, formatted["j"])

	// k (90) and l (89) collapse into others.
	assert.Equal(t, 179, formatted["others"])
	assert.NotContains(t, formatted, "k")

	assert.Empty(t, FormatFileExtensions(nil))
}
