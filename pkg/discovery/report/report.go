// Package report renders human-readable markdown reports from the analysis
// state. Section order is fixed and map iteration is sorted so the same
// state always renders the same document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
	"github.com/angangwa/migration-agent/pkg/discovery/storage"
	"github.com/angangwa/migration-agent/pkg/discovery/validate"
)

// repository status buckets for the inventory section, in render order.
const (
	bucketComplete           = "Complete (Has Insights & Assigned)"
	bucketNeedsAssignment    = "Needs Component Assignment"
	bucketNeedsInvestigation = "Needs Investigation"
)

// DiscoveryReport renders the full discovery report: executive summary,
// repository inventory grouped by status, component analysis, technology
// summary, assignment validation, and recommendations.
func DiscoveryReport(state *model.AnalysisState) string {
	var b strings.Builder

	b.WriteString("# Legacy Application Discovery Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Base Path:** `%s`\n\n", state.BaseReposPath)

	writeExecutiveSummary(&b, state)
	writeRepositoryInventory(&b, state)
	writeComponentAnalysis(&b, state)
	writeTechnologySummary(&b, state)

	assignments := validate.Assignments(state)

	writeAssignmentValidation(&b, assignments)
	writeRecommendations(&b, state, assignments)

	return b.String()
}

func writeExecutiveSummary(b *strings.Builder, state *model.AnalysisState) {
	progress := state.Progress()

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(b, "- **Total Repositories:** %d\n", progress.TotalRepositories)
	fmt.Fprintf(b, "- **Investigation Progress:** %.1f%%\n", progress.InvestigationProgress)
	fmt.Fprintf(b, "- **Repositories with Insights:** %d\n", progress.RepositoriesWithInsights)
	fmt.Fprintf(b, "- **Logical Components:** %d\n", progress.ComponentsCreated)
	fmt.Fprintf(b, "- **Unassigned Repositories:** %d\n\n", progress.UnassignedRepos)
}

func writeRepositoryInventory(b *strings.Builder, state *model.AnalysisState) {
	b.WriteString("## Repository Inventory\n\n")

	buckets := map[string][]string{}

	for _, name := range sortedRepoNames(state) {
		repo := state.Repositories[name]

		switch {
		case len(repo.Insights) > 0 && len(repo.AssignedComponents) > 0:
			buckets[bucketComplete] = append(buckets[bucketComplete], name)
		case len(repo.Insights) > 0:
			buckets[bucketNeedsAssignment] = append(buckets[bucketNeedsAssignment], name)
		default:
			buckets[bucketNeedsInvestigation] = append(buckets[bucketNeedsInvestigation], name)
		}
	}

	for _, bucket := range []string{bucketComplete, bucketNeedsAssignment, bucketNeedsInvestigation} {
		names := buckets[bucket]
		if len(names) == 0 {
			continue
		}

		fmt.Fprintf(b, "### %s (%d)\n\n", bucket, len(names))

		for _, name := range names {
			writeRepositoryEntry(b, name, state.Repositories[name])
		}
	}
}

func writeRepositoryEntry(b *strings.Builder, name string, repo *model.RepoMetadata) {
	fmt.Fprintf(b, "**%s**\n", name)

	if len(repo.TechnologyStack.Frameworks) > 0 {
		shown := repo.TechnologyStack.Frameworks
		if len(shown) > 5 {
			shown = shown[:5]
		}

		fmt.Fprintf(b, "- Frameworks: %s\n", strings.Join(shown, ", "))
	}

	if len(repo.FileCounts) > 0 {
		top := topExtensions(repo.FileCounts, 5)
		parts := make([]string, 0, len(top))

		for _, ext := range top {
			parts = append(parts, fmt.Sprintf("%s: %d", ext.Name, ext.Count))
		}

		fmt.Fprintf(b, "- File types: %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(b, "- Files: %d\n", repo.TotalFiles)
	fmt.Fprintf(b, "- Lines: %d\n", repo.TotalLines)
	fmt.Fprintf(b, "- Status: %s\n", repo.DiscoveryPhaseStatus)

	components := strings.Join(repo.AssignedComponents, ", ")
	if components == "" {
		components = "Unassigned"
	}

	fmt.Fprintf(b, "- Components: %s\n", components)

	if len(repo.Insights) > 0 {
		b.WriteString("- **Insights:**\n")

		for _, key := range sortedKeys(repo.Insights) {
			if key == "analysis_error" {
				continue
			}

			fmt.Fprintf(b, "  - %s: %v\n", key, repo.Insights[key])
		}
	}

	b.WriteString("\n")
}

func writeComponentAnalysis(b *strings.Builder, state *model.AnalysisState) {
	if len(state.Components) == 0 {
		return
	}

	b.WriteString("## Logical Components Analysis\n\n")

	names := make([]string, 0, len(state.Components))
	for name := range state.Components {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		component := state.Components[name]
		sizing := validate.ComponentSize(len(component.Repositories))

		fmt.Fprintf(b, "### %s\n\n", name)
		fmt.Fprintf(b, "**Purpose:** %s\n\n", component.Purpose)
		fmt.Fprintf(b, "**Rationale:** %s\n\n", component.Rationale)
		fmt.Fprintf(b, "**Repositories (%d):** %s\n\n", len(component.Repositories), strings.Join(component.Repositories, ", "))
		fmt.Fprintf(b, "**Size Assessment:** %s\n\n", validate.SizeAssessmentLabel(sizing.SizeCategory))

		if len(sizing.Warnings) > 0 {
			b.WriteString("**Warnings:**\n")

			for _, warning := range sizing.Warnings {
				fmt.Fprintf(b, "- %s\n", warning)
			}

			b.WriteString("\n")
		}
	}
}

func writeTechnologySummary(b *strings.Builder, state *model.AnalysisState) {
	counts := map[string]int{}

	for _, repo := range state.Repositories {
		for _, framework := range repo.TechnologyStack.Frameworks {
			counts[framework]++
		}
	}

	if len(counts) == 0 {
		return
	}

	b.WriteString("## Technology Stack Summary\n\n")
	b.WriteString("**Frameworks:**\n")

	for _, entry := range topCounts(counts, 10) {
		fmt.Fprintf(b, "- %s: %d repositories\n", entry.Name, entry.Count)
	}

	b.WriteString("\n")
}

func writeAssignmentValidation(b *strings.Builder, assignments validate.AssignmentResult) {
	b.WriteString("## Assignment Validation\n\n")
	fmt.Fprintf(b, "**Coverage:** %.1f%% of repositories assigned\n\n", assignments.AssignmentCoverage)

	if len(assignments.UnassignedRepos) > 0 {
		fmt.Fprintf(b, "**Unassigned Repositories (%d):**\n", len(assignments.UnassignedRepos))

		for _, repo := range assignments.UnassignedRepos {
			fmt.Fprintf(b, "- %s\n", repo)
		}

		b.WriteString("\n")
	}

	if len(assignments.MultiAssignedRepos) > 0 {
		b.WriteString("**Multi-assigned Repositories:**\n")

		for _, item := range assignments.MultiAssignedRepos {
			fmt.Fprintf(b, "- %s: %s\n", item.Repo, strings.Join(item.Components, ", "))
		}

		b.WriteString("\n")
	}
}

func writeRecommendations(b *strings.Builder, state *model.AnalysisState, assignments validate.AssignmentResult) {
	b.WriteString("## Recommendations\n\n")
	b.WriteString("### Immediate Actions\n")

	wrote := false

	if len(assignments.UnassignedRepos) > 0 {
		fmt.Fprintf(b, "1. **Assign %d unassigned repositories** to appropriate components\n", len(assignments.UnassignedRepos))
		b.WriteString("   - Review repository purposes and group by business function or technology stack\n\n")

		wrote = true
	}

	var large []string

	for name, component := range state.Components {
		if len(component.Repositories) >= 20 {
			large = append(large, name)
		}
	}

	sort.Strings(large)

	if len(large) > 0 {
		b.WriteString("2. **Review large components** for potential splitting:\n")

		for _, name := range large {
			fmt.Fprintf(b, "   - %s: %d repositories\n", name, len(state.Components[name].Repositories))
		}

		b.WriteString("\n")

		wrote = true
	}

	progress := state.Progress()
	if progress.InvestigationProgress < 100 && progress.TotalRepositories > 0 {
		remaining := progress.TotalRepositories - progress.RepositoriesWithInsights

		fmt.Fprintf(b, "3. **Complete investigation** of %d remaining repositories\n", remaining)
		b.WriteString("   - Use filesystem tools to understand repository purposes\n")
		b.WriteString("   - Store detailed insights for each repository\n\n")

		wrote = true
	}

	if !wrote {
		b.WriteString("1. **Discovery appears complete** - all repositories have insights and are assigned\n")
		b.WriteString("2. **Ready for next phase** - detailed migration planning can begin\n\n")
	}
}

// DeepReportOptions controls the deep-analysis report content.
type DeepReportOptions struct {
	// RepoFilter limits the report to specific repositories; nil means all.
	// Names must exist in the state.
	RepoFilter []string

	// IncludeBasics adds the first-phase scan statistics per repository.
	IncludeBasics bool

	// IncludeDependencies adds per-repository and graph-level dependency
	// sections.
	IncludeDependencies bool
}

// DeepAnalysisReport renders the second-phase analysis report: per-repository
// deep dives with optional scan basics and dependency context, followed by a
// graph-level dependency analysis with a Mermaid diagram.
func DeepAnalysisReport(state *model.AnalysisState, opts DeepReportOptions) string {
	var b strings.Builder

	b.WriteString("# Deep Repository Analysis Report\n")
	fmt.Fprintf(&b, "\n**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total Repositories:** %d\n", len(state.Repositories))

	analyzed := 0

	for _, repo := range state.Repositories {
		if repo.DeepAnalysis != nil {
			analyzed++
		}
	}

	b.WriteString("\n## Executive Summary\n")
	fmt.Fprintf(&b, "- Repositories with deep analysis: %d/%d\n", analyzed, len(state.Repositories))
	fmt.Fprintf(&b, "- Total dependency relationships: %d\n", len(state.DependencyRecords))

	completion := 0.0
	if len(state.Repositories) > 0 {
		completion = float64(analyzed) / float64(len(state.Repositories)) * 100
	}

	fmt.Fprintf(&b, "- Analysis completion: %.1f%%\n", completion)

	b.WriteString("\n## Repository Analysis\n")

	names := opts.RepoFilter
	if len(names) == 0 {
		names = sortedRepoNames(state)
	}

	index := storage.BuildDependencyIndex(state.DependencyRecords)

	for _, name := range names {
		repo, ok := state.Repositories[name]
		if !ok {
			continue
		}

		writeDeepRepoSection(&b, name, repo, index, opts)
	}

	if opts.IncludeDependencies && len(state.DependencyRecords) > 0 {
		writeDependencyAnalysis(&b, state)
	}

	return b.String()
}

func writeDeepRepoSection(b *strings.Builder, name string, repo *model.RepoMetadata, index *storage.DependencyIndex, opts DeepReportOptions) {
	fmt.Fprintf(b, "\n### %s\n", name)

	if opts.IncludeBasics {
		b.WriteString("\n**Basic Information:**\n")
		fmt.Fprintf(b, "- Path: `%s`\n", repo.Path)
		fmt.Fprintf(b, "- Files: %d (%d lines)\n", repo.TotalFiles, repo.TotalLines)

		if len(repo.FileCounts) > 0 {
			top := topExtensions(repo.FileCounts, 3)
			parts := make([]string, 0, len(top))

			for _, ext := range top {
				parts = append(parts, ext.Name)
			}

			fmt.Fprintf(b, "- Primary file types: %s\n", strings.Join(parts, ", "))
		}

		if len(repo.TechnologyStack.Frameworks) > 0 {
			fmt.Fprintf(b, "- Frameworks: %s\n", strings.Join(repo.TechnologyStack.Frameworks, ", "))
		}
	}

	if repo.DeepAnalysis != nil {
		b.WriteString("\n**Deep Analysis:**\n")
		b.WriteString(repo.DeepAnalysis.MarkdownSummary)
		b.WriteString("\n")

		if len(repo.DeepAnalysis.DeepInsights) > 0 {
			b.WriteString("\n**Key Insights:**\n")

			for _, key := range sortedKeys(repo.DeepAnalysis.DeepInsights) {
				fmt.Fprintf(b, "- **%s**: %v\n", key, repo.DeepAnalysis.DeepInsights[key])
			}
		}
	} else {
		b.WriteString("\n*No deep analysis available*\n")
	}

	if !opts.IncludeDependencies {
		return
	}

	outgoing := index.Outgoing[name]
	incoming := index.Incoming[name]

	if len(outgoing) == 0 && len(incoming) == 0 {
		return
	}

	b.WriteString("\n**Dependencies:**\n")

	if len(outgoing) > 0 {
		b.WriteString("\n*Depends on:*\n")

		for _, dep := range outgoing {
			fmt.Fprintf(b, "- → `%s` (%s): %s\n", dep.TargetRepo, dep.DependencyType, dep.Description)
		}
	}

	if len(incoming) > 0 {
		b.WriteString("\n*Depended upon by:*\n")

		for _, dep := range incoming {
			fmt.Fprintf(b, "- ← `%s` (%s): %s\n", dep.SourceRepo, dep.DependencyType, dep.Description)
		}
	}
}

func writeDependencyAnalysis(b *strings.Builder, state *model.AnalysisState) {
	graph := validate.BuildGraph(state, false)

	b.WriteString("\n## Dependency Analysis\n")
	fmt.Fprintf(b, "- Total dependencies: %d\n", graph.Statistics.TotalDependencies)
	fmt.Fprintf(b, "- Repositories with dependencies: %d\n", graph.Statistics.RepositoriesWithDependencies)

	if graph.Statistics.MostDependedUpon != "" {
		fmt.Fprintf(b, "- Most depended upon: `%s`\n", graph.Statistics.MostDependedUpon)
	}

	if graph.Statistics.MostDependent != "" {
		fmt.Fprintf(b, "- Most dependent: `%s`\n", graph.Statistics.MostDependent)
	}

	if len(graph.Issues.CircularDependencies) > 0 {
		b.WriteString("\n**Circular Dependencies Detected:**\n")

		for _, cycle := range graph.Issues.CircularDependencies {
			fmt.Fprintf(b, "- %s\n", strings.Join(cycle, " <-> "))
		}
	}

	if len(graph.Issues.OrphanedRepositories) > 0 {
		b.WriteString("\n**Isolated Repositories:**\n")

		for _, orphan := range graph.Issues.OrphanedRepositories {
			fmt.Fprintf(b, "- `%s` (no dependencies)\n", orphan)
		}
	}

	b.WriteString("\n### Dependency Diagram\n")
	b.WriteString("\n```mermaid\n")
	b.WriteString(graph.MermaidDiagram())
	b.WriteString("\n```\n")
}

// ExtensionCount pairs a file extension with its count for formatting.
type ExtensionCount struct {
	Name  string
	Count int
}

// FormatFileExtensions returns the top 10 extensions by count with the rest
// summed under "others".
func FormatFileExtensions(fileCounts map[string]int) map[string]int {
	if len(fileCounts) == 0 {
		return map[string]int{}
	}

	sorted := topExtensions(fileCounts, len(fileCounts))
	formatted := map[string]int{}
	others := 0

	for i, entry := range sorted {
		if i < 10 {
			formatted[entry.Name] = entry.Count
		} else {
			others += entry.Count
		}
	}

	if others > 0 {
		formatted["others"] = others
	}

	return formatted
}

// topExtensions returns up to limit extensions sorted by descending count,
// ties broken by name.
func topExtensions(fileCounts map[string]int, limit int) []ExtensionCount {
	return topCounts(fileCounts, limit)
}

func topCounts(counts map[string]int, limit int) []ExtensionCount {
	entries := make([]ExtensionCount, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, ExtensionCount{Name: name, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Name < entries[j].Name
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries
}

func sortedRepoNames(state *model.AnalysisState) []string {
	names := make([]string, 0, len(state.Repositories))
	for name := range state.Repositories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
