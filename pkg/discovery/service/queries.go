package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
	"github.com/angangwa/migration-agent/pkg/discovery/report"
	"github.com/angangwa/migration-agent/pkg/discovery/validate"
)

// Graph output formats accepted by DependencyGraph.
const (
	GraphFormatStructured = "structured"
	GraphFormatMermaid    = "mermaid"
	GraphFormatBoth       = "both"
)

// readinessThreshold is the minimum investigation and assignment percentage
// before the discovery report is considered complete.
const readinessThreshold = 90

// RepositoryDetails returns everything known about one repository: scan
// statistics, insights, deep analysis, assignments, and optionally its
// dependency relationships.
func (s *Service) RepositoryDetails(ctx context.Context, repoName string, includeDependencies bool) model.Response {
	_ = ctx

	repo, ok := s.state.Repositories[repoName]
	if !ok {
		return model.Fail(
			fmt.Sprintf("Repository '%s' not found.", repoName),
			"Check repository name spelling",
			"List all repositories to see available names",
		)
	}

	details := map[string]any{
		"name":            repo.Name,
		"path":            repo.Path,
		"file_extensions": report.FormatFileExtensions(repo.FileCounts),
		"frameworks":      repo.TechnologyStack.Frameworks,
		"total_files":     repo.TotalFiles,
		"total_lines":     repo.TotalLines,
		"has_readme":      repo.HasReadme,
		"config_files":    repo.ConfigFiles,

		"insights":            repo.Insights,
		"assigned_components": repo.AssignedComponents,
		"discovery_status":    repo.DiscoveryPhaseStatus,

		"has_deep_analysis": repo.DeepAnalysis != nil,
	}

	if repo.DeepAnalysis != nil {
		details["markdown_summary"] = repo.DeepAnalysis.MarkdownSummary
		details["deep_insights"] = repo.DeepAnalysis.DeepInsights
		details["analysis_timestamp"] = repo.DeepAnalysis.AnalysisTimestamp
	} else {
		details["markdown_summary"] = nil
		details["deep_insights"] = map[string]any{}
		details["analysis_timestamp"] = nil
	}

	relationships := 0

	if includeDependencies {
		index := s.store.DependencyIndex()
		outgoing := index.Outgoing[repoName]
		incoming := index.Incoming[repoName]
		relationships = len(outgoing) + len(incoming)

		details["dependencies"] = map[string]any{
			"outgoing":       dependencyEntries(outgoing),
			"incoming":       dependencyEntries(incoming),
			"outgoing_count": len(outgoing),
			"incoming_count": len(incoming),
		}
	} else {
		details["dependencies"] = nil
	}

	nextStep := "Store a deep analysis to capture second-phase findings"
	if repo.DeepAnalysis != nil {
		nextStep = "Deep analysis available"
	}

	return model.Ok(details,
		"Repository details retrieved successfully",
		nextStep,
		"Record dependency relationships as you discover them",
	).WithMetadata(map[string]any{
		"phase_1_complete":         len(repo.Insights) > 0,
		"phase_2_complete":         repo.DeepAnalysis != nil,
		"has_components":           len(repo.AssignedComponents) > 0,
		"dependency_relationships": relationships,
	})
}

// ComponentsSummary returns all components with size validation, technology
// summaries, and overall assignment health.
func (s *Service) ComponentsSummary(ctx context.Context) model.Response {
	_ = ctx

	componentsData := map[string]any{}
	var largeComponents, smallComponents []string

	for name, component := range s.state.Components {
		sizing := validate.ComponentSize(len(component.Repositories))

		switch sizing.SizeCategory {
		case validate.SizeTooLarge:
			largeComponents = append(largeComponents, name)
		case validate.SizeTooSmall:
			smallComponents = append(smallComponents, name)
		}

		componentsData[name] = map[string]any{
			"name":               name,
			"purpose":            component.Purpose,
			"rationale":          component.Rationale,
			"repository_count":   len(component.Repositories),
			"repositories":       component.Repositories,
			"created_at":         component.CreatedAt,
			"size_category":      sizing.SizeCategory,
			"validation":         sizing,
			"technology_summary": s.componentTechSummary(component.Repositories),
		}
	}

	assignments := validate.Assignments(s.state)

	suggestions := componentSuggestions(componentsData, largeComponents, smallComponents, assignments)

	return model.Ok(map[string]any{
		"components":         componentsData,
		"validation_results": assignments,
	}, suggestions...).WithMetadata(map[string]any{
		"total_components":    len(componentsData),
		"total_repositories":  len(s.state.Repositories),
		"assignment_coverage": assignments.AssignmentCoverage,
		"unassigned_count":    len(assignments.UnassignedRepos),
	})
}

// DependencyGraph builds the dependency graph in the requested format:
// structured, mermaid, or both.
func (s *Service) DependencyGraph(ctx context.Context, format string, includeEvidence bool) model.Response {
	_ = ctx

	if format == "" {
		format = GraphFormatStructured
	}

	if format != GraphFormatStructured && format != GraphFormatMermaid && format != GraphFormatBoth {
		return model.Fail(
			fmt.Sprintf("Invalid format '%s'. Use: structured, mermaid, or both", format),
			"Use 'structured' for programmatic access",
			"Use 'mermaid' for visualization",
		)
	}

	graph := validate.BuildGraph(s.state, includeEvidence)

	if format == GraphFormatMermaid {
		return model.Ok(map[string]any{
			"mermaid":    graph.MermaidDiagram(),
			"statistics": graph.Statistics,
			"issues":     graph.Issues,
		},
			"Use Mermaid diagram for visualization",
			"Copy diagram to markdown files or documentation",
		)
	}

	if format == GraphFormatBoth {
		graph.Mermaid = graph.MermaidDiagram()
	}

	return model.Ok(graph,
		"Use 'edges' for programmatic dependency traversal",
		"Review 'issues' section for potential problems",
		"Check 'statistics' for dependency insights",
	)
}

// DiscoveryReport renders the first-phase discovery report.
func (s *Service) DiscoveryReport(ctx context.Context) model.Response {
	_ = ctx

	if len(s.state.Repositories) == 0 {
		return model.Fail(
			"No repositories in analysis state",
			"Run the repository inventory first to perform the initial scan",
		)
	}

	content := report.DiscoveryReport(s.state)
	progress := s.state.Progress()
	assignments := validate.Assignments(s.state)

	var readinessIssues []string

	if progress.InvestigationProgress < readinessThreshold {
		readinessIssues = append(readinessIssues,
			fmt.Sprintf("Only %.1f%% of repositories have insights", progress.InvestigationProgress))
	}

	if assignments.AssignmentCoverage < readinessThreshold {
		readinessIssues = append(readinessIssues,
			fmt.Sprintf("Only %.1f%% of repositories assigned to components", assignments.AssignmentCoverage))
	}

	if len(s.state.Components) == 0 {
		readinessIssues = append(readinessIssues, "No logical components have been created")
	}

	var suggestions []string

	if len(readinessIssues) > 0 {
		suggestions = append(suggestions, "Report generated but discovery may be incomplete:")

		for _, issue := range readinessIssues {
			suggestions = append(suggestions, "- "+issue)
		}

		suggestions = append(suggestions, "Consider completing analysis before final report generation")
	} else {
		suggestions = append(suggestions,
			"Discovery phase complete! Report generated successfully.",
			"Ready for handoff to migration planning teams.",
			"All repositories have insights and are assigned to logical components.",
		)
	}

	return model.Ok(map[string]any{
		"report_markdown": content,
		"report_length":   len(content),
	}, suggestions...).WithMetadata(map[string]any{
		"investigation_progress": progress.InvestigationProgress,
		"assignment_progress":    progress.AssignmentProgress,
		"components_created":     progress.ComponentsCreated,
		"readiness_issues":       readinessIssues,
	})
}

// DeepAnalysisReport renders the second-phase analysis report, optionally
// filtered to specific repositories.
func (s *Service) DeepAnalysisReport(ctx context.Context, includeBasics, includeDependencies bool, repoFilter []string) model.Response {
	_ = ctx

	var invalid []string

	for _, name := range repoFilter {
		if _, ok := s.state.Repositories[name]; !ok {
			invalid = append(invalid, name)
		}
	}

	if len(invalid) > 0 {
		return model.Fail(
			fmt.Sprintf("Invalid repositories in filter: %s", strings.Join(invalid, ", ")),
			"Check repository names in filter",
			"List all repositories to see available names",
		)
	}

	content := report.DeepAnalysisReport(s.state, report.DeepReportOptions{
		RepoFilter:          repoFilter,
		IncludeBasics:       includeBasics,
		IncludeDependencies: includeDependencies,
	})

	analyzed := 0

	for _, repo := range s.state.Repositories {
		if repo.DeepAnalysis != nil {
			analyzed++
		}
	}

	return model.Ok(map[string]any{
		"report_markdown": content,
		"report_length":   len(content),
	},
		"Save report to a markdown file for documentation",
		"Share with stakeholders and migration teams",
	).WithMetadata(map[string]any{
		"repositories_included":   len(repoFilter),
		"deep_analysis_available": analyzed,
		"total_dependencies":      len(s.state.DependencyRecords),
	})
}

// repoSummary is the inventory projection of one repository.
func repoSummary(name string, repo *model.RepoMetadata) map[string]any {
	return map[string]any{
		"name":                name,
		"path":                repo.Path,
		"file_extensions":     report.FormatFileExtensions(repo.FileCounts),
		"frameworks":          repo.TechnologyStack.Frameworks,
		"total_files":         repo.TotalFiles,
		"total_lines":         repo.TotalLines,
		"has_readme":          repo.HasReadme,
		"assigned_components": repo.AssignedComponents,
		"discovery_status":    repo.DiscoveryPhaseStatus,
	}
}

// investigationSuggestions proposes where to start reading a repository.
func investigationSuggestions(repo *model.RepoMetadata) []string {
	var suggestions []string

	if repo.HasReadme {
		suggestions = append(suggestions, "Read README.md to understand stated purpose")
	} else {
		suggestions = append(suggestions, "Read any documentation files to understand purpose")
	}

	if len(repo.ConfigFiles) > 0 {
		shown := repo.ConfigFiles
		if len(shown) > 3 {
			shown = shown[:3]
		}

		suggestions = append(suggestions, fmt.Sprintf("Examine config files: %s", strings.Join(shown, ", ")))
	}

	switch {
	case repo.FileCounts[".py"] > 0:
		suggestions = append(suggestions, "Look for main.py, app.py, or manage.py entry points")
	case repo.FileCounts[".js"] > 0:
		suggestions = append(suggestions, "Check package.json and look for index.js or server.js")
	case repo.FileCounts[".java"] > 0:
		suggestions = append(suggestions, "Find Main.java or Application.java entry points")
	}

	return suggestions
}

// componentTechSummary aggregates file types and frameworks across a
// component's repositories.
func (s *Service) componentTechSummary(repoNames []string) map[string]any {
	fileTypes := map[string]int{}
	frameworkSet := map[string]struct{}{}

	for _, name := range repoNames {
		repo, ok := s.state.Repositories[name]
		if !ok {
			continue
		}

		for ext, count := range repo.FileCounts {
			fileTypes[ext] += count
		}

		for _, framework := range repo.TechnologyStack.Frameworks {
			frameworkSet[framework] = struct{}{}
		}
	}

	frameworks := make([]string, 0, len(frameworkSet))
	for framework := range frameworkSet {
		frameworks = append(frameworks, framework)
	}

	sort.Strings(frameworks)

	return map[string]any{
		"primary_file_types":  fileTypes,
		"frameworks":          frameworks,
		"file_type_diversity": len(fileTypes),
		"framework_count":     len(frameworks),
	}
}

// componentSuggestions turns the summary data into actionable next steps.
func componentSuggestions(componentsData map[string]any, large, small []string, assignments validate.AssignmentResult) []string {
	if len(componentsData) == 0 {
		return []string{
			"No components created yet",
			"Create logical groupings for repositories",
			"Start with clear business functions or technology stacks",
		}
	}

	var suggestions []string

	if len(assignments.UnassignedRepos) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Assign %d unassigned repositories to components", len(assignments.UnassignedRepos)))
	}

	sort.Strings(large)
	sort.Strings(small)

	if len(large) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Consider splitting large components: %s", strings.Join(large, ", ")))
	}

	if len(small) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Review small components for potential merging: %s", strings.Join(small, ", ")))
	}

	if assignments.AssignmentCoverage >= 95 {
		suggestions = append(suggestions,
			"Excellent! Nearly all repositories assigned to components",
			"Ready to generate the final discovery report",
		)
	}

	return suggestions
}

// dependencyEntries projects dependency records for API output.
func dependencyEntries(records []model.DependencyRecord) []map[string]any {
	entries := make([]map[string]any, 0, len(records))

	for _, record := range records {
		entries = append(entries, map[string]any{
			"source_repo":     record.SourceRepo,
			"target_repo":     record.TargetRepo,
			"dependency_type": record.DependencyType,
			"description":     record.Description,
			"evidence":        record.Evidence,
			"created_at":      record.CreatedAt,
		})
	}

	return entries
}

// progressMetadata renders the progress summary as response metadata.
func progressMetadata(state *model.AnalysisState) map[string]any {
	progress := state.Progress()

	return map[string]any{
		"total_repositories":                  progress.TotalRepositories,
		"repositories_with_insights":          progress.RepositoriesWithInsights,
		"repositories_assigned_to_components": progress.RepositoriesAssigned,
		"components_created":                  progress.ComponentsCreated,
		"unassigned_repos":                    progress.UnassignedRepos,
		"investigation_progress":              progress.InvestigationProgress,
		"assignment_progress":                 progress.AssignmentProgress,
	}
}

// assignmentCoverage is the percentage of repositories with at least one
// component.
func assignmentCoverage(state *model.AnalysisState) float64 {
	if len(state.Repositories) == 0 {
		return 0
	}

	assigned := 0

	for _, repo := range state.Repositories {
		if len(repo.AssignedComponents) > 0 {
			assigned++
		}
	}

	return float64(assigned) / float64(len(state.Repositories)) * 100
}

func validateComponentSizeOf(component *model.ComponentData) validate.ComponentSizeResult {
	return validate.ComponentSize(len(component.Repositories))
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}

	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
