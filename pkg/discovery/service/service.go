// Package service implements the discovery operations: scan-or-cached
// inventory, insight and deep-analysis storage, component management,
// dependency recording, and report generation. Every operation returns a
// structured response envelope; validation always runs before mutation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angangwa/migration-agent/pkg/discovery/analyzer"
	"github.com/angangwa/migration-agent/pkg/discovery/model"
	"github.com/angangwa/migration-agent/pkg/discovery/storage"
)

// Config wires the service's collaborators.
type Config struct {
	// ReposPath is the directory containing candidate repositories.
	ReposPath string

	// Store persists the analysis state.
	Store *storage.Store

	// Analyzer scans individual repositories.
	Analyzer *analyzer.Analyzer

	// Workers bounds scan concurrency; zero selects the default.
	Workers int

	// Logger receives operation diagnostics. Defaults to slog.Default.
	Logger *slog.Logger

	// Progress receives bulk-scan progress updates; may be nil.
	Progress analyzer.ProgressFunc
}

// Service coordinates scanning, state mutation, and reporting.
type Service struct {
	reposPath string
	store     *storage.Store
	analyzer  *analyzer.Analyzer
	workers   int
	logger    *slog.Logger
	progress  analyzer.ProgressFunc

	state               *model.AnalysisState
	initialAnalysisDone bool
}

// New creates the service and loads (or initializes) the persisted state.
// The initial bulk scan is considered done when a previous run completed it.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("service config: store is required")
	}

	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("service config: analyzer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	state := cfg.Store.Load(cfg.ReposPath)

	return &Service{
		reposPath:           cfg.ReposPath,
		store:               cfg.Store,
		analyzer:            cfg.Analyzer,
		workers:             cfg.Workers,
		logger:              logger,
		progress:            cfg.Progress,
		state:               state,
		initialAnalysisDone: state.AnalysisCompleted != nil,
	}, nil
}

// State exposes the loaded analysis state for read-only consumers.
func (s *Service) State() *model.AnalysisState {
	return s.state
}

// Repositories returns the full repository inventory, performing the initial
// bulk scan on first call and cached results afterwards.
func (s *Service) Repositories(ctx context.Context) model.Response {
	if !s.initialAnalysisDone {
		return s.performInitialAnalysis(ctx)
	}

	data := map[string]any{}
	for name, repo := range s.state.Repositories {
		data[name] = repoSummary(name, repo)
	}

	return model.Ok(data,
		"Use the unanalyzed-repositories listing to find repositories needing investigation or assignment",
		"Investigate repositories using filesystem tools to understand their purpose",
		"Store insights after investigating each repository",
		"Create logical components and assign repositories to them",
	).WithMetadata(progressMetadata(s.state))
}

// performInitialAnalysis runs the parallel bulk scan and persists results.
func (s *Service) performInitialAnalysis(ctx context.Context) model.Response {
	repoPaths := analyzer.FindRepositories(s.reposPath)
	if len(repoPaths) == 0 {
		return model.Fail(
			fmt.Sprintf("No repositories found in %s", s.reposPath),
			fmt.Sprintf("Ensure repositories exist in %s", s.reposPath),
			"Check that the repositories path is correct",
			"Repositories should be subdirectories with code files",
		)
	}

	s.logger.InfoContext(ctx, "starting initial repository analysis",
		"path", s.reposPath,
		"repositories", len(repoPaths),
		"workers", s.workers)

	started := time.Now()
	s.state.AnalysisStarted = &started
	s.state.TotalRepositories = len(repoPaths)

	results := analyzer.ScanAll(repoPaths, s.analyzer.Scan, s.workers, s.progress)

	s.store.BatchUpdate(func(batch *storage.Batch) {
		for name, meta := range results {
			batch.UpdateRepository(name, meta)
		}
	})

	completed := time.Now()
	s.state.AnalysisCompleted = &completed
	s.initialAnalysisDone = true

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "scan results could not be persisted; continuing with in-memory state")
	}

	data := map[string]any{}
	for name, meta := range results {
		data[name] = repoSummary(name, meta)
	}

	s.logger.InfoContext(ctx, "initial repository analysis complete",
		"repositories", len(results),
		"duration", completed.Sub(started))

	return model.Ok(data,
		fmt.Sprintf("Analyzed %d repositories", len(results)),
		"Investigate each repository and store insights",
		"Create logical components and assign repositories to them",
	).WithMetadata(progressMetadata(s.state))
}

// UnanalyzedRepositories lists repositories still lacking insights or a
// component assignment, with per-repository investigation hints.
func (s *Service) UnanalyzedRepositories(ctx context.Context) model.Response {
	_ = ctx

	unanalyzed := map[string]any{}
	needsInsights := 0
	needsAssignment := 0

	for name, repo := range s.state.Repositories {
		if len(repo.Insights) > 0 && len(repo.AssignedComponents) > 0 {
			continue
		}

		if len(repo.Insights) == 0 {
			needsInsights++
		} else {
			needsAssignment++
		}

		entry := repoSummary(name, repo)
		entry["suggested_investigation"] = investigationSuggestions(repo)
		unanalyzed[name] = entry
	}

	var suggestions []string

	if len(unanalyzed) > 0 {
		suggestions = []string{
			fmt.Sprintf("%d repositories need attention", len(unanalyzed)),
			fmt.Sprintf("%d repositories need investigation (use filesystem tools)", needsInsights),
			fmt.Sprintf("%d repositories need component assignment", needsAssignment),
			"Store findings after investigating each repository",
			"Assign repositories to components",
		}
	} else {
		suggestions = []string{
			"All repositories have insights and are assigned to components",
			"Discovery phase complete - ready to generate final report",
		}
	}

	completion := 0.0
	if len(s.state.Repositories) > 0 {
		done := len(s.state.Repositories) - len(unanalyzed)
		completion = float64(done) / float64(len(s.state.Repositories)) * 100
	}

	return model.Ok(unanalyzed, suggestions...).WithMetadata(map[string]any{
		"repositories_needing_attention": len(unanalyzed),
		"total_repos":                    len(s.state.Repositories),
		"discovery_completion":           completion,
	})
}

// StoreInsights merges agent-supplied insights into a repository and
// refreshes its discovery status.
func (s *Service) StoreInsights(ctx context.Context, repoName string, insights map[string]any) model.Response {
	repo, ok := s.state.Repositories[repoName]
	if !ok {
		return model.Fail(
			fmt.Sprintf("Repository '%s' not found in analysis state", repoName),
			"List all repositories to see available names",
			"Check repository name spelling",
			"Ensure initial analysis has been completed",
		)
	}

	for key, value := range insights {
		repo.Insights[key] = value
	}

	repo.UpdateDiscoveryStatus()
	s.store.UpdateRepository(repoName, repo)

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "insights stored in memory but not persisted", "repo", repoName)
	}

	return model.Ok(map[string]any{
		"repo_name":        repoName,
		"insights_stored":  len(insights),
		"total_insights":   len(repo.Insights),
		"discovery_status": repo.DiscoveryPhaseStatus,
	},
		fmt.Sprintf("Successfully stored insights for %s", repoName),
		"Repository discovery status updated automatically",
		"Continue with remaining unanalyzed repositories",
		"Assign repository to components when ready",
	).WithMetadata(map[string]any{
		"insights_keys":   sortedKeys(insights),
		"repository_path": repo.Path,
	})
}

// StoreDeepAnalysis attaches second-phase analysis to a repository,
// replacing any previous deep analysis.
func (s *Service) StoreDeepAnalysis(ctx context.Context, repoName, markdownSummary string, deepInsights map[string]any) model.Response {
	repo, ok := s.state.Repositories[repoName]
	if !ok {
		return model.Fail(
			fmt.Sprintf("Repository '%s' not found", repoName),
			"Check repository name spelling",
			"List all repositories to see available names",
			"Ensure repository has been discovered during the initial scan",
		)
	}

	hadPrevious := repo.DeepAnalysis != nil

	if deepInsights == nil {
		deepInsights = map[string]any{}
	}

	repo.DeepAnalysis = &model.DeepAnalysis{
		MarkdownSummary:   markdownSummary,
		DeepInsights:      deepInsights,
		AnalysisTimestamp: time.Now(),
	}

	s.store.MarkDirty()

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "deep analysis stored in memory but not persisted", "repo", repoName)
	}

	return model.Ok(map[string]any{
		"repository":         repoName,
		"markdown_length":    len(markdownSummary),
		"insights_count":     len(deepInsights),
		"analysis_timestamp": repo.DeepAnalysis.AnalysisTimestamp,
	},
		"Deep analysis stored successfully",
		"Record dependencies to other repositories as you find them",
		"Request repository details to see the complete picture",
	).WithMetadata(map[string]any{
		"operation":             "store_deep_analysis",
		"had_previous_analysis": hadPrevious,
	})
}

// AddComponent creates a logical component. Names are restricted to
// letters, digits, hyphens, and underscores; duplicates are rejected.
func (s *Service) AddComponent(ctx context.Context, name, purpose, rationale string) model.Response {
	if !model.ValidComponentName(name) {
		return model.Fail(
			"Component name must be alphanumeric with hyphens/underscores only",
			"Use kebab-case naming (e.g., 'customer-services')",
			"Example names: 'api-gateway', 'data-processing', 'user-management'",
		)
	}

	if _, exists := s.state.Components[name]; exists {
		return model.Fail(
			fmt.Sprintf("Component '%s' already exists", name),
			"Use a different component name",
			"Or assign repositories to the existing component",
			"Request the components summary to see existing components",
		)
	}

	component := &model.ComponentData{
		Name:         name,
		Purpose:      purpose,
		Rationale:    rationale,
		Repositories: []string{},
		CreatedAt:    time.Now(),
	}

	s.store.AddComponent(name, component)

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "component created in memory but not persisted", "component", name)
	}

	return model.Ok(map[string]any{
		"component_name": name,
		"purpose":        purpose,
		"rationale":      rationale,
		"created_at":     component.CreatedAt,
		"repositories":   []string{},
	},
		fmt.Sprintf("Successfully created component '%s'", name),
		"Now assign repositories to the component",
		"Aim for 3-15 repositories per component for optimal migration planning",
	).WithMetadata(map[string]any{
		"total_components": len(s.state.Components),
	})
}

// AssignRepository links a repository to a component bidirectionally.
// Re-assigning an existing pair is rejected without mutation.
func (s *Service) AssignRepository(ctx context.Context, repoName, componentName string) model.Response {
	repo, repoExists := s.state.Repositories[repoName]
	if !repoExists {
		return model.Fail(
			fmt.Sprintf("Repository '%s' not found", repoName),
			"List all repositories to see available names",
			"Check repository name spelling",
			"Ensure repository has been analyzed",
		)
	}

	if _, componentExists := s.state.Components[componentName]; !componentExists {
		return model.Fail(
			fmt.Sprintf("Component '%s' not found", componentName),
			"Create the component first",
			"Request the components summary to see existing components",
			"Check component name spelling",
		)
	}

	if containsString(repo.AssignedComponents, componentName) {
		return model.Fail(
			fmt.Sprintf("Repository '%s' is already assigned to component '%s'", repoName, componentName),
			"Repository is already assigned to this component",
			"Request the components summary to see current assignments",
			"Assign to a different component if needed",
		)
	}

	s.store.AssignRepositoryToComponent(repoName, componentName)

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "assignment stored in memory but not persisted",
			"repo", repoName, "component", componentName)
	}

	component := s.state.Components[componentName]
	sizing := validateComponentSizeOf(component)

	suggestions := []string{fmt.Sprintf("Successfully assigned '%s' to component '%s'", repoName, componentName)}

	for _, warning := range sizing.Warnings {
		suggestions = append(suggestions, "Warning: "+warning)
	}

	suggestions = append(suggestions, sizing.Suggestions...)

	return model.Ok(map[string]any{
		"repo_name":                  repoName,
		"component_name":             componentName,
		"component_repository_count": len(component.Repositories),
		"repository_components":      repo.AssignedComponents,
	}, suggestions...).WithMetadata(map[string]any{
		"validation":          sizing,
		"assignment_coverage": assignmentCoverage(s.state),
	})
}

// AddDependency records a dependency between two existing repositories.
// The type is normalized to lower-case/trimmed; duplicate
// (source, target, type) triples are rejected.
func (s *Service) AddDependency(ctx context.Context, sourceRepo, targetRepo, dependencyType, description string, evidence []string) model.Response {
	if _, ok := s.state.Repositories[sourceRepo]; !ok {
		return model.Fail(
			fmt.Sprintf("Source repository '%s' not found.", sourceRepo),
			"Check source repository name spelling",
			"List all repositories to see available names",
		)
	}

	if _, ok := s.state.Repositories[targetRepo]; !ok {
		return model.Fail(
			fmt.Sprintf("Target repository '%s' not found.", targetRepo),
			"Check target repository name spelling",
			"List all repositories to see available names",
		)
	}

	dependencyType = strings.ToLower(strings.TrimSpace(dependencyType))
	if dependencyType == "" {
		return model.Fail(
			"Dependency type must be a non-empty string",
			"Common dependency types: code, api, database, config, build, runtime",
			"Use descriptive types that help understand the relationship",
		)
	}

	for _, existing := range s.state.DependencyRecords {
		if existing.SourceRepo == sourceRepo && existing.TargetRepo == targetRepo &&
			existing.DependencyType == dependencyType {
			return model.Fail(
				fmt.Sprintf("Dependency already exists: %s -> %s (%s)", sourceRepo, targetRepo, dependencyType),
				"Dependency is already recorded",
				"Request the dependency graph to see all dependencies",
			)
		}
	}

	if evidence == nil {
		evidence = []string{}
	}

	record := model.DependencyRecord{
		SourceRepo:     sourceRepo,
		TargetRepo:     targetRepo,
		DependencyType: dependencyType,
		Description:    description,
		Evidence:       evidence,
		CreatedAt:      time.Now(),
	}

	s.store.AddDependency(record)

	if !s.store.Save(s.state, false) {
		s.logger.WarnContext(ctx, "dependency stored in memory but not persisted",
			"source", sourceRepo, "target", targetRepo)
	}

	return model.Ok(map[string]any{
		"source_repo":     sourceRepo,
		"target_repo":     targetRepo,
		"dependency_type": dependencyType,
		"evidence_count":  len(evidence),
		"created_at":      record.CreatedAt,
	},
		fmt.Sprintf("Dependency recorded: %s -> %s", sourceRepo, targetRepo),
		"Request the dependency graph to visualize all dependencies",
	).WithMetadata(map[string]any{
		"operation":          "add_dependency",
		"total_dependencies": len(s.state.DependencyRecords),
	})
}
