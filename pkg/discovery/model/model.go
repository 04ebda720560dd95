// Package model defines the data records for repository discovery: scanned
// repository metadata, logical components, dependency records, and the
// aggregate analysis state that is persisted as one unit.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Discovery status strings derived from (insights present, components present).
const (
	statusNone          = "No insights added. Assigned to no components."
	statusInsightsOnly  = "Insights added. Assigned to no components."
	statusComponentsFmt = "No insights added. Assigned to components: %s."
	statusCompleteFmt   = "Insights added. Assigned to components: %s."
)

// TechnologyStack holds detected technology information for a repository.
type TechnologyStack struct {
	// Frameworks lists detected frameworks (Spring Boot, Django, Express...).
	Frameworks []string `json:"frameworks"`

	// Languages maps detected programming languages to file counts.
	Languages map[string]int `json:"languages,omitempty"`
}

// DeepAnalysis holds comprehensive second-phase analysis for a repository.
type DeepAnalysis struct {
	// MarkdownSummary is the agent-authored markdown analysis report.
	MarkdownSummary string `json:"markdown_summary"`

	// DeepInsights holds free-form key-value findings.
	DeepInsights map[string]any `json:"deep_insights"`

	// AnalysisTimestamp records when the deep analysis was stored.
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
}

// RepoMetadata describes a single scanned repository.
type RepoMetadata struct {
	// Name is the repository name (directory basename, unique key).
	Name string `json:"name"`

	// Path is the repository path relative to the scan root. Immutable after
	// creation.
	Path string `json:"path"`

	// DiscoveryPhaseStatus is a natural-language status derived from the
	// insights and component assignments; see UpdateDiscoveryStatus.
	DiscoveryPhaseStatus string `json:"discovery_phase_status"`

	// FileCounts maps file extension to count.
	FileCounts map[string]int `json:"file_counts"`

	// TechnologyStack is the detected technology stack.
	TechnologyStack TechnologyStack `json:"technology_stack"`

	// ConfigFiles lists recognized configuration files, in detection order.
	ConfigFiles []string `json:"config_files"`

	// Insights holds free-form agent-supplied findings.
	Insights map[string]any `json:"insights"`

	// AssignedComponents lists component names in assignment order, without
	// duplicates.
	AssignedComponents []string `json:"assigned_components"`

	// DeepAnalysis holds optional second-phase analysis.
	DeepAnalysis *DeepAnalysis `json:"deep_analysis"`

	// TotalFiles is the number of files counted during the scan.
	TotalFiles int `json:"total_files"`

	// TotalLines is the exact newline count across text files under the
	// scanner's size ceiling.
	TotalLines int `json:"total_lines"`

	// HasReadme reports whether any README variant exists.
	HasReadme bool `json:"has_readme"`
}

// NewRepoMetadata creates repository metadata with initialized collections
// and the default discovery status.
func NewRepoMetadata(name, path string) *RepoMetadata {
	return &RepoMetadata{
		Name:                 name,
		Path:                 path,
		DiscoveryPhaseStatus: statusNone,
		FileCounts:           map[string]int{},
		ConfigFiles:          []string{},
		Insights:             map[string]any{},
		AssignedComponents:   []string{},
	}
}

// UpdateDiscoveryStatus recomputes DiscoveryPhaseStatus from the current
// insights and component assignments. The status is a pure function of
// (insights non-empty, assigned components non-empty).
func (r *RepoMetadata) UpdateDiscoveryStatus() {
	hasInsights := len(r.Insights) > 0
	hasComponents := len(r.AssignedComponents) > 0

	switch {
	case hasInsights && hasComponents:
		r.DiscoveryPhaseStatus = fmt.Sprintf(statusCompleteFmt, strings.Join(r.AssignedComponents, ", "))
	case hasInsights:
		r.DiscoveryPhaseStatus = statusInsightsOnly
	case hasComponents:
		r.DiscoveryPhaseStatus = fmt.Sprintf(statusComponentsFmt, strings.Join(r.AssignedComponents, ", "))
	default:
		r.DiscoveryPhaseStatus = statusNone
	}
}

// ComponentData describes a user-defined logical component grouping
// repositories for migration planning.
type ComponentData struct {
	// Name is the unique component name (alphanumeric, hyphen, underscore).
	Name string `json:"name"`

	// Purpose describes what the component does.
	Purpose string `json:"purpose"`

	// Rationale explains why its repositories belong together.
	Rationale string `json:"rationale"`

	// Repositories lists assigned repository names in assignment order.
	Repositories []string `json:"repositories"`

	// CreatedAt records when the component was created.
	CreatedAt time.Time `json:"created_at"`
}

// DependencyRecord documents one discovered dependency between two
// repositories. Records are immutable once created.
type DependencyRecord struct {
	// SourceRepo is the repository that has the dependency.
	SourceRepo string `json:"source_repo"`

	// TargetRepo is the repository being depended upon.
	TargetRepo string `json:"target_repo"`

	// DependencyType is a free-form type, normalized to lower-case/trimmed
	// (e.g. api, database, shared-library).
	DependencyType string `json:"dependency_type"`

	// Description explains the dependency.
	Description string `json:"description"`

	// Evidence lists file paths or code snippets supporting the record.
	Evidence []string `json:"evidence"`

	// CreatedAt records when the dependency was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisState is the root aggregate: everything the discovery process
// knows, serialized and persisted as a single unit.
type AnalysisState struct {
	// Repositories maps repository name to metadata.
	Repositories map[string]*RepoMetadata `json:"repositories"`

	// Components maps component name to component data.
	Components map[string]*ComponentData `json:"components"`

	// DependencyRecords lists all recorded inter-repository dependencies.
	DependencyRecords []DependencyRecord `json:"dependency_records"`

	// AnalysisStarted is when the initial bulk scan began; nil before then.
	AnalysisStarted *time.Time `json:"analysis_started"`

	// AnalysisCompleted is when the initial bulk scan finished; nil before.
	AnalysisCompleted *time.Time `json:"analysis_completed"`

	// BaseReposPath is the scan root the state was built from.
	BaseReposPath string `json:"base_repos_path"`

	// LastUpdated is refreshed on every mutation and load.
	LastUpdated time.Time `json:"last_updated"`

	// TotalRepositories is the number of repositories found by the scan.
	TotalRepositories int `json:"total_repositories"`

	// RepositoriesWithInsights counts repositories with non-empty insights.
	RepositoriesWithInsights int `json:"repositories_with_insights"`
}

// NewAnalysisState creates an empty state rooted at the given path.
func NewAnalysisState(baseReposPath string) *AnalysisState {
	return &AnalysisState{
		Repositories:      map[string]*RepoMetadata{},
		Components:        map[string]*ComponentData{},
		DependencyRecords: []DependencyRecord{},
		BaseReposPath:     baseReposPath,
		LastUpdated:       time.Now(),
	}
}

// ProgressSummary aggregates discovery progress counters.
type ProgressSummary struct {
	TotalRepositories        int     `json:"total_repositories"`
	RepositoriesWithInsights int     `json:"repositories_with_insights"`
	RepositoriesAssigned     int     `json:"repositories_assigned_to_components"`
	ComponentsCreated        int     `json:"components_created"`
	UnassignedRepos          int     `json:"unassigned_repos"`
	InvestigationProgress    float64 `json:"investigation_progress"`
	AssignmentProgress       float64 `json:"assignment_progress"`
}

// Progress computes the current discovery progress summary.
func (s *AnalysisState) Progress() ProgressSummary {
	insightsAdded := 0
	assigned := 0

	for _, repo := range s.Repositories {
		if len(repo.Insights) > 0 {
			insightsAdded++
		}

		if len(repo.AssignedComponents) > 0 {
			assigned++
		}
	}

	summary := ProgressSummary{
		TotalRepositories:        s.TotalRepositories,
		RepositoriesWithInsights: insightsAdded,
		RepositoriesAssigned:     assigned,
		ComponentsCreated:        len(s.Components),
		UnassignedRepos:          s.TotalRepositories - assigned,
	}

	if s.TotalRepositories > 0 {
		summary.InvestigationProgress = float64(insightsAdded) / float64(s.TotalRepositories) * 100
		summary.AssignmentProgress = float64(assigned) / float64(s.TotalRepositories) * 100
	}

	return summary
}

// NeedsInvestigation reports whether any repository still lacks insights or
// a component assignment.
func (s *AnalysisState) NeedsInvestigation() bool {
	for _, repo := range s.Repositories {
		if len(repo.Insights) == 0 || len(repo.AssignedComponents) == 0 {
			return true
		}
	}

	return false
}

// ValidComponentName reports whether a component name is acceptable:
// non-empty and containing only letters, digits, hyphens, and underscores,
// with at least one letter or digit.
func ValidComponentName(name string) bool {
	hasAlnum := false

	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			hasAlnum = true
		case r == '-' || r == '_':
		default:
			return false
		}
	}

	return hasAlnum
}

// Response is the envelope returned by every discovery service operation.
type Response struct {
	// Data is the operation result payload.
	Data any `json:"data,omitempty"`

	// Metadata carries additional context and statistics.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Error is the human-readable failure message when Success is false.
	Error string `json:"error,omitempty"`

	// Suggestions lists helpful next steps.
	Suggestions []string `json:"suggestions,omitempty"`

	// Success reports whether the operation succeeded.
	Success bool `json:"success"`
}

// Ok builds a successful response.
func Ok(data any, suggestions ...string) Response {
	return Response{Success: true, Data: data, Suggestions: suggestions}
}

// Fail builds a failed response with a message and suggestions.
func Fail(message string, suggestions ...string) Response {
	return Response{Success: false, Error: message, Suggestions: suggestions}
}

// WithMetadata returns a copy of the response with the metadata map set.
func (r Response) WithMetadata(metadata map[string]any) Response {
	r.Metadata = metadata

	return r
}
