// Package validate checks discovery data quality: component sizing,
// assignment coverage, and dependency-graph analysis over explicitly
// recorded edges.
package validate

import (
	"fmt"
	"sort"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

// Size category names for component repository counts.
const (
	SizeTooLarge    = "too_large"
	SizeAppropriate = "appropriate"
	SizeSingleRepo  = "single_repo"
	SizeTooSmall    = "too_small"
)

// ComponentSizeResult reports whether a component's repository count falls
// in the recommended range.
type ComponentSizeResult struct {
	// Warnings lists sizing problems; empty means the size is acceptable.
	Warnings []string `json:"warnings"`

	// Suggestions lists remediation hints matching the warnings.
	Suggestions []string `json:"suggestions"`

	// SizeCategory is one of the Size* constants.
	SizeCategory string `json:"size_category"`

	// IsValid is true when there are no warnings.
	IsValid bool `json:"is_valid"`
}

// ComponentSize validates a component's repository count. Components of 3
// to 29 repositories are considered appropriately sized.
func ComponentSize(repoCount int) ComponentSizeResult {
	result := ComponentSizeResult{
		Warnings:     []string{},
		Suggestions:  []string{},
		SizeCategory: sizeCategory(repoCount),
	}

	switch {
	case repoCount >= 30:
		result.Warnings = append(result.Warnings, "Component is too large (30+ repositories)")
		result.Suggestions = append(result.Suggestions, "Consider splitting into smaller, focused components")
	case repoCount == 1:
		result.Warnings = append(result.Warnings, "Component contains only one repository")
		result.Suggestions = append(result.Suggestions, "Consider if this represents a major standalone system")
	case repoCount < 3:
		result.Warnings = append(result.Warnings, "Component is quite small (<3 repositories)")
		result.Suggestions = append(result.Suggestions, "Consider merging with related components if appropriate")
	}

	result.IsValid = len(result.Warnings) == 0

	return result
}

func sizeCategory(repoCount int) string {
	switch {
	case repoCount >= 30:
		return SizeTooLarge
	case repoCount >= 3:
		return SizeAppropriate
	case repoCount == 1:
		return SizeSingleRepo
	default:
		return SizeTooSmall
	}
}

// MultiAssignment names a repository assigned to more than one component.
type MultiAssignment struct {
	// Repo is the repository name.
	Repo string `json:"repo"`

	// Components lists all components the repository is assigned to.
	Components []string `json:"components"`
}

// AssignmentResult summarizes repository-to-component assignment health.
type AssignmentResult struct {
	// UnassignedRepos lists repositories with no component, sorted.
	UnassignedRepos []string `json:"unassigned_repos"`

	// MultiAssignedRepos lists repositories in more than one component.
	MultiAssignedRepos []MultiAssignment `json:"multi_assigned_repos"`

	// OrphanedComponents lists components with no repositories, sorted.
	OrphanedComponents []string `json:"orphaned_components"`

	// AssignmentCoverage is the percentage of repositories with at least one
	// component; zero when there are no repositories.
	AssignmentCoverage float64 `json:"assignment_coverage"`
}

// Assignments validates the assignment state of every repository and
// component.
func Assignments(state *model.AnalysisState) AssignmentResult {
	result := AssignmentResult{
		UnassignedRepos:    []string{},
		MultiAssignedRepos: []MultiAssignment{},
		OrphanedComponents: []string{},
	}

	for _, name := range sortedRepoNames(state) {
		repo := state.Repositories[name]

		switch {
		case len(repo.AssignedComponents) == 0:
			result.UnassignedRepos = append(result.UnassignedRepos, name)
		case len(repo.AssignedComponents) > 1:
			result.MultiAssignedRepos = append(result.MultiAssignedRepos, MultiAssignment{
				Repo:       name,
				Components: repo.AssignedComponents,
			})
		}
	}

	for name, component := range state.Components {
		if len(component.Repositories) == 0 {
			result.OrphanedComponents = append(result.OrphanedComponents, name)
		}
	}

	sort.Strings(result.OrphanedComponents)

	if len(state.Repositories) > 0 {
		assigned := len(state.Repositories) - len(result.UnassignedRepos)
		result.AssignmentCoverage = float64(assigned) / float64(len(state.Repositories)) * 100
	}

	return result
}

// SizeAssessmentLabel renders a size category for report prose, e.g.
// "Too Large".
func SizeAssessmentLabel(category string) string {
	switch category {
	case SizeTooLarge:
		return "Too Large"
	case SizeAppropriate:
		return "Appropriate"
	case SizeSingleRepo:
		return "Single Repo"
	case SizeTooSmall:
		return "Too Small"
	default:
		return fmt.Sprintf("Unknown (%s)", category)
	}
}

func sortedRepoNames(state *model.AnalysisState) []string {
	names := make([]string, 0, len(state.Repositories))
	for name := range state.Repositories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
