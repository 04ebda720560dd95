package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

// Edge is one directed dependency in the graph.
type Edge struct {
	// Source is the repository that has the dependency.
	Source string `json:"source"`

	// Target is the repository being depended upon.
	Target string `json:"target"`

	// Type is the dependency type from the record.
	Type string `json:"type"`

	// Description explains the dependency.
	Description string `json:"description"`

	// Evidence is included only when requested at build time.
	Evidence []string `json:"evidence,omitempty"`
}

// GraphStatistics aggregates dependency counts.
type GraphStatistics struct {
	// TotalRepositories is the repository count in the whole state.
	TotalRepositories int `json:"total_repositories"`

	// RepositoriesWithDependencies counts repositories on either end of an
	// edge.
	RepositoriesWithDependencies int `json:"repositories_with_dependencies"`

	// TotalDependencies is the edge count.
	TotalDependencies int `json:"total_dependencies"`

	// MostDependedUpon is the repository with most incoming edges; empty
	// when there are no edges. Ties break lexicographically.
	MostDependedUpon string `json:"most_depended_upon,omitempty"`

	// MostDependent is the repository with most outgoing edges; empty when
	// there are no edges. Ties break lexicographically.
	MostDependent string `json:"most_dependent,omitempty"`

	// AverageDependencies is edges per repository-with-dependencies; zero
	// when no repository has dependencies.
	AverageDependencies float64 `json:"average_dependencies"`
}

// GraphIssues lists structural problems found in the graph.
type GraphIssues struct {
	// CircularDependencies lists mutually reachable [source, target] pairs.
	CircularDependencies [][]string `json:"circular_dependencies"`

	// OrphanedRepositories lists repositories on no edge at all, sorted.
	OrphanedRepositories []string `json:"orphaned_repositories"`
}

// Graph is the dependency graph built from the recorded edges.
type Graph struct {
	// Nodes lists repositories that appear on at least one edge, sorted.
	Nodes []string `json:"nodes"`

	// Edges lists dependencies in record order.
	Edges []Edge `json:"edges"`

	// Statistics aggregates counts over the graph.
	Statistics GraphStatistics `json:"statistics"`

	// Issues lists cycles and orphans.
	Issues GraphIssues `json:"issues"`

	// Mermaid is the rendered diagram when one was requested.
	Mermaid string `json:"mermaid,omitempty"`
}

// BuildGraph constructs the dependency graph from the state's recorded
// edges. Evidence is attached to edges only when includeEvidence is set.
func BuildGraph(state *model.AnalysisState, includeEvidence bool) *Graph {
	graph := &Graph{
		Nodes: []string{},
		Edges: []Edge{},
	}

	nodes := map[string]struct{}{}

	for _, record := range state.DependencyRecords {
		nodes[record.SourceRepo] = struct{}{}
		nodes[record.TargetRepo] = struct{}{}

		edge := Edge{
			Source:      record.SourceRepo,
			Target:      record.TargetRepo,
			Type:        record.DependencyType,
			Description: record.Description,
		}

		if includeEvidence {
			edge.Evidence = record.Evidence
		}

		graph.Edges = append(graph.Edges, edge)
	}

	for node := range nodes {
		graph.Nodes = append(graph.Nodes, node)
	}

	sort.Strings(graph.Nodes)

	graph.Statistics = GraphStatistics{
		TotalRepositories:            len(state.Repositories),
		RepositoriesWithDependencies: len(graph.Nodes),
		TotalDependencies:            len(graph.Edges),
		MostDependedUpon:             mostFrequent(state.DependencyRecords, func(r model.DependencyRecord) string { return r.TargetRepo }),
		MostDependent:                mostFrequent(state.DependencyRecords, func(r model.DependencyRecord) string { return r.SourceRepo }),
	}

	if len(graph.Nodes) > 0 {
		graph.Statistics.AverageDependencies = float64(len(graph.Edges)) / float64(len(graph.Nodes))
	}

	graph.Issues = GraphIssues{
		CircularDependencies: DetectCircularDependencies(state.DependencyRecords),
		OrphanedRepositories: OrphanedRepositories(state),
	}

	return graph
}

// DetectCircularDependencies reports mutually reachable repository pairs.
// For each recorded edge (source, target) not yet visited in either
// direction, a depth-first reachability check runs from target back to
// source; a hit reports the pair once as a 2-element cycle. Longer cycles
// surface only through their participating back-edges, never as full paths.
func DetectCircularDependencies(records []model.DependencyRecord) [][]string {
	adjacency := map[string][]string{}
	for _, record := range records {
		adjacency[record.SourceRepo] = append(adjacency[record.SourceRepo], record.TargetRepo)
	}

	cycles := [][]string{}
	visited := map[[2]string]struct{}{}

	for _, record := range records {
		pair := [2]string{record.SourceRepo, record.TargetRepo}
		reverse := [2]string{record.TargetRepo, record.SourceRepo}

		if _, seen := visited[pair]; seen {
			continue
		}

		if _, seen := visited[reverse]; seen {
			continue
		}

		visited[pair] = struct{}{}

		if hasPath(adjacency, record.TargetRepo, record.SourceRepo, map[string]struct{}{}) {
			cycles = append(cycles, []string{record.SourceRepo, record.TargetRepo})
		}
	}

	return cycles
}

// hasPath reports whether end is reachable from start, ignoring nodes
// already on the path.
func hasPath(adjacency map[string][]string, start, end string, path map[string]struct{}) bool {
	if start == end && len(path) > 0 {
		return true
	}

	if _, onPath := path[start]; onPath {
		return false
	}

	path[start] = struct{}{}
	defer delete(path, start)

	for _, neighbor := range adjacency[start] {
		if hasPath(adjacency, neighbor, end, path) {
			return true
		}
	}

	return false
}

// OrphanedRepositories lists repositories that appear on no dependency
// edge, sorted by name.
func OrphanedRepositories(state *model.AnalysisState) []string {
	onEdge := map[string]struct{}{}
	for _, record := range state.DependencyRecords {
		onEdge[record.SourceRepo] = struct{}{}
		onEdge[record.TargetRepo] = struct{}{}
	}

	orphans := []string{}

	for name := range state.Repositories {
		if _, ok := onEdge[name]; !ok {
			orphans = append(orphans, name)
		}
	}

	sort.Strings(orphans)

	return orphans
}

// MermaidDiagram renders the graph as a Mermaid top-down flowchart. Hyphens
// in repository names are replaced with underscores to keep node
// identifiers valid.
func (g *Graph) MermaidDiagram() string {
	lines := []string{"graph TD"}

	for _, edge := range g.Edges {
		source := strings.ReplaceAll(edge.Source, "-", "_")
		target := strings.ReplaceAll(edge.Target, "-", "_")

		lines = append(lines, fmt.Sprintf("    %s -->|%s| %s", source, edge.Type, target))
	}

	return strings.Join(lines, "\n")
}

// mostFrequent returns the most frequent key produced over the records,
// breaking count ties lexicographically. Empty when there are no records.
func mostFrequent(records []model.DependencyRecord, key func(model.DependencyRecord) string) string {
	counts := map[string]int{}
	for _, record := range records {
		counts[key(record)]++
	}

	best := ""
	bestCount := 0

	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best = name
			bestCount = count
		}
	}

	return best
}
