package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameGetAllRepositories = "get_all_repositories"
	ToolNameGetUnanalyzed      = "get_unanalyzed_repositories"
	ToolNameStoreInsights      = "store_repo_insights"
	ToolNameAddComponent       = "add_component"
	ToolNameAssignRepo         = "assign_repo_to_component"
	ToolNameComponentsSummary  = "get_components_summary"
	ToolNameDiscoveryReport    = "generate_discovery_report"
	ToolNameStoreDeepAnalysis  = "store_deep_analysis"
	ToolNameAddDependency      = "add_repo_dependency"
	ToolNameRepositoryDetails  = "get_repository_details"
	ToolNameDependencyGraph    = "get_dependency_graph"
	ToolNameDeepAnalysisReport = "generate_deep_analysis_report"
)

// Tool description constants.
const (
	getAllRepositoriesDescription = "Get all repositories with their analysis state. " +
		"Performs the initial parallel scan on first call and returns cached results afterwards."

	getUnanalyzedDescription = "List repositories that still need investigation or " +
		"component assignment, with per-repository investigation suggestions."

	storeInsightsDescription = "Store investigation findings for a repository. " +
		"Insights merge with existing keys and update the discovery status."

	addComponentDescription = "Create a logical component grouping repositories " +
		"for migration planning. Names are alphanumeric with hyphens/underscores."

	assignRepoDescription = "Assign a repository to an existing component. " +
		"The link is bidirectional and duplicate assignments are rejected."

	componentsSummaryDescription = "Summarize all components with size validation, " +
		"technology summaries, and overall assignment coverage."

	discoveryReportDescription = "Generate the markdown discovery report covering " +
		"inventory, components, technology stacks, and recommendations."

	storeDeepAnalysisDescription = "Store comprehensive second-phase analysis for a " +
		"repository: a markdown summary plus structured insights."

	addDependencyDescription = "Record a dependency between two repositories " +
		"(e.g. api, database, shared-library) with optional evidence."

	repositoryDetailsDescription = "Get everything known about one repository: scan " +
		"statistics, insights, deep analysis, and optionally its dependencies."

	dependencyGraphDescription = "Build the inter-repository dependency graph in " +
		"structured, mermaid, or both formats, with statistics and issue detection."

	deepAnalysisReportDescription = "Generate the markdown deep analysis report, " +
		"optionally filtered to specific repositories."
)

// Input types (auto-generate JSON schemas via struct tags).

// EmptyInput is the input schema for tools that take no parameters.
type EmptyInput struct{}

// StoreInsightsInput is the input schema for the store_repo_insights tool.
type StoreInsightsInput struct {
	Insights map[string]any `json:"insights"  jsonschema:"key-value findings about the repository"`
	RepoName string         `json:"repo_name" jsonschema:"repository name from the initial scan"`
}

// AddComponentInput is the input schema for the add_component tool.
type AddComponentInput struct {
	ComponentName string `json:"component_name"      jsonschema:"unique component name (alphanumeric with hyphens/underscores)"`
	Purpose       string `json:"purpose,omitempty"   jsonschema:"what the component does"`
	Rationale     string `json:"rationale,omitempty" jsonschema:"why its repositories belong together"`
}

// AssignRepoInput is the input schema for the assign_repo_to_component tool.
type AssignRepoInput struct {
	ComponentName string `json:"component_name" jsonschema:"existing component name"`
	RepoName      string `json:"repo_name"      jsonschema:"repository name to assign"`
}

// StoreDeepAnalysisInput is the input schema for the store_deep_analysis tool.
type StoreDeepAnalysisInput struct {
	DeepInsights    map[string]any `json:"deep_insights,omitempty" jsonschema:"structured key-value findings"`
	MarkdownSummary string         `json:"markdown_summary"        jsonschema:"markdown analysis report for the repository"`
	RepoName        string         `json:"repo_name"               jsonschema:"repository name from the initial scan"`
}

// AddDependencyInput is the input schema for the add_repo_dependency tool.
type AddDependencyInput struct {
	DependencyType string   `json:"dependency_type"       jsonschema:"relationship type (e.g. api database shared-library)"`
	Description    string   `json:"description,omitempty" jsonschema:"what the dependency is"`
	Evidence       []string `json:"evidence,omitempty"    jsonschema:"file paths or snippets supporting the record"`
	SourceRepo     string   `json:"source_repo"           jsonschema:"repository that has the dependency"`
	TargetRepo     string   `json:"target_repo"           jsonschema:"repository being depended upon"`
}

// RepositoryDetailsInput is the input schema for the get_repository_details tool.
type RepositoryDetailsInput struct {
	IncludeDependencies *bool  `json:"include_dependencies,omitempty" jsonschema:"include dependency relationships (default true)"`
	RepoName            string `json:"repo_name"                      jsonschema:"repository name from the initial scan"`
}

// DependencyGraphInput is the input schema for the get_dependency_graph tool.
type DependencyGraphInput struct {
	Format          string `json:"format,omitempty"           jsonschema:"output format: structured mermaid or both (default structured)"`
	IncludeEvidence bool   `json:"include_evidence,omitempty" jsonschema:"include evidence lists on edges"`
}

// DeepAnalysisReportInput is the input schema for the
// generate_deep_analysis_report tool.
type DeepAnalysisReportInput struct {
	IncludeBasics       *bool    `json:"include_basics,omitempty"       jsonschema:"include basic scan statistics per repository (default true)"`
	IncludeDependencies *bool    `json:"include_dependencies,omitempty" jsonschema:"include the dependency analysis section (default true)"`
	RepoFilter          []string `json:"repo_filter,omitempty"          jsonschema:"optional list of repository names to include"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// responseResult converts a service response envelope into an MCP tool
// result. Failed operations become isError results carrying the full
// envelope, so clients still see the suggestions.
func responseResult(resp any, isError bool) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: fmt.Sprintf("encode result: %v", err)},
			},
			IsError: true,
		}, ToolOutput{}, nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
		IsError: isError,
	}, ToolOutput{Data: resp}, nil
}

func (s *Server) handleGetAllRepositories(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.Repositories(ctx)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleGetUnanalyzed(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.UnanalyzedRepositories(ctx)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleStoreInsights(ctx context.Context, _ *mcpsdk.CallToolRequest, input StoreInsightsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.StoreInsights(ctx, input.RepoName, input.Insights)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleAddComponent(ctx context.Context, _ *mcpsdk.CallToolRequest, input AddComponentInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.AddComponent(ctx, input.ComponentName, input.Purpose, input.Rationale)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleAssignRepo(ctx context.Context, _ *mcpsdk.CallToolRequest, input AssignRepoInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.AssignRepository(ctx, input.RepoName, input.ComponentName)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleComponentsSummary(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.ComponentsSummary(ctx)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleDiscoveryReport(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.DiscoveryReport(ctx)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleStoreDeepAnalysis(ctx context.Context, _ *mcpsdk.CallToolRequest, input StoreDeepAnalysisInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.StoreDeepAnalysis(ctx, input.RepoName, input.MarkdownSummary, input.DeepInsights)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleAddDependency(ctx context.Context, _ *mcpsdk.CallToolRequest, input AddDependencyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.AddDependency(ctx, input.SourceRepo, input.TargetRepo, input.DependencyType, input.Description, input.Evidence)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleRepositoryDetails(ctx context.Context, _ *mcpsdk.CallToolRequest, input RepositoryDetailsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.RepositoryDetails(ctx, input.RepoName, boolOrDefault(input.IncludeDependencies, true))

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleDependencyGraph(ctx context.Context, _ *mcpsdk.CallToolRequest, input DependencyGraphInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.DependencyGraph(ctx, input.Format, input.IncludeEvidence)

	return responseResult(resp, !resp.Success)
}

func (s *Server) handleDeepAnalysisReport(ctx context.Context, _ *mcpsdk.CallToolRequest, input DeepAnalysisReportInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resp := s.svc.DeepAnalysisReport(ctx,
		boolOrDefault(input.IncludeBasics, true),
		boolOrDefault(input.IncludeDependencies, true),
		input.RepoFilter)

	return responseResult(resp, !resp.Success)
}

// boolOrDefault resolves an optional boolean argument; nil means the caller
// omitted it.
func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}

	return *value
}
