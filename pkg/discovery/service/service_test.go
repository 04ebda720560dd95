package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angangwa/migration-agent/pkg/discovery/analyzer"
	"github.com/angangwa/migration-agent/pkg/discovery/storage"
	"github.com/angangwa/migration-agent/pkg/discovery/validate"
)

func writeRepoFile(t *testing.T, root string, parts ...string) {
	t.Helper()

	path := filepath.Join(append([]string{root}, parts...)...)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content\n"), 0o644))
}

// newTestService builds a service over three small repositories and runs the
// initial scan.
func newTestService(t *testing.T) *Service {
	t.Helper()

	reposPath := t.TempDir()
	writeRepoFile(t, reposPath, "billing", "main.py")
	writeRepoFile(t, reposPath, "auth", "server.js")
	writeRepoFile(t, reposPath, "reporting", "Program.cs")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := storage.New(t.TempDir(), storage.DefaultCacheName, logger)
	require.NoError(t, err)

	svc, err := New(Config{
		ReposPath: reposPath,
		Store:     store,
		Analyzer:  analyzer.New(reposPath, analyzer.Options{Logger: logger}),
		Logger:    logger,
	})
	require.NoError(t, err)

	resp := svc.Repositories(context.Background())
	require.True(t, resp.Success)

	return svc
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})

	require.Error(t, err)
}

func TestRepositories_InitialScanFindsAll(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	data, ok := svc.Repositories(context.Background()).Data.(map[string]any)
	require.True(t, ok)

	assert.Len(t, data, 3)
	assert.Contains(t, data, "billing")
	assert.Contains(t, data, "auth")
	assert.Contains(t, data, "reporting")
	assert.Equal(t, 3, svc.State().TotalRepositories)
	assert.NotNil(t, svc.State().AnalysisCompleted)
}

func TestRepositories_EmptyRootFails(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := storage.New(t.TempDir(), storage.DefaultCacheName, logger)
	require.NoError(t, err)

	empty := t.TempDir()

	svc, err := New(Config{
		ReposPath: empty,
		Store:     store,
		Analyzer:  analyzer.New(empty, analyzer.Options{Logger: logger}),
		Logger:    logger,
	})
	require.NoError(t, err)

	resp := svc.Repositories(context.Background())

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No repositories found")
}

func TestStoreInsights_UpdatesStatus(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	resp := svc.StoreInsights(ctx, "billing", map[string]any{"purpose": "invoices"})
	require.True(t, resp.Success)

	repo := svc.State().Repositories["billing"]

	assert.Equal(t, "invoices", repo.Insights["purpose"])
	assert.Equal(t, "Insights added. Assigned to no components.", repo.DiscoveryPhaseStatus)
	assert.Equal(t, 1, svc.State().RepositoriesWithInsights)

	assert.False(t, svc.StoreInsights(ctx, "ghost", map[string]any{"k": "v"}).Success)
}

func TestAddComponent_ValidatesNameAndDuplicates(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	assert.False(t, svc.AddComponent(ctx, "bad name!", "", "").Success)

	require.True(t, svc.AddComponent(ctx, "payments", "Payment flows", "Shared domain").Success)

	dup := svc.AddComponent(ctx, "payments", "", "")

	assert.False(t, dup.Success)
	assert.Contains(t, dup.Error, "already exists")
}

func TestAssignRepository_BidirectionalAndIdempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.True(t, svc.AddComponent(ctx, "payments", "Payment flows", "Shared domain").Success)

	resp := svc.AssignRepository(ctx, "billing", "payments")
	require.True(t, resp.Success)

	assert.Equal(t, []string{"payments"}, svc.State().Repositories["billing"].AssignedComponents)
	assert.Equal(t, []string{"billing"}, svc.State().Components["payments"].Repositories)

	// Single-repo component sizing surfaces as a warning.
	assert.Contains(t, resp.Suggestions[1], "Warning:")

	assert.False(t, svc.AssignRepository(ctx, "billing", "payments").Success)
	assert.False(t, svc.AssignRepository(ctx, "ghost", "payments").Success)
	assert.False(t, svc.AssignRepository(ctx, "billing", "ghost").Success)

	assert.Len(t, svc.State().Components["payments"].Repositories, 1)
}

func TestAddDependency_NormalizesAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	resp := svc.AddDependency(ctx, "billing", "auth", "  API  ", "token checks", []string{"client.py:10"})
	require.True(t, resp.Success)
	require.Len(t, svc.State().DependencyRecords, 1)
	assert.Equal(t, "api", svc.State().DependencyRecords[0].DependencyType)

	dup := svc.AddDependency(ctx, "billing", "auth", "api", "again", nil)

	assert.False(t, dup.Success)
	assert.Len(t, svc.State().DependencyRecords, 1)

	assert.False(t, svc.AddDependency(ctx, "billing", "auth", "  ", "", nil).Success)
	assert.False(t, svc.AddDependency(ctx, "ghost", "auth", "api", "", nil).Success)
	assert.False(t, svc.AddDependency(ctx, "billing", "ghost", "api", "", nil).Success)

	// Same pair under a different type is a distinct record.
	require.True(t, svc.AddDependency(ctx, "billing", "auth", "database", "shared schema", nil).Success)
	assert.Len(t, svc.State().DependencyRecords, 2)
}

func TestUnanalyzedRepositories_TracksCompletion(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	resp := svc.UnanalyzedRepositories(ctx)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data, 3)
	assert.Equal(t, 0.0, resp.Metadata["discovery_completion"])

	entry, ok := data["billing"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, entry["suggested_investigation"])

	require.True(t, svc.StoreInsights(ctx, "billing", map[string]any{"purpose": "invoices"}).Success)
	require.True(t, svc.AddComponent(ctx, "payments", "", "").Success)
	require.True(t, svc.AssignRepository(ctx, "billing", "payments").Success)

	resp = svc.UnanalyzedRepositories(ctx)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)

	assert.Len(t, data, 2)
	assert.NotContains(t, data, "billing")
	assert.InDelta(t, 33.333, resp.Metadata["discovery_completion"], 0.01)
}

func TestStoreDeepAnalysis_ReplacesPrevious(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	first := svc.StoreDeepAnalysis(ctx, "billing", "# Billing\n\nBatch heavy.", map[string]any{"risk": "high"})
	require.True(t, first.Success)
	assert.Equal(t, false, first.Metadata["had_previous_analysis"])

	second := svc.StoreDeepAnalysis(ctx, "billing", "# Billing v2", nil)
	require.True(t, second.Success)
	assert.Equal(t, true, second.Metadata["had_previous_analysis"])

	repo := svc.State().Repositories["billing"]

	assert.Equal(t, "# Billing v2", repo.DeepAnalysis.MarkdownSummary)
	assert.Empty(t, repo.DeepAnalysis.DeepInsights)

	assert.False(t, svc.StoreDeepAnalysis(ctx, "ghost", "x", nil).Success)
}

func TestRepositoryDetails_IncludesDependencies(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.True(t, svc.AddDependency(ctx, "billing", "auth", "api", "token checks", nil).Success)
	require.True(t, svc.AddDependency(ctx, "auth", "billing", "database", "audit log", nil).Success)

	resp := svc.RepositoryDetails(ctx, "billing", true)
	require.True(t, resp.Success)

	details, ok := resp.Data.(map[string]any)
	require.True(t, ok)

	deps, ok := details["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, deps["outgoing_count"])
	assert.Equal(t, 1, deps["incoming_count"])
	assert.Equal(t, 2, resp.Metadata["dependency_relationships"])

	withoutDeps := svc.RepositoryDetails(ctx, "billing", false)
	details, ok = withoutDeps.Data.(map[string]any)
	require.True(t, ok)
	assert.Nil(t, details["dependencies"])

	assert.False(t, svc.RepositoryDetails(ctx, "ghost", false).Success)
}

func TestComponentsSummary_ValidationAndCoverage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.True(t, svc.AddComponent(ctx, "payments", "Payments", "Domain").Success)
	require.True(t, svc.AssignRepository(ctx, "billing", "payments").Success)
	require.True(t, svc.AssignRepository(ctx, "auth", "payments").Success)

	resp := svc.ComponentsSummary(ctx)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)

	components, ok := data["components"].(map[string]any)
	require.True(t, ok)

	payments, ok := components["payments"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, 2, payments["repository_count"])
	assert.Equal(t, "too_small", payments["size_category"])
	assert.InDelta(t, 66.666, resp.Metadata["assignment_coverage"], 0.01)
	assert.Equal(t, 1, resp.Metadata["unassigned_count"])

	assert.Contains(t, resp.Suggestions[0], "Assign 1 unassigned")
}

func TestComponentsSummary_NoComponents(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	resp := svc.ComponentsSummary(context.Background())
	require.True(t, resp.Success)

	assert.Contains(t, resp.Suggestions, "No components created yet")
}

func TestDependencyGraph_Formats(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.True(t, svc.AddDependency(ctx, "billing", "auth", "api", "token checks", nil).Success)
	require.True(t, svc.AddDependency(ctx, "auth", "billing", "database", "audit log", nil).Success)

	assert.False(t, svc.DependencyGraph(ctx, "dot", false).Success)

	structured := svc.DependencyGraph(ctx, "", false)
	require.True(t, structured.Success)

	mermaid := svc.DependencyGraph(ctx, GraphFormatMermaid, false)
	require.True(t, mermaid.Success)

	data, ok := mermaid.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["mermaid"], "graph TD")
}

func TestDependencyGraph_ReportsMutualCycleOnce(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.True(t, svc.AddDependency(ctx, "billing", "auth", "api", "", nil).Success)
	require.True(t, svc.AddDependency(ctx, "auth", "billing", "api", "", nil).Success)

	resp := svc.DependencyGraph(ctx, GraphFormatStructured, false)
	require.True(t, resp.Success)

	graph, ok := resp.Data.(*validate.Graph)
	require.True(t, ok)

	require.Len(t, graph.Issues.CircularDependencies, 1)
	assert.ElementsMatch(t, []string{"auth", "billing"}, graph.Issues.CircularDependencies[0])
}

func TestDiscoveryReport_RequiresRepositories(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	resp := svc.DiscoveryReport(context.Background())
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["report_markdown"], "# Legacy Application Discovery Report")
}

func TestDeepAnalysisReport_ValidatesFilter(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	bad := svc.DeepAnalysisReport(ctx, true, true, []string{"billing", "ghost"})

	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "Invalid repositories in filter: ghost")

	good := svc.DeepAnalysisReport(ctx, true, true, []string{"billing"})
	require.True(t, good.Success)

	data, ok := good.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["report_markdown"], "# Deep Repository Analysis Report")
}
