package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(t.TempDir(), "", nil)

	require.NoError(t, err)

	return store
}

func TestLoad_FreshStateWhenNoFiles(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	state := store.Load("/repos")

	require.NotNil(t, state)
	assert.Equal(t, "/repos", state.BaseReposPath)
	assert.Empty(t, state.Repositories)
	assert.Nil(t, state.AnalysisStarted)
}

func TestLoad_ReturnsCachedInstance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	first := store.Load("/repos")
	second := store.Load("/elsewhere")

	// The in-memory cache wins; the second base path is not applied.
	assert.Same(t, first, second)
	assert.Equal(t, "/repos", second.BaseReposPath)
}

func TestSaveAndReload_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	state := store.Load("/repos")

	repo := model.NewRepoMetadata("billing", "billing")
	repo.TotalFiles = 42
	repo.FileCounts[".go"] = 40
	repo.Insights["purpose"] = "invoicing"
	repo.UpdateDiscoveryStatus()

	require.True(t, store.UpdateRepository("billing", repo))
	require.True(t, store.AddComponent("core", &model.ComponentData{
		Name:         "core",
		Purpose:      "core services",
		Rationale:    "shared platform",
		Repositories: []string{},
		CreatedAt:    time.Now(),
	}))
	require.True(t, store.AssignRepositoryToComponent("billing", "core"))
	require.True(t, store.AddDependency(model.DependencyRecord{
		SourceRepo:     "billing",
		TargetRepo:     "ledger",
		DependencyType: "api",
		Description:    "posts journal entries",
		Evidence:       []string{"src/client.go"},
		CreatedAt:      time.Now(),
	}))

	require.True(t, store.Save(state, false))

	store.ClearCache()
	reloaded := store.Load("/repos")

	require.Contains(t, reloaded.Repositories, "billing")
	assert.Equal(t, 42, reloaded.Repositories["billing"].TotalFiles)
	assert.Equal(t, "invoicing", reloaded.Repositories["billing"].Insights["purpose"])
	assert.Equal(t, []string{"core"}, reloaded.Repositories["billing"].AssignedComponents)
	assert.Equal(t, []string{"billing"}, reloaded.Components["core"].Repositories)
	require.Len(t, reloaded.DependencyRecords, 1)
	assert.Equal(t, "ledger", reloaded.DependencyRecords[0].TargetRepo)
	assert.Equal(t, 1, reloaded.TotalRepositories)
	assert.Equal(t, 1, reloaded.RepositoriesWithInsights)
}

func TestSave_NoopWhenClean(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	state := store.Load("/repos")

	require.True(t, store.Save(state, false))

	stampBefore := state.LastUpdated

	// Clean cache and same state: nothing is written.
	require.True(t, store.Save(state, false))
	assert.Equal(t, stampBefore, state.LastUpdated)

	// Force always writes.
	require.True(t, store.Save(state, true))
}

func TestLoad_CorruptPrimaryFallsBackToBackup(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	state := store.Load("/repos")

	repo := model.NewRepoMetadata("api", "api")
	require.True(t, store.UpdateRepository("api", repo))
	require.True(t, store.Save(state, false))

	// A second save creates the backup from the first primary.
	repo.Insights["note"] = "gateway"
	store.MarkDirty()
	require.True(t, store.Save(state, false))

	// Corrupt the primary in place.
	require.NoError(t, os.WriteFile(store.cacheFile, []byte("{not json"), 0o644))

	store.ClearCache()
	recovered := store.Load("/repos")

	require.Contains(t, recovered.Repositories, "api")

	// A fresh save restores a valid primary.
	store.MarkDirty()
	require.True(t, store.Save(recovered, false))

	store.ClearCache()
	again := store.Load("/repos")

	require.Contains(t, again.Repositories, "api")
}

func TestLoad_SchemaViolationTreatedAsCorruption(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	// Valid JSON, wrong shape.
	require.NoError(t, os.WriteFile(store.cacheFile, []byte(`{"repositories": []}`), 0o644))

	state := store.Load("/repos")

	require.NotNil(t, state)
	assert.Empty(t, state.Repositories)
	assert.Equal(t, "/repos", state.BaseReposPath)
}

func TestSave_FailureCleansUpTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := New(dir, "", nil)

	require.NoError(t, err)

	state := store.Load("/repos")

	// Replace the primary path with a directory so the rename fails.
	require.NoError(t, os.MkdirAll(store.cacheFile, 0o755))

	store.MarkDirty()
	assert.False(t, store.Save(state, false))

	_, statErr := os.Stat(store.tempFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatchUpdate_AppliesAllMutations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	state := store.Load("/repos")

	store.BatchUpdate(func(batch *Batch) {
		for _, name := range []string{"a", "b", "c"} {
			require.True(t, batch.UpdateRepository(name, model.NewRepoMetadata(name, name)))
		}

		require.True(t, batch.AddComponent("core", &model.ComponentData{Name: "core"}))
		require.True(t, batch.AssignRepositoryToComponent("a", "core"))
	})

	assert.Len(t, state.Repositories, 3)
	assert.Equal(t, 3, state.TotalRepositories)
	assert.Equal(t, []string{"core"}, state.Repositories["a"].AssignedComponents)
}

func TestAssign_DuplicateAssignmentIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_ = store.Load("/repos")

	repo := model.NewRepoMetadata("api", "api")
	require.True(t, store.UpdateRepository("api", repo))
	require.True(t, store.AddComponent("core", &model.ComponentData{Name: "core", Repositories: []string{}}))

	require.True(t, store.AssignRepositoryToComponent("api", "core"))
	require.True(t, store.AssignRepositoryToComponent("api", "core"))

	assert.Equal(t, []string{"core"}, repo.AssignedComponents)
}

func TestMutations_FailWithoutLoadedState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	assert.False(t, store.UpdateRepository("api", model.NewRepoMetadata("api", "api")))
	assert.False(t, store.AddComponent("core", &model.ComponentData{Name: "core"}))
	assert.False(t, store.AssignRepositoryToComponent("api", "core"))
	assert.False(t, store.AddDependency(model.DependencyRecord{}))
	assert.Nil(t, store.DependencyIndex())
}

func TestDependencyIndex_LazyAndInvalidated(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_ = store.Load("/repos")

	require.True(t, store.AddDependency(model.DependencyRecord{SourceRepo: "a", TargetRepo: "b"}))

	index := store.DependencyIndex()

	require.NotNil(t, index)
	assert.Len(t, index.Outgoing["a"], 1)
	assert.Len(t, index.Incoming["b"], 1)

	// Same index until a record is appended.
	assert.Same(t, index, store.DependencyIndex())

	require.True(t, store.AddDependency(model.DependencyRecord{SourceRepo: "b", TargetRepo: "a"}))

	rebuilt := store.DependencyIndex()

	assert.NotSame(t, index, rebuilt)
	assert.Len(t, rebuilt.Outgoing["b"], 1)
}

func TestBackupCurrentState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	state := store.Load("/repos")

	require.True(t, store.Save(state, true))

	path, err := store.BackupCurrentState("snapshot.json")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.storageDir, "snapshot.json"), path)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestInfo_ReportsFiles(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	info := store.Info()

	assert.False(t, info["cache_file_exists"].(bool))
	assert.False(t, info["cache_loaded"].(bool))

	state := store.Load("/repos")
	require.True(t, store.Save(state, true))

	info = store.Info()

	assert.True(t, info["cache_file_exists"].(bool))
	assert.True(t, info["cache_loaded"].(bool))
}
