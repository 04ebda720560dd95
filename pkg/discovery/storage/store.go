// Package storage persists the discovery analysis state as a single JSON
// document with atomic writes, a rolling backup, and an in-memory cache for
// the process lifetime.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

// DefaultCacheName is the default state file name.
const DefaultCacheName = "discovery_cache.json"

// Store is a mutex-guarded JSON store for the analysis state. All mutation
// goes through the store so the dirty flag stays accurate.
type Store struct {
	storageDir string
	cacheFile  string
	backupFile string
	tempFile   string
	logger     *slog.Logger

	mu    sync.Mutex
	cache *model.AnalysisState
	dirty bool

	depIndex *DependencyIndex
}

// New creates a store rooted at storageDir, creating the directory if
// needed. An empty cacheName selects DefaultCacheName.
func New(storageDir, cacheName string, logger *slog.Logger) (*Store, error) {
	if cacheName == "" {
		cacheName = DefaultCacheName
	}

	if logger == nil {
		logger = slog.Default()
	}

	mkdirErr := os.MkdirAll(storageDir, 0o755)
	if mkdirErr != nil {
		return nil, fmt.Errorf("create storage dir: %w", mkdirErr)
	}

	return &Store{
		storageDir: storageDir,
		cacheFile:  filepath.Join(storageDir, cacheName),
		backupFile: filepath.Join(storageDir, cacheName+".backup"),
		tempFile:   filepath.Join(storageDir, cacheName+".tmp"),
		logger:     logger,
	}, nil
}

// Load returns the analysis state, in precedence order: the in-memory
// cache, the primary file, the backup file, then a fresh empty state. File
// corruption is downgraded to a warning, never an error. The caller's base
// path always overwrites the persisted one.
func (s *Store) Load(baseReposPath string) *model.AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache
	}

	for _, path := range []string{s.cacheFile, s.backupFile} {
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}

		state, loadErr := loadFromFile(path)
		if loadErr != nil {
			s.logger.Warn("failed to load state file", "path", path, "error", loadErr)

			continue
		}

		state.BaseReposPath = baseReposPath
		state.LastUpdated = time.Now()
		s.cache = state
		s.depIndex = nil

		return state
	}

	state := model.NewAnalysisState(baseReposPath)
	s.cache = state
	s.dirty = true
	s.depIndex = nil

	return state
}

// Save writes the state to disk: temp file first, then the previous primary
// is copied to the backup, then the temp file atomically replaces the
// primary. Returns false on any write failure (after temp cleanup) and true
// when saved or when there was nothing to save.
func (s *Store) Save(state *model.AnalysisState, force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && !s.dirty && s.cache == state {
		return true
	}

	state.LastUpdated = time.Now()

	writeErr := writeToFile(state, s.tempFile)
	if writeErr == nil {
		if _, statErr := os.Stat(s.cacheFile); statErr == nil {
			writeErr = copyFile(s.cacheFile, s.backupFile)
		}
	}

	if writeErr == nil {
		writeErr = os.Rename(s.tempFile, s.cacheFile)
	}

	if writeErr != nil {
		s.logger.Error("failed to save state", "error", writeErr)
		_ = os.Remove(s.tempFile)

		return false
	}

	s.cache = state
	s.dirty = false

	return true
}

// UpdateRepository replaces one repository's metadata and recomputes the
// progress counters. Returns false when no state is loaded.
func (s *Store) UpdateRepository(repoName string, meta *model.RepoMetadata) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateRepositoryLocked(repoName, meta)
}

// AddComponent registers a component. Returns false when no state is loaded.
func (s *Store) AddComponent(componentName string, data *model.ComponentData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addComponentLocked(componentName, data)
}

// AssignRepositoryToComponent records the assignment on both sides, skipping
// duplicates, and refreshes the repository's discovery status.
func (s *Store) AssignRepositoryToComponent(repoName, componentName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.assignLocked(repoName, componentName)
}

// AddDependency appends a dependency record and invalidates the dependency
// index.
func (s *Store) AddDependency(record model.DependencyRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addDependencyLocked(record)
}

// MarkDirty flags the cached state as having unsaved changes made directly
// on the state object.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	s.depIndex = nil
}

// Batch exposes the store's mutations under a single lock acquisition.
type Batch struct {
	s *Store
}

// UpdateRepository is the batched form of [Store.UpdateRepository].
func (b *Batch) UpdateRepository(repoName string, meta *model.RepoMetadata) bool {
	return b.s.updateRepositoryLocked(repoName, meta)
}

// AddComponent is the batched form of [Store.AddComponent].
func (b *Batch) AddComponent(componentName string, data *model.ComponentData) bool {
	return b.s.addComponentLocked(componentName, data)
}

// AssignRepositoryToComponent is the batched form of
// [Store.AssignRepositoryToComponent].
func (b *Batch) AssignRepositoryToComponent(repoName, componentName string) bool {
	return b.s.assignLocked(repoName, componentName)
}

// AddDependency is the batched form of [Store.AddDependency].
func (b *Batch) AddDependency(record model.DependencyRecord) bool {
	return b.s.addDependencyLocked(record)
}

// BatchUpdate runs fn with the store lock held so a burst of mutations is
// applied as one unit without interleaved readers.
func (s *Store) BatchUpdate(fn func(batch *Batch)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&Batch{s: s})
}

// ClearCache drops the in-memory state so the next Load re-reads disk.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = nil
	s.dirty = false
	s.depIndex = nil
}

// BackupCurrentState copies the primary file to a timestamped backup and
// returns its path. An empty name selects discovery_backup_<timestamp>.json.
func (s *Store) BackupCurrentState(backupName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if backupName == "" {
		backupName = fmt.Sprintf("discovery_backup_%s.json", time.Now().Format("20060102_150405"))
	}

	backupPath := filepath.Join(s.storageDir, backupName)

	if _, statErr := os.Stat(s.cacheFile); statErr == nil {
		copyErr := copyFile(s.cacheFile, backupPath)
		if copyErr != nil {
			return "", fmt.Errorf("copy state backup: %w", copyErr)
		}
	}

	return backupPath, nil
}

// Info describes the storage files for diagnostics.
func (s *Store) Info() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := map[string]any{
		"storage_dir":       s.storageDir,
		"cache_file":        s.cacheFile,
		"cache_file_exists": false,
		"backup_exists":     false,
		"cache_loaded":      s.cache != nil,
		"cache_dirty":       s.dirty,
	}

	if stat, statErr := os.Stat(s.cacheFile); statErr == nil {
		info["cache_file_exists"] = true
		info["cache_file_size"] = stat.Size()
		info["cache_file_modified"] = stat.ModTime()
	}

	if _, statErr := os.Stat(s.backupFile); statErr == nil {
		info["backup_exists"] = true
	}

	return info
}

func (s *Store) updateRepositoryLocked(repoName string, meta *model.RepoMetadata) bool {
	if s.cache == nil {
		return false
	}

	s.cache.Repositories[repoName] = meta
	s.cache.LastUpdated = time.Now()

	s.cache.TotalRepositories = len(s.cache.Repositories)
	s.cache.RepositoriesWithInsights = 0

	for _, repo := range s.cache.Repositories {
		if len(repo.Insights) > 0 {
			s.cache.RepositoriesWithInsights++
		}
	}

	s.dirty = true

	return true
}

func (s *Store) addComponentLocked(componentName string, data *model.ComponentData) bool {
	if s.cache == nil {
		return false
	}

	s.cache.Components[componentName] = data
	s.cache.LastUpdated = time.Now()
	s.dirty = true

	return true
}

func (s *Store) assignLocked(repoName, componentName string) bool {
	if s.cache == nil {
		return false
	}

	if repo, ok := s.cache.Repositories[repoName]; ok {
		if !contains(repo.AssignedComponents, componentName) {
			repo.AssignedComponents = append(repo.AssignedComponents, componentName)
			repo.UpdateDiscoveryStatus()
		}
	}

	if component, ok := s.cache.Components[componentName]; ok {
		if !contains(component.Repositories, repoName) {
			component.Repositories = append(component.Repositories, repoName)
		}
	}

	s.cache.LastUpdated = time.Now()
	s.dirty = true

	return true
}

func (s *Store) addDependencyLocked(record model.DependencyRecord) bool {
	if s.cache == nil {
		return false
	}

	s.cache.DependencyRecords = append(s.cache.DependencyRecords, record)
	s.cache.LastUpdated = time.Now()
	s.dirty = true
	s.depIndex = nil

	return true
}

// loadFromFile reads, schema-checks, and unmarshals one state file.
func loadFromFile(path string) (*model.AnalysisState, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read state file: %w", readErr)
	}

	validateErr := validateStateJSON(data)
	if validateErr != nil {
		return nil, validateErr
	}

	var state model.AnalysisState

	unmarshalErr := json.Unmarshal(data, &state)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("parse state file: %w", unmarshalErr)
	}

	normalize(&state)

	return &state, nil
}

// normalize replaces nil collections left by unmarshaling with empty ones.
func normalize(state *model.AnalysisState) {
	if state.Repositories == nil {
		state.Repositories = map[string]*model.RepoMetadata{}
	}

	if state.Components == nil {
		state.Components = map[string]*model.ComponentData{}
	}

	if state.DependencyRecords == nil {
		state.DependencyRecords = []model.DependencyRecord{}
	}

	for _, repo := range state.Repositories {
		if repo.FileCounts == nil {
			repo.FileCounts = map[string]int{}
		}

		if repo.Insights == nil {
			repo.Insights = map[string]any{}
		}

		if repo.AssignedComponents == nil {
			repo.AssignedComponents = []string{}
		}

		if repo.ConfigFiles == nil {
			repo.ConfigFiles = []string{}
		}
	}
}

func writeToFile(state *model.AnalysisState, path string) error {
	data, marshalErr := json.MarshalIndent(state, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshal state: %w", marshalErr)
	}

	writeErr := os.WriteFile(path, data, 0o644)
	if writeErr != nil {
		return fmt.Errorf("write state file: %w", writeErr)
	}

	return nil
}

func copyFile(src, dst string) error {
	in, openErr := os.Open(src)
	if openErr != nil {
		return fmt.Errorf("open %s: %w", src, openErr)
	}
	defer in.Close()

	out, createErr := os.Create(dst)
	if createErr != nil {
		return fmt.Errorf("create %s: %w", dst, createErr)
	}

	_, copyErr := io.Copy(out, in)

	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("copy to %s: %w", dst, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", dst, closeErr)
	}

	return nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}

	return false
}
