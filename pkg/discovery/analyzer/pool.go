package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

// DefaultWorkers is the default scan concurrency.
const DefaultWorkers = 4

// ProgressFunc receives completion updates during a bulk scan. It is called
// once per finished repository, from the collecting goroutine.
type ProgressFunc func(completed, total int, repoName string)

// ScanFunc analyzes one repository directory.
type ScanFunc func(repoPath string) *model.RepoMetadata

// FindRepositories lists candidate repository directories directly under
// basePath: non-hidden directories that are git repositories or simply
// non-empty. The result is sorted by path.
func FindRepositories(basePath string) []string {
	entries, readErr := os.ReadDir(basePath)
	if readErr != nil {
		return nil
	}

	var repoPaths []string

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(basePath, entry.Name())

		if _, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil {
			repoPaths = append(repoPaths, path)

			continue
		}

		children, childErr := os.ReadDir(path)
		if childErr == nil && len(children) > 0 {
			repoPaths = append(repoPaths, path)
		}
	}

	sort.Strings(repoPaths)

	return repoPaths
}

// FormatProgressMessage renders a human-readable scan progress line.
func FormatProgressMessage(completed, total int, repoName string) string {
	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}

	return fmt.Sprintf("[%d/%d] (%.1f%%) Analyzing: %s", completed, total, percentage, repoName)
}

// ScanAll analyzes repositories concurrently with a bounded worker pool.
// Every input path yields exactly one result keyed by repository name: a
// worker failure produces a stub record with the failure recorded under the
// insights key "analysis_error" instead of losing the repository.
func ScanAll(repoPaths []string, scan ScanFunc, workers int, progress ProgressFunc) map[string]*model.RepoMetadata {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	jobs := make(chan string)
	scanned := make(chan *model.RepoMetadata)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for repoPath := range jobs {
				scanned <- scanOne(repoPath, scan)
			}
		}()
	}

	go func() {
		for _, repoPath := range repoPaths {
			jobs <- repoPath
		}

		close(jobs)
		wg.Wait()
		close(scanned)
	}()

	results := make(map[string]*model.RepoMetadata, len(repoPaths))
	total := len(repoPaths)
	completed := 0

	for meta := range scanned {
		results[meta.Name] = meta
		completed++

		if progress != nil {
			name := meta.Name
			if _, failed := meta.Insights["analysis_error"]; failed {
				name += " (ERROR)"
			}

			progress(completed, total, name)
		}
	}

	return results
}

// scanOne runs the scan function for a single repository, converting a panic
// into an error-stub record so one bad repository cannot abort the batch.
func scanOne(repoPath string, scan ScanFunc) (meta *model.RepoMetadata) {
	defer func() {
		if recovered := recover(); recovered != nil {
			name := filepath.Base(repoPath)

			meta = model.NewRepoMetadata(name, name)
			meta.Insights["analysis_error"] = fmt.Sprintf("%v", recovered)
		}
	}()

	meta = scan(repoPath)
	if meta == nil {
		name := filepath.Base(repoPath)

		meta = model.NewRepoMetadata(name, name)
		meta.Insights["analysis_error"] = "scanner returned no result"
	}

	return meta
}
