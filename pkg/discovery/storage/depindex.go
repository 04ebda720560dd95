package storage

import (
	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

// DependencyIndex is a derived lookup over the dependency records: outgoing
// edges keyed by source repository and incoming edges keyed by target. It is
// built lazily from the state and never persisted.
type DependencyIndex struct {
	// Outgoing maps source repository name to its dependency records.
	Outgoing map[string][]model.DependencyRecord

	// Incoming maps target repository name to the records depending on it.
	Incoming map[string][]model.DependencyRecord
}

// DependencyIndex returns the index for the loaded state, building it on
// first use. The cached index is dropped whenever a dependency is appended.
// Returns nil when no state is loaded.
func (s *Store) DependencyIndex() *DependencyIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return nil
	}

	if s.depIndex == nil {
		s.depIndex = BuildDependencyIndex(s.cache.DependencyRecords)
	}

	return s.depIndex
}

// BuildDependencyIndex constructs an index from a record list.
func BuildDependencyIndex(records []model.DependencyRecord) *DependencyIndex {
	index := &DependencyIndex{
		Outgoing: map[string][]model.DependencyRecord{},
		Incoming: map[string][]model.DependencyRecord{},
	}

	for _, record := range records {
		index.Outgoing[record.SourceRepo] = append(index.Outgoing[record.SourceRepo], record)
		index.Incoming[record.TargetRepo] = append(index.Incoming[record.TargetRepo], record)
	}

	return index
}
