package domain

import "time"

// Snapshot is an immutable view of the dataset.
// A reload produces a new snapshot; existing snapshots are never modified.
type Snapshot struct {
	Entries  []Entry
	Version  string
	Source   string
	LoadedAt time.Time
}

// Counts returns the number of entries per entity type
func (s *Snapshot) Counts() map[EntityType]int {
	counts := make(map[EntityType]int, len(DatasetSections))
	for _, section := range DatasetSections {
		counts[section] = 0
	}
	if s == nil {
		return counts
	}
	for _, entry := range s.Entries {
		counts[entry.Type]++
	}
	return counts
}

// Len returns the total number of entries
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
