// Package differ computes the change set between two file-sets, whether
// manifest-to-manifest or manifest-to-live-scan.
package differ

import "sort"

// Record is the minimal shape a file-set entry needs for diffing: a
// content hash to compare. Both manifest.FileRecord and scanner.FileRecord
// satisfy this by conversion at the call site.
type Record struct {
	Hash string
}

// Changes holds the three classifications produced by Diff, each sorted
// lexicographically by path for deterministic presentation.
type Changes struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Empty reports whether the change set has no additions, removals, or
// modifications.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Diff compares file-set A against B, both keyed by normalized path, and
// classifies every path into added (in B, not A), removed (in A, not B),
// or modified (in both, with differing hash). Hash is authoritative: equal
// sizes with differing hashes still count as modified.
func Diff(a, b map[string]Record) Changes {
	var changes Changes

	for path := range b {
		if _, ok := a[path]; !ok {
			changes.Added = append(changes.Added, path)
		}
	}

	for path, recA := range a {
		recB, ok := b[path]
		if !ok {
			changes.Removed = append(changes.Removed, path)
			continue
		}
		if recA.Hash != recB.Hash {
			changes.Modified = append(changes.Modified, path)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	sort.Strings(changes.Modified)

	return changes
}
