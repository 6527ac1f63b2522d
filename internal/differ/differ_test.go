package differ

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffAddedRemovedModified(t *testing.T) {
	a := map[string]Record{
		"keep.txt":   {Hash: "h1"},
		"gone.txt":   {Hash: "h2"},
		"change.txt": {Hash: "h3"},
	}
	b := map[string]Record{
		"keep.txt":   {Hash: "h1"},
		"new.txt":    {Hash: "h4"},
		"change.txt": {Hash: "h5"},
	}

	changes := Diff(a, b)
	require.Equal(t, []string{"new.txt"}, changes.Added)
	require.Equal(t, []string{"gone.txt"}, changes.Removed)
	require.Equal(t, []string{"change.txt"}, changes.Modified)
}

func TestDiffEmptyWhenIdentical(t *testing.T) {
	a := map[string]Record{"x.txt": {Hash: "h1"}}
	b := map[string]Record{"x.txt": {Hash: "h1"}}

	changes := Diff(a, b)
	require.True(t, changes.Empty())
}

func TestDiffSameSizeDifferentHashIsModified(t *testing.T) {
	a := map[string]Record{"x.txt": {Hash: "aaa"}}
	b := map[string]Record{"x.txt": {Hash: "bbb"}}

	changes := Diff(a, b)
	require.Equal(t, []string{"x.txt"}, changes.Modified)
}

func TestDiffSymmetry(t *testing.T) {
	a := map[string]Record{"only-a.txt": {Hash: "h1"}, "shared.txt": {Hash: "h2"}}
	b := map[string]Record{"only-b.txt": {Hash: "h3"}, "shared.txt": {Hash: "h2"}}

	forward := Diff(a, b)
	backward := Diff(b, a)

	require.Equal(t, forward.Added, backward.Removed)
	require.Equal(t, forward.Removed, backward.Added)
	require.Equal(t, forward.Modified, backward.Modified)
}

func TestDiffSortedLexicographically(t *testing.T) {
	a := map[string]Record{}
	b := map[string]Record{
		"z.txt": {Hash: "h1"},
		"a.txt": {Hash: "h2"},
		"m.txt": {Hash: "h3"},
	}

	changes := Diff(a, b)
	require.Equal(t, []string{"a.txt", "m.txt", "z.txt"}, changes.Added)
}
