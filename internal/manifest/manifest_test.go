package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masiedu4/timemachine/internal/tmerrors"
)

func newTestStore(t *testing.T) *Store {
	root := t.TempDir()
	dir := filepath.Join(root, "snapshots")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return New(dir, filepath.Join(root, "state.json"))
}

func TestNextIDStartsAtOneAndIncrements(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.NextID()
	require.NoError(t, err)
	require.Equal(t, 1, id1)

	id2, err := s.NextID()
	require.NoError(t, err)
	require.Equal(t, 2, id2)
}

func TestNextIDSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "snapshots")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	statePath := filepath.Join(root, "state.json")

	s1 := New(dir, statePath)
	_, err := s1.NextID()
	require.NoError(t, err)
	_, err = s1.NextID()
	require.NoError(t, err)

	s2 := New(dir, statePath)
	id, err := s2.NextID()
	require.NoError(t, err)
	require.Equal(t, 3, id)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	m := &Manifest{
		ID:        1,
		Timestamp: "2026-01-01T00:00:00Z",
		Files: map[string]FileRecord{
			"a.txt": {Size: 5, Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		},
	}
	require.NoError(t, s.Write(m))

	got, err := s.Read(1)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, m.Files, got.Files)
	require.Nil(t, got.ParentID)
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read(42)
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindNotFound))
}

func TestListReturnsAscendingIDs(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []int{3, 1, 2} {
		require.NoError(t, s.Write(&Manifest{ID: id, Timestamp: "2026-01-01T00:00:00Z", Files: map[string]FileRecord{}}))
	}

	ids, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, ids)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(&Manifest{ID: 1, Timestamp: "2026-01-01T00:00:00Z", Files: map[string]FileRecord{}}))

	require.NoError(t, s.Delete(1))
	require.NoError(t, s.Delete(1))

	ids, err := s.List()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestParentIDRoundTrip(t *testing.T) {
	s := newTestStore(t)
	parent := 1
	m := &Manifest{ID: 2, Timestamp: "2026-01-01T00:00:00Z", ParentID: &parent, Files: map[string]FileRecord{}}
	require.NoError(t, s.Write(m))

	got, err := s.Read(2)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	require.Equal(t, 1, *got.ParentID)
}
