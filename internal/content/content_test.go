package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masiedu4/timemachine/internal/tmerrors"
)

func newTestStore(t *testing.T) *Store {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return New(dir, 3)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.Put([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	data, err := s.Get(hash)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestPutIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	hash1, err := s.Put([]byte("repeat"))
	require.NoError(t, err)
	hash2, err := s.Put([]byte("repeat"))
	require.NoError(t, err)
	require.Equal(t, hash1, hash2)

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("0000000000000000000000000000000000000000000000000000000000000000"[:64])
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindNotFound))
}

func TestGetCorruptObject(t *testing.T) {
	s := newTestStore(t)
	hash, err := s.Put([]byte("payload"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(hash), []byte("not zstd data"), 0o644))

	_, err = s.Get(hash)
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindCorrupt))
}

func TestExistsAndDelete(t *testing.T) {
	s := newTestStore(t)
	hash, err := s.Put([]byte("to delete"))
	require.NoError(t, err)
	require.True(t, s.Exists(hash))

	require.NoError(t, s.Delete(hash))
	require.False(t, s.Exists(hash))

	// Deleting again is idempotent.
	require.NoError(t, s.Delete(hash))
}

func TestShardedLayoutIsReadable(t *testing.T) {
	s := newTestStore(t)
	hash, err := s.Put([]byte("shard me"))
	require.NoError(t, err)

	shardDir := filepath.Join(s.dir, hash[:2])
	require.NoError(t, os.MkdirAll(shardDir, 0o755))
	require.NoError(t, os.Rename(s.Path(hash), filepath.Join(shardDir, hash)))

	require.True(t, s.Exists(hash))
	data, err := s.Get(hash)
	require.NoError(t, err)
	require.Equal(t, []byte("shard me"), data)
}

func TestEnumerate(t *testing.T) {
	s := newTestStore(t)
	h1, err := s.Put([]byte("one"))
	require.NoError(t, err)
	h2, err := s.Put([]byte("two"))
	require.NoError(t, err)

	hashes, err := s.Enumerate()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{h1, h2}, hashes)
}

func TestSize(t *testing.T) {
	s := newTestStore(t)
	hash, err := s.Put([]byte("some content to compress"))
	require.NoError(t, err)

	size, err := s.Size(hash)
	require.NoError(t, err)
	require.Greater(t, size, int64(0))

	_, err = s.Size("missing")
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindNotFound))
}
