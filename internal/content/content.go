// Package content implements the content-addressed object store: file
// bodies keyed by the SHA-256 hash of their uncompressed bytes, compressed
// on write and decompressed on read.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zstd"

	"github.com/masiedu4/timemachine/internal/logging"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Store is the content-addressed object store rooted at a contents/
// directory inside a tracked directory's metadata subtree.
type Store struct {
	dir            string
	log            *logging.Logger
	compressLevel  zstd.EncoderLevel
}

// New returns a Store rooted at dir. The directory must already exist;
// callers create it during init.
func New(dir string, compressionLevel int) *Store {
	return &Store{
		dir:           dir,
		log:           logging.Get("content"),
		compressLevel: levelFromInt(compressionLevel),
	}
}

func levelFromInt(n int) zstd.EncoderLevel {
	switch {
	case n <= 1:
		return zstd.SpeedFastest
	case n == 2:
		return zstd.SpeedDefault
	case n >= 3 && n <= 6:
		return zstd.SpeedDefault
	case n >= 7 && n <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Path returns the on-disk path for an object with the given hash. Objects
// are stored flat (contents/<hash>); sharded layouts are accepted on read
// via resolvePath(), which checks both.
func (s *Store) Path(hash string) string {
	return filepath.Join(s.dir, hash)
}

func (s *Store) shardedPath(hash string) string {
	if len(hash) < 2 {
		return s.Path(hash)
	}
	return filepath.Join(s.dir, hash[:2], hash)
}

// resolvePath returns the on-disk path of an existing object, checking the
// flat layout first and the two-character sharded layout second, since the
// format permits either.
func (s *Store) resolvePath(hash string) (string, bool) {
	if p := s.Path(hash); fileExists(p) {
		return p, true
	}
	if p := s.shardedPath(hash); fileExists(p) {
		return p, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Put computes the SHA-256 of data, and if no object with that key exists
// writes the zstd-compressed bytes to the object path atomically (temp
// file + rename within contents/). Returns the hex hash regardless of
// whether the object was newly written.
func (s *Store) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if _, ok := s.resolvePath(hash); ok {
		s.log.Debug("object already present", "hash", hash)
		return hash, nil
	}

	target := s.Path(hash)
	tmp, err := os.CreateTemp(s.dir, "obj-*.tmp")
	if err != nil {
		return "", tmerrors.IoError(target, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(s.compressLevel))
	if err != nil {
		tmp.Close()
		return "", tmerrors.IoError(target, err)
	}

	if _, err := enc.Write(data); err != nil {
		enc.Close()
		tmp.Close()
		return "", tmerrors.IoError(target, err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return "", tmerrors.IoError(target, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", tmerrors.IoError(target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", tmerrors.IoError(target, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return "", tmerrors.IoError(target, err)
	}

	s.log.Debug("object written", "hash", hash, "bytes", len(data))
	return hash, nil
}

// Get reads and decompresses the object for hash. Fails NotFound if no
// object exists; fails Corrupt if decompression fails or the decompressed
// bytes hash to a different value than requested.
func (s *Store) Get(hash string) ([]byte, error) {
	path, ok := s.resolvePath(hash)
	if !ok {
		return nil, tmerrors.NotFound("content", hash)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, tmerrors.IoError(path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, tmerrors.Corrupt("content", hash, err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, tmerrors.Corrupt("content", hash, err)
	}

	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != hash {
		return nil, tmerrors.Corrupt("content", hash, fmt.Errorf("hash mismatch: want %s, got %s", hash, got))
	}

	return data, nil
}

// Exists reports whether an object with the given hash is present.
func (s *Store) Exists(hash string) bool {
	_, ok := s.resolvePath(hash)
	return ok
}

// Delete removes the object for hash. Idempotent: a missing object is not
// an error.
func (s *Store) Delete(hash string) error {
	path, ok := s.resolvePath(hash)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return tmerrors.IoError(path, err)
	}
	s.log.Debug("object deleted", "hash", hash)
	return nil
}

// Size returns the on-disk (compressed) size in bytes of the object for
// hash. Fails NotFound if the object is absent.
func (s *Store) Size(hash string) (int64, error) {
	path, ok := s.resolvePath(hash)
	if !ok {
		return 0, tmerrors.NotFound("content", hash)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, tmerrors.IoError(path, err)
	}
	return info.Size(), nil
}

// Enumerate returns the hash of every object currently present, in both
// the flat and sharded layouts.
func (s *Store) Enumerate() ([]string, error) {
	var hashes []string

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, tmerrors.IoError(s.dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && hashPattern.MatchString(name) {
			hashes = append(hashes, name)
			continue
		}
		if e.IsDir() && len(name) == 2 {
			shardDir := filepath.Join(s.dir, name)
			shardEntries, err := os.ReadDir(shardDir)
			if err != nil {
				continue
			}
			for _, se := range shardEntries {
				if !se.IsDir() && hashPattern.MatchString(se.Name()) {
					hashes = append(hashes, se.Name())
				}
			}
		}
	}

	return hashes, nil
}
