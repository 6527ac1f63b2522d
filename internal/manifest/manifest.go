// Package manifest implements the snapshot manifest store: persisting
// per-snapshot file sets to snapshots/<id>.json and allocating the
// monotonically increasing snapshot ids recorded in state.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/masiedu4/timemachine/internal/logging"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

// FileRecord is one entry in a manifest's file set.
type FileRecord struct {
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

// Manifest is one snapshot's immutable record.
type Manifest struct {
	ID        int                   `json:"id"`
	Timestamp string                `json:"timestamp"`
	ParentID  *int                  `json:"parent_id"`
	Files     map[string]FileRecord `json:"files"`
}

type stateFile struct {
	NextID int `json:"next_id"`
}

// Store manages manifests and the next-id counter under a snapshots/
// directory and its sibling state.json.
type Store struct {
	dir       string
	statePath string
	log       *logging.Logger
	mu        sync.Mutex
}

// New returns a Store rooted at dir (the snapshots/ directory); statePath
// is the path to state.json, a sibling of dir under .timemachine/.
func New(dir, statePath string) *Store {
	return &Store{dir: dir, statePath: statePath, log: logging.Get("manifest")}
}

// Write serializes and atomically persists a manifest to
// snapshots/<id>.json.
func (s *Store) Write(m *Manifest) error {
	path := s.path(m.ID)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return tmerrors.IoError(path, err)
	}

	if err := writeAtomic(s.dir, path, data); err != nil {
		return err
	}

	s.log.Debug("manifest written", "id", m.ID, "files", len(m.Files))
	return nil
}

// Read loads the manifest with the given id.
func (s *Store) Read(id int) (*Manifest, error) {
	path := s.path(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tmerrors.NotFound("manifest", strconv.Itoa(id))
		}
		return nil, tmerrors.IoError(path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, tmerrors.Corrupt("manifest", strconv.Itoa(id), err)
	}

	return &m, nil
}

// List returns the ids of every manifest present, ascending.
func (s *Store) List() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, tmerrors.IoError(s.dir, err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		idStr := strings.TrimSuffix(name, ".json")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.Ints(ids)
	return ids, nil
}

// Delete removes the manifest with the given id. Idempotent.
func (s *Store) Delete(id int) error {
	path := s.path(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return tmerrors.IoError(path, err)
	}
	s.log.Debug("manifest deleted", "id", id)
	return nil
}

// InitState writes state.json with next_id=1 if it does not already
// exist or is empty (the engine's lock creates it empty before Init gets
// here). Idempotent: a non-empty state.json is left untouched.
func (s *Store) InitState() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, err := os.Stat(s.statePath); err == nil {
		if info.Size() > 0 {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return tmerrors.IoError(s.statePath, err)
	}

	return s.writeState(stateFile{NextID: 1})
}

// NextID returns the next snapshot id to allocate, incrementing and
// persisting the counter in state.json. If state.json is absent, it
// initializes the counter at 1 and returns 1.
func (s *Store) NextID() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.readState()
	if err != nil {
		return 0, err
	}

	if st.NextID < 1 {
		st.NextID = 1
	}

	id := st.NextID
	st.NextID = id + 1

	if err := s.writeState(st); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *Store) readState() (stateFile, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return stateFile{NextID: 1}, nil
		}
		return stateFile{}, tmerrors.IoError(s.statePath, err)
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		return stateFile{}, tmerrors.Corrupt("state", s.statePath, err)
	}
	return st, nil
}

func (s *Store) writeState(st stateFile) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return tmerrors.IoError(s.statePath, err)
	}
	return writeAtomic(filepath.Dir(s.statePath), s.statePath, data)
}

func (s *Store) path(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", id))
}

// writeAtomic writes data to target via a temp file in dir followed by a
// rename, which is atomic on the same filesystem.
func writeAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "manifest-*.tmp")
	if err != nil {
		return tmerrors.IoError(target, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return tmerrors.IoError(target, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return tmerrors.IoError(target, err)
	}
	if err := tmp.Close(); err != nil {
		return tmerrors.IoError(target, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return tmerrors.IoError(target, err)
	}
	return nil
}
