package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/masiedu4/timemachine/internal/differ"
	"github.com/masiedu4/timemachine/internal/manifest"
	"github.com/masiedu4/timemachine/internal/scanner"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

// Init creates the metadata subtree (.timemachine/, its contents/ and
// snapshots/ directories, and an initial state.json with next_id=1).
// Fails AlreadyInitialized if the subtree already exists.
func (e *Engine) Init() error {
	if e.isInitialized() {
		return tmerrors.AlreadyInitialized(e.root)
	}

	for _, dir := range []string{
		e.metaDir,
		filepath.Join(e.metaDir, contentsDirName),
		filepath.Join(e.metaDir, snapshotsDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tmerrors.IoError(dir, err)
		}
	}

	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.manifest.InitState(); err != nil {
		return err
	}

	e.log.Info("initialized", "root", e.root)
	return nil
}

// Snapshot runs the Scanner, writes any new content objects, allocates the
// next id, and durably writes the manifest. Returns the new snapshot's id.
func (e *Engine) Snapshot(ctx context.Context) (int, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}

	unlock, err := e.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	return e.snapshotLocked(ctx)
}

// Status computes diff(latest_manifest.files, scan(root)). If no
// manifests exist, every scanned file is reported as added.
func (e *Engine) Status(ctx context.Context) (differ.Changes, error) {
	if err := e.requireInitialized(); err != nil {
		return differ.Changes{}, err
	}

	latest, err := e.latestManifest()
	if err != nil {
		return differ.Changes{}, err
	}

	live, err := e.scanLive(ctx)
	if err != nil {
		return differ.Changes{}, err
	}

	a := manifestRecords(latest)
	b := scanRecords(live)

	return differ.Diff(a, b), nil
}

// Diff loads manifests id1 and id2 and runs the Differ on their file sets.
func (e *Engine) Diff(id1, id2 int) (differ.Changes, error) {
	if err := e.requireInitialized(); err != nil {
		return differ.Changes{}, err
	}

	m1, err := e.manifest.Read(id1)
	if err != nil {
		return differ.Changes{}, err
	}
	m2, err := e.manifest.Read(id2)
	if err != nil {
		return differ.Changes{}, err
	}

	return differ.Diff(manifestRecords(m1), manifestRecords(m2)), nil
}

// SnapshotInfo describes one snapshot for List.
type SnapshotInfo struct {
	ID               int
	Timestamp        string
	FileCount        int
	TotalLogicalSize int64
	// OnDiskSize is populated only when List is called with detailed=true:
	// the compressed size of content objects unique to this snapshot.
	OnDiskSize *int64
	// SharedSize accompanies OnDiskSize: the compressed size of objects
	// this snapshot references that are also referenced elsewhere.
	SharedSize *int64
}

// List returns every snapshot's summary, ascending by id. When detailed is
// true, it additionally computes each snapshot's unique and shared
// on-disk (compressed) size by cross-referencing hash usage across all
// manifests.
func (e *Engine) List(detailed bool) ([]SnapshotInfo, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	ids, err := e.manifest.List()
	if err != nil {
		return nil, err
	}

	manifests := make([]*manifest.Manifest, 0, len(ids))
	for _, id := range ids {
		m, err := e.manifest.Read(id)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	var hashOwners map[string]int
	if detailed {
		hashOwners = make(map[string]int)
		for _, m := range manifests {
			seen := make(map[string]bool)
			for _, rec := range m.Files {
				if !seen[rec.Hash] {
					hashOwners[rec.Hash]++
					seen[rec.Hash] = true
				}
			}
		}
	}

	infos := make([]SnapshotInfo, 0, len(manifests))
	for _, m := range manifests {
		var totalSize int64
		for _, rec := range m.Files {
			totalSize += rec.Size
		}

		info := SnapshotInfo{
			ID:               m.ID,
			Timestamp:        m.Timestamp,
			FileCount:        len(m.Files),
			TotalLogicalSize: totalSize,
		}

		if detailed {
			var unique, shared int64
			seen := make(map[string]bool)
			for _, rec := range m.Files {
				if seen[rec.Hash] {
					continue
				}
				seen[rec.Hash] = true

				size, err := e.content.Size(rec.Hash)
				if err != nil {
					continue
				}
				if hashOwners[rec.Hash] > 1 {
					shared += size
				} else {
					unique += size
				}
			}
			info.OnDiskSize = &unique
			info.SharedSize = &shared
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func manifestRecords(m *manifest.Manifest) map[string]differ.Record {
	if m == nil {
		return map[string]differ.Record{}
	}
	out := make(map[string]differ.Record, len(m.Files))
	for path, rec := range m.Files {
		out[path] = differ.Record{Hash: rec.Hash}
	}
	return out
}

func scanRecords(records map[string]scanner.FileRecord) map[string]differ.Record {
	out := make(map[string]differ.Record, len(records))
	for path, rec := range records {
		out[path] = differ.Record{Hash: rec.Hash}
	}
	return out
}
