package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/masiedu4/timemachine/internal/differ"
	"github.com/masiedu4/timemachine/internal/manifest"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

// RestorePlan describes what Restore will do (or did, for a non-dry-run
// call): the paths to create, overwrite, and delete to bring the tracked
// directory to match a snapshot.
type RestorePlan struct {
	ID       int
	Create   []string
	Overwrite []string
	Delete   []string
	// BackupID is set when force triggered an internal snapshot of the
	// dirty tree before applying the plan.
	BackupID *int
}

// Restore brings the tracked directory to match snapshot id.
//
// If the live tree has uncommitted changes relative to the latest
// manifest, Restore fails UncommittedChanges unless force is set, in
// which case it first snapshots the dirty state so it isn't lost. Every
// file the plan would create or overwrite must have its content present
// in the Content Store, checked before any mutation. When dryRun is true,
// the plan is computed and returned without changing the tree and without
// recording a backup snapshot.
func (e *Engine) Restore(ctx context.Context, id int, dryRun, force bool) (RestorePlan, error) {
	if err := e.requireInitialized(); err != nil {
		return RestorePlan{}, err
	}

	unlock, err := e.lock()
	if err != nil {
		return RestorePlan{}, err
	}
	defer unlock()

	if err := e.checkWritable(); err != nil {
		return RestorePlan{}, err
	}

	status, err := e.statusLocked(ctx)
	if err != nil {
		return RestorePlan{}, err
	}

	var backupID *int
	if !status.Empty() {
		if !force {
			return RestorePlan{}, tmerrors.UncommittedChanges(status.Added, status.Removed, status.Modified)
		}
		if !dryRun {
			id2, err := e.snapshotLocked(ctx)
			if err != nil {
				return RestorePlan{}, err
			}
			backupID = &id2
		}
	}

	target, err := e.manifest.Read(id)
	if err != nil {
		return RestorePlan{}, err
	}

	live, err := e.scanLive(ctx)
	if err != nil {
		return RestorePlan{}, err
	}

	changes := differ.Diff(scanRecords(live), manifestRecords(target))

	for _, path := range append(append([]string{}, changes.Added...), changes.Modified...) {
		rec := target.Files[path]
		if !e.content.Exists(rec.Hash) {
			return RestorePlan{}, tmerrors.MissingContent(rec.Hash)
		}
	}

	var restoreSize int64
	for _, path := range append(append([]string{}, changes.Added...), changes.Modified...) {
		restoreSize += target.Files[path].Size
	}
	if err := e.checkAvailableSpace(restoreSize); err != nil {
		return RestorePlan{}, err
	}

	plan := RestorePlan{
		ID:        id,
		Create:    changes.Added,
		Overwrite: changes.Modified,
		Delete:    changes.Removed,
		BackupID:  backupID,
	}

	if dryRun {
		return plan, nil
	}

	for _, path := range changes.Removed {
		if err := os.Remove(filepath.Join(e.root, filepath.FromSlash(path))); err != nil && !os.IsNotExist(err) {
			return plan, tmerrors.IoError(path, err)
		}
	}

	for _, path := range append(append([]string{}, changes.Added...), changes.Modified...) {
		rec := target.Files[path]
		data, err := e.content.Get(rec.Hash)
		if err != nil {
			return plan, err
		}
		if err := writeFileAtomic(e.root, path, data); err != nil {
			return plan, err
		}
	}

	removeEmptyDirs(e.root, changes.Removed)

	e.log.Info("restore applied", "id", id, "created", len(plan.Create), "overwritten", len(plan.Overwrite), "deleted", len(plan.Delete))
	return plan, nil
}

// checkWritable fails IoError if the tracked root is not writable,
// supplementing the original implementation's pre-restore permission
// check without introducing a new error kind.
func (e *Engine) checkWritable() error {
	probe := filepath.Join(e.root, ".timemachine-write-probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return tmerrors.IoError(e.root, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// checkAvailableSpace fails InsufficientSpace if the filesystem holding
// the tracked directory does not have enough free bytes to accommodate
// the files a restore plan would create or overwrite.
func (e *Engine) checkAvailableSpace(needed int64) error {
	if needed <= 0 {
		return nil
	}
	usage, err := disk.Usage(e.root)
	if err != nil {
		// Disk usage detection is a supplemental safety check; if the
		// platform can't report it, proceed and let the write fail
		// naturally if space truly runs out.
		e.log.Warn("could not determine free disk space", "error", err)
		return nil
	}
	if int64(usage.Free) < needed {
		return tmerrors.InsufficientSpace(e.root)
	}
	return nil
}

// statusLocked is Status's core, reusable from within an operation that
// already holds the lock.
func (e *Engine) statusLocked(ctx context.Context) (differ.Changes, error) {
	latest, err := e.latestManifest()
	if err != nil {
		return differ.Changes{}, err
	}
	live, err := e.scanLive(ctx)
	if err != nil {
		return differ.Changes{}, err
	}
	return differ.Diff(manifestRecords(latest), scanRecords(live)), nil
}

// snapshotLocked is Snapshot's core, reusable from within an operation
// that already holds the lock (force-restore's backup snapshot).
func (e *Engine) snapshotLocked(ctx context.Context) (int, error) {
	live, err := e.scanLive(ctx)
	if err != nil {
		return 0, err
	}

	files := make(map[string]manifest.FileRecord, len(live))
	for path, rec := range live {
		if !e.content.Exists(rec.Hash) {
			fullPath := filepath.Join(e.root, filepath.FromSlash(path))
			data, err := os.ReadFile(fullPath)
			if err != nil {
				return 0, tmerrors.IoError(fullPath, err)
			}
			if _, err := e.content.Put(data); err != nil {
				return 0, err
			}
		}
		files[path] = manifest.FileRecord{Size: rec.Size, Hash: rec.Hash}
	}

	ids, err := e.manifest.List()
	if err != nil {
		return 0, err
	}
	var parentID *int
	if len(ids) > 0 {
		p := ids[len(ids)-1]
		parentID = &p
	}

	id, err := e.manifest.NextID()
	if err != nil {
		return 0, err
	}

	m := &manifest.Manifest{
		ID:        id,
		Timestamp: nowUTC(),
		ParentID:  parentID,
		Files:     files,
	}
	if err := e.manifest.Write(m); err != nil {
		return 0, err
	}

	e.log.Info("snapshot committed", "id", id, "files", len(files))
	return id, nil
}

func writeFileAtomic(root, relPath string, data []byte) error {
	target := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return tmerrors.IoError(target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmrestore-*.tmp")
	if err != nil {
		return tmerrors.IoError(target, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
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

// removeEmptyDirs best-effort removes directories left empty by deleting
// the given relative paths, walking from the deepest parent upward.
func removeEmptyDirs(root string, deletedPaths []string) {
	seen := make(map[string]bool)
	for _, p := range deletedPaths {
		dir := filepath.Dir(filepath.Join(root, filepath.FromSlash(p)))
		for dir != root && dir != "." && !seen[dir] {
			seen[dir] = true
			entries, err := os.ReadDir(dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(dir); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}
