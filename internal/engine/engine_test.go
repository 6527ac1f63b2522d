package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masiedu4/timemachine/internal/config"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

func testConfig() config.Config {
	return config.Config{
		CompressionLevel:      1,
		Workers:               config.Workers{Dir: 2, File: 2},
		CleanupThresholdBytes: config.DefaultCleanupThresholdBytes,
	}
}

func newTestEngine(t *testing.T) (*Engine, string) {
	root := t.TempDir()
	e, err := New(root, testConfig())
	require.NoError(t, err)
	require.NoError(t, e.Init())
	return e, root
}

func TestInitCreatesLayout(t *testing.T) {
	_, root := newTestEngine(t)

	require.DirExists(t, filepath.Join(root, MetadataDirName, "contents"))
	require.DirExists(t, filepath.Join(root, MetadataDirName, "snapshots"))
	require.FileExists(t, filepath.Join(root, MetadataDirName, "state.json"))
}

func TestInitTwiceFails(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.Init()
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindAlreadyInitialized))
}

func TestNewOnMissingRootFails(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"), testConfig())
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindNoSuchDirectory))
}

// S1 — empty init then snapshot.
func TestScenarioEmptyInitThenSnapshot(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	id, err := e.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, id)

	m, err := e.manifest.Read(1)
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	require.Equal(t, int64(5), m.Files["a.txt"].Size)
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", m.Files["a.txt"].Hash)
}

// S2 — dedup across snapshots.
func TestScenarioDedupAcrossSnapshots(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("shared"), 0o644))

	id1, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("other"), 0o644))
	_, err = e.Snapshot(context.Background())
	require.NoError(t, err)

	hashes, err := e.content.Enumerate()
	require.NoError(t, err)
	require.Len(t, hashes, 2)

	result, err := e.Delete(id1, true)
	require.NoError(t, err)
	require.Equal(t, 0, result.ObjectsRemoved) // b.txt's hash still referenced by snapshot 2

	remaining, err := e.content.Enumerate()
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}

// S3 — modification detection.
func TestScenarioModificationDetection(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("x"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("y"), 0o644))

	status, err := e.Status(context.Background())
	require.NoError(t, err)
	require.Empty(t, status.Added)
	require.Empty(t, status.Removed)
	require.Equal(t, []string{"c.txt"}, status.Modified)
}

// S4 — restore after deletion. A deletion relative to the latest manifest
// counts as an uncommitted change (grounded in original_source's
// has_uncommitted_changes, whose own test asserts exactly this for a
// removed file), so recovering it requires force, which also records a
// backup snapshot of the now-missing-file state before restoring.
func TestScenarioRestoreAfterDeletion(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "d.txt"), []byte("keepme"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "d.txt")))

	_, err = e.Restore(context.Background(), 1, false, true)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "d.txt"))
	require.NoError(t, err)
	require.Equal(t, "keepme", string(data))

	status, err := e.Status(context.Background())
	require.NoError(t, err)
	require.True(t, status.Empty())
}

// S5 — force restore backs up dirty state.
func TestScenarioForceRestoreBacksUp(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "e.txt"), []byte("clean"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "e.txt"), []byte("dirty"), 0o644))

	_, err = e.Restore(context.Background(), 1, false, false)
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindUncommittedChanges))

	plan, err := e.Restore(context.Background(), 1, false, true)
	require.NoError(t, err)
	require.NotNil(t, plan.BackupID)
	require.Equal(t, 2, *plan.BackupID)

	data, err := os.ReadFile(filepath.Join(root, "e.txt"))
	require.NoError(t, err)
	require.Equal(t, "clean", string(data))

	infos, err := e.List(false)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	// Restoring back to the backup snapshot: the live tree (id1's clean
	// content) differs from the latest manifest's own files (id2, the
	// dirty snapshot it captured), so this still requires force. See
	// DESIGN.md's note on the status-vs-target ambiguity in spec.md's
	// restore precheck.
	_, err = e.Restore(context.Background(), 2, false, true)
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(root, "e.txt"))
	require.NoError(t, err)
	require.Equal(t, "dirty", string(data))
}

func TestRestoreDryRunMutatesNothing(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("orig"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "f.txt")))

	plan, err := e.Restore(context.Background(), 1, true, true)
	require.NoError(t, err)
	require.Equal(t, []string{"f.txt"}, plan.Create)

	_, err = os.Stat(filepath.Join(root, "f.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestRestoreMissingContentFails(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "g.txt"), []byte("payload"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	m, err := e.manifest.Read(1)
	require.NoError(t, err)
	require.NoError(t, e.content.Delete(m.Files["g.txt"].Hash))

	require.NoError(t, os.Remove(filepath.Join(root, "g.txt")))

	_, err = e.Restore(context.Background(), 1, false, true)
	require.Error(t, err)
	require.True(t, tmerrors.Is(err, tmerrors.KindMissingContent))
}

func TestDiffBetweenSnapshots(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "h.txt"), []byte("v1"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "i.txt"), []byte("new"), 0o644))
	_, err = e.Snapshot(context.Background())
	require.NoError(t, err)

	changes, err := e.Diff(1, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"i.txt"}, changes.Added)
}

// S6 — cleanup threshold: deleting the only snapshot referencing content
// beyond the threshold reclaims it even without an explicit cleanup flag.
func TestScenarioCleanupThreshold(t *testing.T) {
	e, root := newTestEngine(t)
	e.cfg.CleanupThresholdBytes = 10 // force the threshold branch with small data

	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte("this is more than ten bytes of content"), 0o644))
	id, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	result, err := e.Delete(id, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.ObjectsRemoved)

	hashes, err := e.content.Enumerate()
	require.NoError(t, err)
	require.Empty(t, hashes)
}

func TestCleanupRemovesOrphans(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "j.txt"), []byte("orphan me"), 0o644))
	id, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.manifest.Delete(id))

	result, err := e.Cleanup()
	require.NoError(t, err)
	require.Equal(t, 1, result.ObjectsRemoved)
}

func TestListDetailedReportsOnDiskSize(t *testing.T) {
	e, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "k.txt"), []byte("some bytes"), 0o644))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	infos, err := e.List(true)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.NotNil(t, infos[0].OnDiskSize)
	require.Greater(t, *infos[0].OnDiskSize, int64(0))
}
