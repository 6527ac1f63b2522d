// Package engine orchestrates the five components (content store, manifest
// store, scanner, differ, and this package's own operations) into the
// user-facing operations: init, snapshot, status, diff, list, restore,
// delete, and cleanup. It owns the reference-counting invariant between
// the content store and the manifest set, and takes an exclusive lock on
// the tracked directory's metadata subtree for the duration of any
// mutating call.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/masiedu4/timemachine/internal/config"
	"github.com/masiedu4/timemachine/internal/content"
	"github.com/masiedu4/timemachine/internal/logging"
	"github.com/masiedu4/timemachine/internal/manifest"
	"github.com/masiedu4/timemachine/internal/scanner"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

// MetadataDirName is the on-disk name of the engine's metadata subtree.
const MetadataDirName = scanner.MetadataDirName

const (
	contentsDirName  = "contents"
	snapshotsDirName = "snapshots"
	stateFileName    = "state.json"
)

// Engine is a handle bound to one tracked directory. Every mutating
// operation takes an exclusive file lock on state.json for its duration,
// matching the single-writer model spec.md §5 assumes.
type Engine struct {
	root     string
	metaDir  string
	cfg      config.Config
	content  *content.Store
	manifest *manifest.Store
	scanner  *scanner.Scanner
	log      *logging.Logger
}

// New returns an Engine bound to root, using cfg for compression level and
// worker counts. It does not require root to already be tracked; Init
// creates the metadata subtree, other operations fail NotInitialized if
// it's absent.
func New(root string, cfg config.Config) (*Engine, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, tmerrors.NoSuchDirectory(root)
	}

	metaDir := filepath.Join(root, MetadataDirName)

	return &Engine{
		root:    root,
		metaDir: metaDir,
		cfg:     cfg,
		content: content.New(filepath.Join(metaDir, contentsDirName), cfg.CompressionLevel),
		manifest: manifest.New(
			filepath.Join(metaDir, snapshotsDirName),
			filepath.Join(metaDir, stateFileName),
		),
		scanner: scanner.New(scanner.Options{
			DirWorkers:  cfg.Workers.Dir,
			FileWorkers: cfg.Workers.File,
		}),
		log: logging.Get("engine"),
	}, nil
}

func (e *Engine) statePath() string {
	return filepath.Join(e.metaDir, stateFileName)
}

// isInitialized reports whether the metadata subtree exists.
func (e *Engine) isInitialized() bool {
	info, err := os.Stat(e.metaDir)
	return err == nil && info.IsDir()
}

func (e *Engine) requireInitialized() error {
	if !e.isInitialized() {
		return tmerrors.NotInitialized(e.root)
	}
	return nil
}

// lock acquires an exclusive advisory lock on state.json for the duration
// of a mutating operation. The returned func releases it and closes the
// file descriptor; callers must defer it immediately.
func (e *Engine) lock() (func(), error) {
	f, err := os.OpenFile(e.statePath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, tmerrors.IoError(e.statePath(), err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, tmerrors.IoError(e.statePath(), err)
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}

// scanLive runs the Scanner against root and returns its records keyed by
// normalized path; scanRecords adapts them into the differ's Record shape.
func (e *Engine) scanLive(ctx context.Context) (map[string]scanner.FileRecord, error) {
	return e.scanner.Scan(ctx, e.root)
}

// latestManifest returns the manifest with the highest id, or nil if none
// exist.
func (e *Engine) latestManifest() (*manifest.Manifest, error) {
	ids, err := e.manifest.List()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return e.manifest.Read(ids[len(ids)-1])
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
