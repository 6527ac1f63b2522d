// Package scanner walks a tracked directory and produces the file-set the
// rest of the engine operates on: for every regular file, its normalized
// relative path, logical size, and SHA-256 content hash.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/masiedu4/timemachine/internal/logging"
	"github.com/masiedu4/timemachine/internal/tmerrors"
	"github.com/masiedu4/timemachine/internal/tuner"
)

// MetadataDirName is the engine's own metadata subtree, always excluded
// from scans.
const MetadataDirName = ".timemachine"

// FileRecord is a (path, size, hash) tuple for one regular file, keyed by
// its normalized relative path.
type FileRecord struct {
	Path string
	Size int64
	Hash string
}

// Options configures a Scan.
type Options struct {
	// DirWorkers and FileWorkers override the auto-tuned worker counts.
	// Zero means auto-tune via internal/tuner.
	DirWorkers  int
	FileWorkers int
}

// Scanner walks a tracked directory using a fastwalk-driven directory pool
// feeding a hashing worker pool.
type Scanner struct {
	opts Options
	log  *logging.Logger
}

// New returns a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts, log: logging.Get("scanner")}
}

// Scan walks root and returns the set of file records for every regular
// file, keyed implicitly by Path. Fails IoError on the first unreadable
// file or directory (fail-fast, per the engine's durability model), or
// InvalidPath if a normalized path would escape root.
func (s *Scanner) Scan(ctx context.Context, root string) (map[string]FileRecord, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, tmerrors.IoError(root, err)
	}

	workers := tuner.Calculate(mustDetect(s.log))
	fileWorkers := s.opts.FileWorkers
	if fileWorkers <= 0 {
		fileWorkers = workers.FileWorkers
	}
	dirWorkers := s.opts.DirWorkers
	if dirWorkers <= 0 {
		dirWorkers = workers.DirWorkers
	}

	paths := make(chan string, fileWorkers*4)
	results := make(chan FileRecord, fileWorkers*4)
	errCh := make(chan error, 1)

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workersWG sync.WaitGroup
	for i := 0; i < fileWorkers; i++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			for path := range paths {
				rec, err := s.hashFile(absRoot, path)
				if err != nil {
					select {
					case errCh <- err:
						cancel()
					default:
					}
					continue
				}
				select {
				case results <- rec:
				case <-walkCtx.Done():
					return
				}
			}
		}()
	}

	var collectWG sync.WaitGroup
	records := make(map[string]FileRecord)
	collectWG.Add(1)
	go func() {
		defer collectWG.Done()
		for rec := range results {
			records[rec.Path] = rec
		}
	}()

	walkConf := fastwalk.Config{Follow: false, NumWorkers: dirWorkers}
	walkErr := fastwalk.Walk(&walkConf, absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-walkCtx.Done():
			return fastwalk.ErrSkipFiles
		default:
		}

		if err != nil {
			select {
			case errCh <- tmerrors.IoError(path, err):
				cancel()
			default:
			}
			return fastwalk.ErrSkipFiles
		}

		if d.IsDir() {
			if d.Name() == MetadataDirName {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		select {
		case paths <- path:
		case <-walkCtx.Done():
			return fastwalk.ErrSkipFiles
		}
		return nil
	})

	close(paths)
	workersWG.Wait()
	close(results)
	collectWG.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, tmerrors.IoError(absRoot, walkErr)
	}

	s.log.Info("scan complete", "files", len(records))
	return records, nil
}

func (s *Scanner) hashFile(root, path string) (FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileRecord{}, tmerrors.IoError(path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return FileRecord{}, tmerrors.IoError(path, err)
	}

	relPath, err := normalizePath(root, path)
	if err != nil {
		return FileRecord{}, err
	}

	return FileRecord{
		Path: relPath,
		Size: size,
		Hash: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// normalizePath strips the root prefix, converts host separators to /, and
// rejects paths that escape the root or contain . or .. components.
func normalizePath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", tmerrors.InvalidPath(path)
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", tmerrors.InvalidPath(path)
	}

	for _, part := range strings.Split(rel, "/") {
		if part == "." || part == ".." {
			return "", tmerrors.InvalidPath(path)
		}
	}

	return rel, nil
}

func mustDetect(log *logging.Logger) tuner.SystemResources {
	resources, err := tuner.Detect()
	if err != nil {
		log.Warn("resource detection failed, using single-core defaults", "error", err)
		return tuner.SystemResources{CPUCores: 1, TotalRAM: 1 << 30, AvailableRAM: 1 << 30}
	}
	return resources
}
