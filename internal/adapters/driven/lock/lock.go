// Package lock provides a cross-process rebuild lock backed by lock files.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure FileLocker implements the interface.
var _ driven.RebuildLocker = (*FileLocker)(nil)

// FileLocker holds one lock file per collection under a directory.
// Locks are exclusive between processes and between lockers in one process.
type FileLocker struct {
	dir string
}

// NewFileLocker creates a locker that keeps its lock files in dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir}
}

// DefaultDir returns ~/.essync/locks.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".essync", "locks"), nil
}

// Path returns the lock file of a collection.
func (l *FileLocker) Path(collection string) string {
	return filepath.Join(l.dir, domain.SanitizeCollectionName(collection)+".lock")
}

// TryLock acquires the collection lock without blocking.
func (l *FileLocker) TryLock(collection string) (func(), error) {
	if collection == "" {
		return nil, domain.ErrCollectionRequired
	}
	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(l.Path(collection))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", collection, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", collection, domain.ErrRebuildInProgress)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			logger.Warn("failed to release lock %s: %v", fl.Path(), err)
		}
	}, nil
}
