package installer

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/hollowmc/hollow/internal/core/domain"
	"go.trai.ch/zerr"
)

// dirLock is an advisory lock on a mod directory, held as long as the lock
// file exists. O_EXCL creation makes acquisition atomic; a second engine
// run against the same directory fails instead of interleaving renames.
type dirLock struct {
	path string
}

func acquireDirLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, domain.DirLockName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec
	if err != nil {
		if os.IsExist(err) {
			return nil, zerr.With(zerr.Wrap(domain.ErrDirectoryLocked, "cannot start apply"), "dir", dir)
		}
		return nil, zerr.Wrap(err, "failed to lock mod directory")
	}

	// The pid is informational, for whoever finds a stale lock.
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, zerr.Wrap(err, "failed to lock mod directory")
	}

	return &dirLock{path: path}, nil
}

func (l *dirLock) release() {
	_ = os.Remove(l.path)
}
