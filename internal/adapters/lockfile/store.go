// Package lockfile persists the installed-mod state as a JSON file.
package lockfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.LockfileStore. Writes are temp-file-plus-rename so
// a crash can never leave a half-written lockfile, and serialization is
// byte-stable (encoding/json orders map keys) so unchanged state re-saves to
// identical bytes.
type Store struct{}

// NewStore creates a lockfile store.
func NewStore() *Store {
	return &Store{}
}

// Load implements ports.LockfileStore.
func (s *Store) Load(path string) (*domain.Lockfile, error) {
	//nolint:gosec // Path comes from the validated profile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewLockfile(), nil
		}
		return nil, zerr.Wrap(err, "failed to read lockfile")
	}

	var lf domain.Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse lockfile"), "path", path)
	}
	if lf.Mods == nil {
		lf.Mods = make(map[string]domain.LockEntry)
	}
	return &lf, nil
}

// Save implements ports.LockfileStore.
func (s *Store) Save(path string, lf *domain.Lockfile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal lockfile")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create lockfile directory")
	}

	tmp, err := os.CreateTemp(dir, ".lock-*.json")
	if err != nil {
		return zerr.Wrap(err, "failed to create lockfile temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); !errors.Is(statErr, fs.ErrNotExist) {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write lockfile")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close lockfile temp file")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod lockfile")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return zerr.Wrap(err, "failed to commit lockfile")
	}
	return nil
}

var _ ports.LockfileStore = (*Store)(nil)
