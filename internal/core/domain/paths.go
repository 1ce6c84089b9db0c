package domain

import (
	"os"
	"path/filepath"
)

// Filesystem permission constants shared by every adapter that writes state.
const (
	DirPerm  = 0o750
	FilePerm = 0o644
)

const (
	// DefaultLockfileName is the lockfile written next to the mod directory.
	DefaultLockfileName = "hollow.lock.json"

	// DisabledSuffix is appended to an installed artifact's name to park it
	// without uninstalling.
	DisabledSuffix = ".disabled"

	// UserDirName is the mod-directory subfolder whose contents the engine
	// never owns and never removes.
	UserDirName = "user"

	// DirLockName is the lock file guarding a mod directory against
	// concurrent applies.
	DirLockName = ".hollow.lock"
)

// DefaultCacheRoot returns the artifact and metadata cache location,
// following the user cache dir convention.
func DefaultCacheRoot() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "hollow")
}
