package ports

import "github.com/hollowmc/hollow/internal/core/domain"

// LockfileStore persists the lockfile. Serialization must be round-trip
// lossless and byte-stable for unchanged content.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockfileStore interface {
	// Load reads the lockfile at path. A missing file yields an empty
	// lockfile, not an error.
	Load(path string) (*domain.Lockfile, error)

	// Save atomically rewrites the lockfile at path.
	Save(path string, lf *domain.Lockfile) error
}
