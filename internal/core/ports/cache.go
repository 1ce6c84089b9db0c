package ports

import (
	"context"

	"github.com/hollowmc/hollow/internal/core/domain"
)

// ArtifactCache owns durable, content-addressed storage of downloaded
// artifacts, independent of any single mod directory.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ArtifactCache interface {
	// Obtain returns the local path of the verified artifact for ver,
	// fetching it at most once per checksum. The returned checksum is the
	// version's declared checksum, or the computed first-use-trust hash when
	// the platform declared none. A verification mismatch is
	// domain.ErrIntegrityViolation and the bytes are discarded.
	Obtain(ctx context.Context, ver domain.ModVersion) (path string, checksum string, err error)

	// Path reports the blob location for a checksum already in the cache.
	Path(checksum string) (string, bool)
}
