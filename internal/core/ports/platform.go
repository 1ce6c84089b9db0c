// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"github.com/hollowmc/hollow/internal/core/domain"
)

// PlatformClient presents one distribution platform behind the uniform
// capability set the resolver depends on. Implementations perform network
// I/O only; cache and filesystem mutation belong to other adapters.
//
//go:generate mockgen -source=platform.go -destination=mocks/mock_platform.go -package=mocks
type PlatformClient interface {
	// Platform identifies which backend this client talks to.
	Platform() domain.Platform

	// ListVersions enumerates every published version of the project.
	// Fails with domain.ErrNotFound, domain.ErrRateLimited (wrapped in a
	// RateLimitError carrying the retry-after hint) or domain.ErrUnreachable.
	ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error)

	// FetchArtifact opens the version's artifact byte stream and returns the
	// platform-declared checksum ("algo:hex", empty string when the platform
	// publishes none; the caller must then compute a first-use-trust hash).
	FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error)
}

// VersionSource is the resolver-facing slice of the platform layer: version
// enumeration dispatched by reference.
type VersionSource interface {
	ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error)
}

// ArtifactFetcher is the cache-facing slice of the platform layer: artifact
// download dispatched by version.
type ArtifactFetcher interface {
	FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error)
}
