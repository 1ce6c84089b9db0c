// Package platform implements the PlatformClient port for the three
// supported distribution backends and dispatches calls between them.
package platform

import (
	"context"
	"io"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry dispatches platform calls to the client registered for each
// backend. It implements ports.VersionSource and ports.ArtifactFetcher.
type Registry struct {
	clients map[domain.Platform]ports.PlatformClient
}

// NewRegistry builds a registry over the given clients.
func NewRegistry(clients ...ports.PlatformClient) *Registry {
	m := make(map[domain.Platform]ports.PlatformClient, len(clients))
	for _, c := range clients {
		m[c.Platform()] = c
	}
	return &Registry{clients: m}
}

// Client returns the client registered for p.
func (r *Registry) Client(p domain.Platform) (ports.PlatformClient, error) {
	c, ok := r.clients[p]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownPlatform, "no client registered"), "platform", string(p))
	}
	return c, nil
}

// WithPolicy derives a registry whose clients retry transient failures with
// bounded exponential backoff and a per-call timeout. The underlying clients
// are shared; only the decoration differs per run.
func (r *Registry) WithPolicy(attempts int, timeout time.Duration) *Registry {
	derived := make([]ports.PlatformClient, 0, len(r.clients))
	for _, c := range r.clients {
		derived = append(derived, WithRetry(c, attempts, timeout))
	}
	return NewRegistry(derived...)
}

// ListVersions dispatches to the reference's platform.
func (r *Registry) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	c, err := r.Client(ref.Platform)
	if err != nil {
		return nil, err
	}
	return c.ListVersions(ctx, ref)
}

// FetchArtifact dispatches to the version's platform.
func (r *Registry) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	c, err := r.Client(ver.Ref.Platform)
	if err != nil {
		return nil, "", err
	}
	return c.FetchArtifact(ctx, ver)
}

// ResolveLatest is the convenience composition of ListVersions, the
// compatibility filter and "most recent". Fails with
// domain.ErrNoCompatibleVersion when the filtered list is empty.
func (r *Registry) ResolveLatest(ctx context.Context, ref domain.ModReference, loader domain.Loader, gv domain.GameVersion) (domain.ModVersion, error) {
	versions, err := r.ListVersions(ctx, ref)
	if err != nil {
		return domain.ModVersion{}, err
	}

	compatible := domain.FilterCompatible(versions, loader, gv)
	if len(compatible) == 0 {
		err := zerr.With(zerr.Wrap(domain.ErrNoCompatibleVersion, "filtered release list is empty"), "mod", ref.Key())
		err = zerr.With(err, "loader", string(loader))
		return domain.ModVersion{}, zerr.With(err, "game_version", string(gv))
	}
	return compatible[0], nil
}

var (
	_ ports.VersionSource   = (*Registry)(nil)
	_ ports.ArtifactFetcher = (*Registry)(nil)
)
