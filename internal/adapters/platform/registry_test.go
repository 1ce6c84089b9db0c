package platform_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticClient serves a fixed version list for one platform.
type staticClient struct {
	platform domain.Platform
	versions []domain.ModVersion
}

func (s *staticClient) Platform() domain.Platform { return s.platform }

func (s *staticClient) ListVersions(_ context.Context, _ domain.ModReference) ([]domain.ModVersion, error) {
	return s.versions, nil
}

func (s *staticClient) FetchArtifact(_ context.Context, _ domain.ModVersion) (io.ReadCloser, string, error) {
	return nil, "", domain.ErrNotFound
}

func TestRegistry(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	quilt := []domain.Loader{domain.LoaderQuilt}
	gv := []domain.GameVersion{"1.21.1"}
	ref := domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"}

	reg := platform.NewRegistry(&staticClient{
		platform: domain.PlatformModrinth,
		versions: []domain.ModVersion{
			{Ref: ref, ID: "1.0.0", ReleasedAt: base, Loaders: quilt, GameVersions: gv},
			{Ref: ref, ID: "1.1.0", ReleasedAt: base.Add(time.Hour), Loaders: quilt, GameVersions: gv},
			{Ref: ref, ID: "2.0.0", ReleasedAt: base.Add(2 * time.Hour), Loaders: []domain.Loader{domain.LoaderForge}, GameVersions: gv},
		},
	})

	t.Run("DispatchByPlatform", func(t *testing.T) {
		versions, err := reg.ListVersions(t.Context(), ref)
		require.NoError(t, err)
		assert.Len(t, versions, 3)
	})

	t.Run("UnknownPlatform", func(t *testing.T) {
		_, err := reg.ListVersions(t.Context(), domain.ModReference{Platform: domain.PlatformGitHub, ProjectID: "x/y"})
		require.ErrorIs(t, err, domain.ErrUnknownPlatform)
	})

	t.Run("ResolveLatestPicksNewestCompatible", func(t *testing.T) {
		v, err := reg.ResolveLatest(t.Context(), ref, domain.LoaderQuilt, "1.21.1")
		require.NoError(t, err)
		assert.Equal(t, "1.1.0", v.ID, "newest quilt build, not the forge 2.0.0")
	})

	t.Run("ResolveLatestNoCompatible", func(t *testing.T) {
		_, err := reg.ResolveLatest(t.Context(), ref, domain.LoaderVelocity, "1.8.9")
		require.ErrorIs(t, err, domain.ErrNoCompatibleVersion)
	})
}
