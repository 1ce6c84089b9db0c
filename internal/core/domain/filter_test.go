package domain_test

import (
	"testing"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func version(id string, released time.Time, loaders []domain.Loader, gvs []domain.GameVersion) domain.ModVersion {
	return domain.ModVersion{
		Ref:          domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "mod"},
		ID:           id,
		ReleasedAt:   released,
		Loaders:      loaders,
		GameVersions: gvs,
	}
}

func TestFilterCompatible(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	quilt := []domain.Loader{domain.LoaderQuilt}
	forge := []domain.Loader{domain.LoaderForge}
	gv := []domain.GameVersion{"1.21.1"}

	t.Run("DropsIncompatible", func(t *testing.T) {
		out := domain.FilterCompatible([]domain.ModVersion{
			version("1.0.0", base, quilt, gv),
			version("1.1.0", base, forge, gv),
			version("1.2.0", base, quilt, []domain.GameVersion{"1.20.4"}),
		}, domain.LoaderQuilt, "1.21.1")

		require.Len(t, out, 1)
		assert.Equal(t, "1.0.0", out[0].ID)
	})

	t.Run("EmptyMetadataIsUniversal", func(t *testing.T) {
		// GitHub releases typically declare neither loaders nor game
		// versions; they must not be filtered out.
		out := domain.FilterCompatible([]domain.ModVersion{
			version("2.0.0", base, nil, nil),
		}, domain.LoaderQuilt, "1.21.1")

		require.Len(t, out, 1)
	})

	t.Run("NewestFirstByReleaseTime", func(t *testing.T) {
		out := domain.FilterCompatible([]domain.ModVersion{
			version("1.0.0", base, quilt, gv),
			version("1.2.0", base.Add(2*time.Hour), quilt, gv),
			version("1.1.0", base.Add(time.Hour), quilt, gv),
		}, domain.LoaderQuilt, "1.21.1")

		require.Len(t, out, 3)
		assert.Equal(t, "1.2.0", out[0].ID)
		assert.Equal(t, "1.1.0", out[1].ID)
		assert.Equal(t, "1.0.0", out[2].ID)
	})

	t.Run("TiesBrokenByVersionID", func(t *testing.T) {
		out := domain.FilterCompatible([]domain.ModVersion{
			version("1.9.0", base, quilt, gv),
			version("1.10.0", base, quilt, gv),
		}, domain.LoaderQuilt, "1.21.1")

		require.Len(t, out, 2)
		assert.Equal(t, "1.10.0", out[0].ID)
	})

	t.Run("EmptyResultIsValid", func(t *testing.T) {
		out := domain.FilterCompatible([]domain.ModVersion{
			version("1.0.0", base, forge, gv),
		}, domain.LoaderQuilt, "1.21.1")
		assert.Empty(t, out)
	})
}
