package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hollowmc/hollow/internal/adapters/lockfile"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	store := lockfile.NewStore()

	t.Run("MissingFileLoadsEmpty", func(t *testing.T) {
		lf, err := store.Load(filepath.Join(t.TempDir(), "hollow.lock.json"))
		require.NoError(t, err)
		assert.Equal(t, domain.LockfileVersion, lf.Version)
		assert.Empty(t, lf.Mods)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hollow.lock.json")

		lf := domain.NewLockfile()
		lf.Put(domain.LockEntry{
			Ref:       domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"},
			VersionID: "1.0.0",
			FileName:  "sodium-1.0.0.jar",
			Checksum:  "sha512:aabb",
		})
		lf.Put(domain.LockEntry{
			Ref:       domain.ModReference{Platform: domain.PlatformGitHub, ProjectID: "owner/repo"},
			VersionID: "2.0.0",
			FileName:  "repo-2.0.0.jar",
			Checksum:  "sha256:ccdd",
			Disabled:  true,
		})

		require.NoError(t, store.Save(path, lf))

		loaded, err := store.Load(path)
		require.NoError(t, err)
		assert.Equal(t, lf, loaded)
	})

	t.Run("SaveIsByteStable", func(t *testing.T) {
		dir := t.TempDir()
		a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")

		lf := domain.NewLockfile()
		lf.Put(domain.LockEntry{
			Ref:       domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"},
			VersionID: "1.0.0",
			FileName:  "sodium-1.0.0.jar",
			Checksum:  "sha512:aabb",
		})
		lf.Put(domain.LockEntry{
			Ref:       domain.ModReference{Platform: domain.PlatformCurseForge, ProjectID: "238222"},
			VersionID: "5512345",
			FileName:  "jei.jar",
			Checksum:  "md5:ef01",
		})

		require.NoError(t, store.Save(a, lf))
		require.NoError(t, store.Save(b, lf))

		first, err := os.ReadFile(a)
		require.NoError(t, err)
		second, err := os.ReadFile(b)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("CorruptFileFails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hollow.lock.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := store.Load(path)
		require.Error(t, err)
	})
}
