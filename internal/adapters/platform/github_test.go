package platform_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const githubReleasesJSON = `[
	{
		"tag_name": "v3.2.0",
		"draft": false,
		"prerelease": false,
		"published_at": "2026-04-01T12:00:00Z",
		"assets": [
			{"name": "somemod-3.2.0-sources.jar", "browser_download_url": "https://gh.example/sources.jar"},
			{"name": "somemod-3.2.0-fabric.jar", "browser_download_url": "https://gh.example/somemod-3.2.0-fabric.jar"}
		]
	},
	{
		"tag_name": "v3.1.0",
		"draft": true,
		"prerelease": false,
		"published_at": "2026-03-01T12:00:00Z",
		"assets": [
			{"name": "somemod-3.1.0.jar", "browser_download_url": "https://gh.example/somemod-3.1.0.jar"}
		]
	},
	{
		"tag_name": "v3.0.0",
		"draft": false,
		"prerelease": false,
		"published_at": "2026-02-01T12:00:00Z",
		"assets": [
			{"name": "readme.txt", "browser_download_url": "https://gh.example/readme.txt"}
		]
	}
]`

func TestGitHubListVersions(t *testing.T) {
	ref := domain.ModReference{Platform: domain.PlatformGitHub, ProjectID: "owner/somemod"}

	t.Run("MapsReleases", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/owner/somemod/releases", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(githubReleasesJSON))
		}))
		defer srv.Close()

		client := platform.NewGitHub(
			platform.WithGitHubBaseURL(srv.URL),
			platform.WithGitHubToken("test-token"),
		)
		versions, err := client.ListVersions(t.Context(), ref)
		require.NoError(t, err)

		// Draft releases and releases without a usable jar are skipped.
		require.Len(t, versions, 1)

		v := versions[0]
		assert.Equal(t, "3.2.0", v.ID, "tag v-prefix is stripped")
		assert.Equal(t, "somemod-3.2.0-fabric.jar", v.FileName)
		assert.Equal(t, "https://gh.example/somemod-3.2.0-fabric.jar", v.ArtifactURL)
		assert.Empty(t, v.Checksum, "release assets carry no integrity hash")
		assert.Equal(t, []domain.Loader{domain.LoaderFabric}, v.Loaders)
		assert.Empty(t, v.GameVersions)
		assert.Empty(t, v.Dependencies)
	})

	t.Run("RateLimit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-Ratelimit-Remaining", "0")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := platform.NewGitHub(platform.WithGitHubBaseURL(srv.URL))
		_, err := client.ListVersions(t.Context(), ref)
		require.ErrorIs(t, err, domain.ErrRateLimited)

		var rl *domain.RateLimitError
		require.True(t, errors.As(err, &rl))
		assert.Equal(t, "30s", rl.RetryAfter.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := platform.NewGitHub(platform.WithGitHubBaseURL(srv.URL))
		_, err := client.ListVersions(t.Context(), ref)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
