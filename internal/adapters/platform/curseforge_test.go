package platform_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const curseforgeFilesJSON = `{
	"data": [
		{
			"id": 5512345,
			"displayName": "JEI 19.5.0",
			"fileName": "jei-19.5.0.jar",
			"fileDate": "2026-03-01T08:00:00Z",
			"downloadUrl": "https://edge.example/jei-19.5.0.jar",
			"gameVersions": ["1.21.1", "NeoForge", "Forge"],
			"hashes": [
				{"value": "ABCD", "algo": 1},
				{"value": "EF01", "algo": 2}
			],
			"dependencies": [
				{"modId": 111, "relationType": 3},
				{"modId": 222, "relationType": 2},
				{"modId": 333, "relationType": 5},
				{"modId": 444, "relationType": 1}
			]
		}
	]
}`

func TestCurseForgeListVersions(t *testing.T) {
	ref := domain.ModReference{Platform: domain.PlatformCurseForge, ProjectID: "238222"}

	t.Run("MapsWireFormat", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/mods/238222/files", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			_, _ = w.Write([]byte(curseforgeFilesJSON))
		}))
		defer srv.Close()

		client := platform.NewCurseForge("test-key", platform.WithCurseForgeBaseURL(srv.URL))
		versions, err := client.ListVersions(t.Context(), ref)
		require.NoError(t, err)
		require.Len(t, versions, 1)

		v := versions[0]
		assert.Equal(t, "5512345", v.ID)
		assert.Equal(t, "jei-19.5.0.jar", v.FileName)
		// md5 wins over sha1.
		assert.Equal(t, "md5:ef01", v.Checksum)

		// Loader tags are split out of the mixed gameVersions list.
		assert.Equal(t, []domain.Loader{domain.LoaderNeoForge, domain.LoaderForge}, v.Loaders)
		assert.Equal(t, []domain.GameVersion{"1.21.1"}, v.GameVersions)

		// Embedded (1) is dropped; required, optional, incompatible survive.
		require.Len(t, v.Dependencies, 3)
		assert.Equal(t, "111", v.Dependencies[0].Ref.ProjectID)
		assert.Equal(t, domain.RelationRequired, v.Dependencies[0].Relation)
		assert.Equal(t, domain.RelationOptional, v.Dependencies[1].Relation)
		assert.Equal(t, domain.RelationIncompatible, v.Dependencies[2].Relation)
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := platform.NewCurseForge("test-key", platform.WithCurseForgeBaseURL(srv.URL))
		_, err := client.ListVersions(t.Context(), ref)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
