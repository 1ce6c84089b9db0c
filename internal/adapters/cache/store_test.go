package cache_test

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hollowmc/hollow/internal/adapters/cache"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves fixed artifact bytes and counts fetches.
type fakeFetcher struct {
	content  string
	declared string
	fetches  atomic.Int64
}

func (f *fakeFetcher) FetchArtifact(_ context.Context, _ domain.ModVersion) (io.ReadCloser, string, error) {
	f.fetches.Add(1)
	return io.NopCloser(strings.NewReader(f.content)), f.declared, nil
}

func checksumOf(t *testing.T, content string) string {
	t.Helper()
	sum, err := domain.ComputeChecksum(strings.NewReader(content), domain.AlgoSHA256)
	require.NoError(t, err)
	return sum
}

func TestStoreObtain(t *testing.T) {
	ver := domain.ModVersion{
		Ref: domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"},
		ID:  "1.0.0",
	}

	t.Run("FetchesAndCaches", func(t *testing.T) {
		want := checksumOf(t, "jar bytes")
		fetcher := &fakeFetcher{content: "jar bytes", declared: want}
		store, err := cache.NewStore(t.TempDir(), fetcher)
		require.NoError(t, err)

		v := ver
		v.Checksum = want

		path, sum, err := store.Obtain(t.Context(), v)
		require.NoError(t, err)
		assert.Equal(t, want, sum)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "jar bytes", string(data))

		// Second obtain is a cache hit.
		_, _, err = store.Obtain(t.Context(), v)
		require.NoError(t, err)
		assert.Equal(t, int64(1), fetcher.fetches.Load())
	})

	t.Run("DeclaredChecksumMismatch", func(t *testing.T) {
		fetcher := &fakeFetcher{content: "tampered bytes", declared: checksumOf(t, "jar bytes")}
		store, err := cache.NewStore(t.TempDir(), fetcher)
		require.NoError(t, err)

		v := ver
		v.Checksum = fetcher.declared

		_, _, err = store.Obtain(t.Context(), v)
		require.ErrorIs(t, err, domain.ErrIntegrityViolation)

		// The tampered blob must not have been committed.
		_, ok := store.Path(fetcher.declared)
		assert.False(t, ok)
	})

	t.Run("FirstUseTrustWithoutDeclaredChecksum", func(t *testing.T) {
		fetcher := &fakeFetcher{content: "release jar", declared: ""}
		store, err := cache.NewStore(t.TempDir(), fetcher)
		require.NoError(t, err)

		path, sum, err := store.Obtain(t.Context(), ver)
		require.NoError(t, err)
		assert.Equal(t, checksumOf(t, "release jar"), sum)
		require.NoError(t, domain.VerifyFile(path, sum))
	})

	t.Run("CorruptBlobIsRefetched", func(t *testing.T) {
		want := checksumOf(t, "jar bytes")
		fetcher := &fakeFetcher{content: "jar bytes", declared: want}
		store, err := cache.NewStore(t.TempDir(), fetcher)
		require.NoError(t, err)

		v := ver
		v.Checksum = want

		path, _, err := store.Obtain(t.Context(), v)
		require.NoError(t, err)

		// Corrupt the blob on disk behind the cache's back.
		require.NoError(t, os.WriteFile(path, []byte("rotted"), 0o644))

		path2, sum, err := store.Obtain(t.Context(), v)
		require.NoError(t, err)
		assert.Equal(t, want, sum)
		require.NoError(t, domain.VerifyFile(path2, sum))
		assert.Equal(t, int64(2), fetcher.fetches.Load())
	})

	t.Run("ConcurrentObtainsAreCollapsed", func(t *testing.T) {
		want := checksumOf(t, "jar bytes")
		fetcher := &fakeFetcher{content: "jar bytes", declared: want}
		store, err := cache.NewStore(t.TempDir(), fetcher)
		require.NoError(t, err)

		v := ver
		v.Checksum = want

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := store.Obtain(context.Background(), v)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), fetcher.fetches.Load(), "at most one fetch per checksum")
	})
}
