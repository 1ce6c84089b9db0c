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
	"go.trai.ch/zerr"
)

// flakyClient fails ListVersions with err until failures is exhausted.
type flakyClient struct {
	failures int
	err      error
	calls    int
	versions []domain.ModVersion
}

func (f *flakyClient) Platform() domain.Platform { return domain.PlatformModrinth }

func (f *flakyClient) ListVersions(_ context.Context, _ domain.ModReference) ([]domain.ModVersion, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.versions, nil
}

func (f *flakyClient) FetchArtifact(_ context.Context, _ domain.ModVersion) (io.ReadCloser, string, error) {
	return nil, "", domain.ErrNotFound
}

func TestWithRetry(t *testing.T) {
	ref := domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"}

	t.Run("RecoversFromTransientFailure", func(t *testing.T) {
		inner := &flakyClient{
			failures: 1,
			err:      zerr.Wrap(domain.ErrUnreachable, "connection reset"),
			versions: []domain.ModVersion{{Ref: ref, ID: "1.0.0"}},
		}
		client := platform.WithRetry(inner, 3, time.Second)

		versions, err := client.ListVersions(t.Context(), ref)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("NonTransientFailsImmediately", func(t *testing.T) {
		inner := &flakyClient{failures: 10, err: domain.ErrNotFound}
		client := platform.WithRetry(inner, 3, time.Second)

		_, err := client.ListVersions(t.Context(), ref)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, inner.calls, "not-found must not be retried")
	})

	t.Run("ExhaustionReturnsLastError", func(t *testing.T) {
		inner := &flakyClient{failures: 10, err: zerr.Wrap(domain.ErrUnreachable, "down")}
		client := platform.WithRetry(inner, 2, time.Second)

		_, err := client.ListVersions(t.Context(), ref)
		require.ErrorIs(t, err, domain.ErrUnreachable)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("CancellationStopsBackoff", func(t *testing.T) {
		inner := &flakyClient{failures: 10, err: zerr.Wrap(domain.ErrUnreachable, "down")}
		client := platform.WithRetry(inner, 5, time.Second)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := client.ListVersions(ctx, ref)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, inner.calls, "no further attempts after cancellation")
	})
}
