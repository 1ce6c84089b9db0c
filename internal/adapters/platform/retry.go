package platform

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
)

// baseBackoff is the first retry delay; it doubles per attempt unless the
// platform's retry-after hint asks for more.
const baseBackoff = 500 * time.Millisecond

// retrying decorates a PlatformClient with a per-call timeout and bounded
// exponential backoff on transient failures. Non-transient failures
// propagate immediately; transient ones propagate after exhaustion.
type retrying struct {
	inner    ports.PlatformClient
	attempts int
	timeout  time.Duration
}

// WithRetry wraps c with the given retry policy.
func WithRetry(c ports.PlatformClient, attempts int, timeout time.Duration) ports.PlatformClient {
	if attempts < 1 {
		attempts = 1
	}
	return &retrying{inner: c, attempts: attempts, timeout: timeout}
}

func (r *retrying) Platform() domain.Platform {
	return r.inner.Platform()
}

func (r *retrying) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	var versions []domain.ModVersion
	err := r.do(ctx, func(callCtx context.Context) error {
		var err error
		versions, err = r.inner.ListVersions(callCtx, ref)
		return err
	})
	return versions, err
}

func (r *retrying) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	var (
		body     io.ReadCloser
		checksum string
	)
	// The body outlives the call, so no per-call timeout is applied here;
	// cancellation between byte-stream chunks flows through ctx.
	err := r.do(ctx, func(context.Context) error {
		var err error
		body, checksum, err = r.inner.FetchArtifact(ctx, ver)
		return err
	})
	return body, checksum, err
}

// do runs op up to the configured attempt count, sleeping between transient
// failures. Cancellation is honored between attempts.
func (r *retrying) do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := range r.attempts {
		if attempt > 0 {
			delay := backoffDelay(attempt, lastErr)
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(delay):
			}
		}

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		err := op(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// backoffDelay doubles per attempt, but a rate-limit reset hint wins when it
// is longer.
func backoffDelay(attempt int, lastErr error) time.Duration {
	delay := baseBackoff * time.Duration(1<<(attempt-1))

	var rl *domain.RateLimitError
	if errors.As(lastErr, &rl) && rl.RetryAfter > delay {
		delay = rl.RetryAfter
	}
	return delay
}

func isTransient(err error) bool {
	return errors.Is(err, domain.ErrUnreachable) || errors.Is(err, domain.ErrRateLimited)
}
