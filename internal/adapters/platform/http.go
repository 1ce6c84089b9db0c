package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"go.trai.ch/zerr"
)

// unreachable tags a transport-level failure with ErrUnreachable so the
// retry layer treats it as transient.
func unreachable(err error, modKey string) error {
	return zerr.With(zerr.Wrap(errors.Join(domain.ErrUnreachable, err), "platform request failed"), "mod", modKey)
}

// checkStatus maps an API response status to the error taxonomy: 404 is
// ErrNotFound, 429 is a RateLimitError with the retry-after hint, anything
// else non-2xx is ErrUnreachable carrying the status code.
func checkStatus(resp *http.Response, modKey string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return zerr.With(zerr.Wrap(domain.ErrNotFound, "platform returned 404"), "mod", modKey)
	case resp.StatusCode == http.StatusTooManyRequests:
		rl := &domain.RateLimitError{RetryAfter: retryAfter(resp)}
		return zerr.With(zerr.Wrap(rl, "platform throttled"), "mod", modKey)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		err := zerr.With(zerr.Wrap(domain.ErrUnreachable, "unexpected platform response"), "mod", modKey)
		return zerr.With(err, "status_code", resp.StatusCode)
	}
	return nil
}

// retryAfter reads the throttle hint from Retry-After (seconds) or the
// ratelimit reset headers the hubs use. Falls back to one second.
func retryAfter(resp *http.Response) time.Duration {
	for _, header := range []string{"Retry-After", "X-Ratelimit-Reset"} {
		if v := resp.Header.Get(header); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return time.Second
}

// fetchURL streams a version's artifact. The returned checksum is the
// version's declared one; the caller computes a first-use-trust hash when it
// is empty.
func fetchURL(ctx context.Context, client *http.Client, userAgent string, ver domain.ModVersion) (io.ReadCloser, string, error) {
	if ver.ArtifactURL == "" {
		return nil, "", zerr.With(zerr.Wrap(domain.ErrNotFound, "version carries no artifact url"), "mod", ver.Ref.Key())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ver.ArtifactURL, http.NoBody)
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to build artifact request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", unreachable(err, ver.Ref.Key())
	}

	if err := checkStatus(resp, ver.Ref.Key()); err != nil {
		_ = resp.Body.Close()
		return nil, "", err
	}

	return resp.Body, ver.Checksum, nil
}
