package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
)

// metaCacheTTL is how long a cached version listing stays fresh. Short on
// purpose: upgrades should see new releases, repeated resolves within one
// session should not re-hit rate-limited APIs.
const metaCacheTTL = 15 * time.Minute

// cached decorates a PlatformClient with an on-disk cache of ListVersions
// responses, keyed by a hash of the reference. Artifact fetches pass
// through untouched.
type cached struct {
	inner ports.PlatformClient
	dir   string
	ttl   time.Duration
	now   func() time.Time
}

// WithMetadataCache wraps c with a version-listing cache rooted at dir.
func WithMetadataCache(c ports.PlatformClient, dir string) (ports.PlatformClient, error) {
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create metadata cache directory")
	}
	return &cached{inner: c, dir: cleanDir, ttl: metaCacheTTL, now: time.Now}, nil
}

func (c *cached) Platform() domain.Platform { return c.inner.Platform() }

type metaCacheEntry struct {
	Ref       domain.ModReference `json:"ref"`
	FetchedAt time.Time           `json:"fetched_at"`
	Versions  []domain.ModVersion `json:"versions"`
}

func (c *cached) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	path := c.entryPath(ref)

	if versions, ok := c.loadFresh(path); ok {
		return versions, nil
	}

	versions, err := c.inner.ListVersions(ctx, ref)
	if err != nil {
		return nil, err
	}

	// A write failure only costs the next run a refetch.
	_ = c.save(path, ref, versions)

	return versions, nil
}

func (c *cached) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	return c.inner.FetchArtifact(ctx, ver)
}

func (c *cached) entryPath(ref domain.ModReference) string {
	key := xxhash.Sum64String(ref.Key())
	return filepath.Join(c.dir, fmt.Sprintf("%s-%016x.json", ref.Platform, key))
}

func (c *cached) loadFresh(path string) ([]domain.ModVersion, bool) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry metaCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return nil, false
	}
	return entry.Versions, true
}

func (c *cached) save(path string, ref domain.ModReference, versions []domain.ModVersion) error {
	entry := metaCacheEntry{Ref: ref, FetchedAt: c.now(), Versions: versions}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal metadata cache entry")
	}

	tmp, err := os.CreateTemp(c.dir, "meta-*.json")
	if err != nil {
		return zerr.Wrap(err, "failed to create metadata cache temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); !errors.Is(statErr, fs.ErrNotExist) {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write metadata cache entry")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close metadata cache temp file")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod metadata cache entry")
	}
	return os.Rename(tmpName, path)
}
