package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	githubAPIBase = "https://api.github.com"

	// githubPerPage is the number of releases fetched per API page.
	githubPerPage = 30

	// githubMaxPages bounds pagination to avoid runaway requests.
	githubMaxPages = 3
)

// GitHub implements ports.PlatformClient over release pages. The project
// identifier is "owner/repo". Releases publish no loader, game-version or
// dependency metadata, so versions come back unconstrained and without a
// checksum (first-use-trust applies downstream); a loader tag embedded in an
// asset file name narrows the loader set when present.
type GitHub struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// GitHubOption configures a GitHub client during construction.
type GitHubOption func(*GitHub)

// WithGitHubBaseURL overrides the API base URL, primarily for test servers.
func WithGitHubBaseURL(base string) GitHubOption {
	return func(g *GitHub) { g.baseURL = strings.TrimRight(base, "/") }
}

// WithGitHubHTTPClient sets a custom HTTP client.
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(g *GitHub) { g.httpClient = c }
}

// WithGitHubToken sets a token for authenticated requests, which carry a
// much higher rate limit.
func WithGitHubToken(token string) GitHubOption {
	return func(g *GitHub) { g.token = token }
}

// NewGitHub creates a GitHub release-page client.
func NewGitHub(opts ...GitHubOption) *GitHub {
	g := &GitHub{
		httpClient: &http.Client{},
		baseURL:    githubAPIBase,
		userAgent:  "hollowmc/hollow",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Platform implements ports.PlatformClient.
func (g *GitHub) Platform() domain.Platform { return domain.PlatformGitHub }

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ListVersions implements ports.PlatformClient.
func (g *GitHub) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	var versions []domain.ModVersion

	for page := 1; page <= githubMaxPages; page++ {
		releases, err := g.listPage(ctx, ref, page)
		if err != nil {
			return nil, err
		}

		for _, r := range releases {
			if r.Draft {
				continue
			}
			if v, ok := g.toDomain(ref, r); ok {
				versions = append(versions, v)
			}
		}

		if len(releases) < githubPerPage {
			break
		}
	}

	return versions, nil
}

func (g *GitHub) listPage(ctx context.Context, ref domain.ModReference, page int) ([]githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d&page=%d", g.baseURL, ref.ProjectID, githubPerPage, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build github request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, unreachable(err, ref.Key())
	}
	defer resp.Body.Close() //nolint:errcheck // best effort close in defer

	// GitHub signals rate exhaustion with 403 + a zeroed remaining header.
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Ratelimit-Remaining") == "0" {
		rl := &domain.RateLimitError{RetryAfter: retryAfter(resp)}
		return nil, zerr.With(zerr.Wrap(rl, "platform throttled"), "mod", ref.Key())
	}
	if err := checkStatus(resp, ref.Key()); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, unreachable(err, ref.Key())
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse github response"), "mod", ref.Key())
	}
	return releases, nil
}

func (g *GitHub) toDomain(ref domain.ModReference, r githubRelease) (domain.ModVersion, bool) {
	asset, ok := pickJarAsset(r.Assets)
	if !ok {
		return domain.ModVersion{}, false
	}

	return domain.ModVersion{
		Ref:         ref,
		ID:          strings.TrimPrefix(r.TagName, "v"),
		FileName:    asset.Name,
		ReleasedAt:  r.PublishedAt,
		Loaders:     loadersFromName(asset.Name),
		ArtifactURL: asset.BrowserDownloadURL,
	}, true
}

// pickJarAsset selects the release's mod artifact: the first ".jar" asset
// that is not a sources or javadoc jar.
func pickJarAsset(assets []githubAsset) (githubAsset, bool) {
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if !strings.HasSuffix(name, ".jar") {
			continue
		}
		if strings.Contains(name, "-sources") || strings.Contains(name, "-javadoc") || strings.HasSuffix(name, "-dev.jar") {
			continue
		}
		return a, true
	}
	return githubAsset{}, false
}

// loadersFromName extracts loader tags a release embeds in its asset file
// name, e.g. "somemod-1.2.0-fabric.jar". No tag means loader-agnostic.
func loadersFromName(name string) []domain.Loader {
	name = strings.ToLower(name)
	var loaders []domain.Loader
	for _, l := range domain.KnownLoaders {
		if strings.Contains(name, string(l)) {
			loaders = append(loaders, l)
		}
	}
	return loaders
}

// FetchArtifact implements ports.PlatformClient. Release assets carry no
// integrity hash, so the returned checksum is empty and the cache records a
// first-use-trust hash instead.
func (g *GitHub) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	return fetchURL(ctx, g.httpClient, g.userAgent, ver)
}
