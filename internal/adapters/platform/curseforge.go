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

const curseForgeAPIBase = "https://api.curseforge.com/v1"

// CurseForge file hash algorithm identifiers.
const (
	cfHashSHA1 = 1
	cfHashMD5  = 2
)

// CurseForge file relation type identifiers.
const (
	cfRelationEmbedded     = 1
	cfRelationOptional     = 2
	cfRelationRequired     = 3
	cfRelationIncompatible = 5
)

// CurseForge implements ports.PlatformClient against the CurseForge core
// API. Requests carry the caller's API key; the free tier throttles hard, so
// the retry layer matters here.
type CurseForge struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// CurseForgeOption configures a CurseForge client during construction.
type CurseForgeOption func(*CurseForge)

// WithCurseForgeBaseURL overrides the API base URL, primarily for test
// servers.
func WithCurseForgeBaseURL(base string) CurseForgeOption {
	return func(c *CurseForge) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithCurseForgeHTTPClient sets a custom HTTP client.
func WithCurseForgeHTTPClient(hc *http.Client) CurseForgeOption {
	return func(c *CurseForge) { c.httpClient = hc }
}

// NewCurseForge creates a CurseForge client with the given API key.
func NewCurseForge(apiKey string, opts ...CurseForgeOption) *CurseForge {
	c := &CurseForge{
		httpClient: &http.Client{},
		baseURL:    curseForgeAPIBase,
		apiKey:     apiKey,
		userAgent:  "hollowmc/hollow",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform implements ports.PlatformClient.
func (c *CurseForge) Platform() domain.Platform { return domain.PlatformCurseForge }

type cfFilesResponse struct {
	Data []cfFile `json:"data"`
}

type cfFile struct {
	ID           int64          `json:"id"`
	DisplayName  string         `json:"displayName"`
	FileName     string         `json:"fileName"`
	FileDate     time.Time      `json:"fileDate"`
	DownloadURL  string         `json:"downloadUrl"`
	GameVersions []string       `json:"gameVersions"`
	Hashes       []cfHash       `json:"hashes"`
	Dependencies []cfDependency `json:"dependencies"`
}

type cfHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

type cfDependency struct {
	ModID        int64 `json:"modId"`
	RelationType int   `json:"relationType"`
}

// ListVersions implements ports.PlatformClient.
func (c *CurseForge) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	url := fmt.Sprintf("%s/mods/%s/files?pageSize=50", c.baseURL, ref.ProjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build curseforge request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unreachable(err, ref.Key())
	}
	defer resp.Body.Close() //nolint:errcheck // best effort close in defer

	if err := checkStatus(resp, ref.Key()); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, unreachable(err, ref.Key())
	}

	var wire cfFilesResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse curseforge response"), "mod", ref.Key())
	}

	versions := make([]domain.ModVersion, 0, len(wire.Data))
	for _, f := range wire.Data {
		versions = append(versions, c.toDomain(ref, f))
	}
	return versions, nil
}

func (c *CurseForge) toDomain(ref domain.ModReference, f cfFile) domain.ModVersion {
	// CurseForge mixes loader names and game versions in one list.
	loaders, gvs := splitGameVersions(f.GameVersions)

	checksum := ""
	for _, h := range f.Hashes {
		if h.Algo == cfHashMD5 {
			checksum = domain.AlgoMD5 + ":" + strings.ToLower(h.Value)
			break
		}
		if h.Algo == cfHashSHA1 {
			checksum = domain.AlgoSHA1 + ":" + strings.ToLower(h.Value)
		}
	}

	deps := make([]domain.Dependency, 0, len(f.Dependencies))
	for _, d := range f.Dependencies {
		rel, ok := cfRelation(d.RelationType)
		if !ok {
			continue
		}
		deps = append(deps, domain.Dependency{
			Ref: domain.ModReference{
				Platform:  domain.PlatformCurseForge,
				ProjectID: fmt.Sprintf("%d", d.ModID),
			},
			Relation: rel,
		})
	}

	return domain.ModVersion{
		Ref:          ref,
		ID:           fmt.Sprintf("%d", f.ID),
		FileName:     f.FileName,
		ReleasedAt:   f.FileDate,
		Loaders:      loaders,
		GameVersions: gvs,
		ArtifactURL:  f.DownloadURL,
		Checksum:     checksum,
		Dependencies: deps,
	}
}

// splitGameVersions separates loader tags from game version tags.
func splitGameVersions(tags []string) ([]domain.Loader, []domain.GameVersion) {
	var loaders []domain.Loader
	var gvs []domain.GameVersion
	for _, tag := range tags {
		if l, err := domain.ParseLoader(strings.ToLower(tag)); err == nil {
			loaders = append(loaders, l)
			continue
		}
		gvs = append(gvs, domain.GameVersion(tag))
	}
	return loaders, gvs
}

func cfRelation(t int) (domain.Relation, bool) {
	switch t {
	case cfRelationRequired:
		return domain.RelationRequired, true
	case cfRelationOptional:
		return domain.RelationOptional, true
	case cfRelationIncompatible:
		return domain.RelationIncompatible, true
	default:
		return "", false
	}
}

// FetchArtifact implements ports.PlatformClient.
func (c *CurseForge) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	return fetchURL(ctx, c.httpClient, c.userAgent, ver)
}
