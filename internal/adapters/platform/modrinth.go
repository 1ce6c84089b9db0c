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
	modrinthAPIBase = "https://api.modrinth.com/v2"

	// maxJSONResponseBytes bounds JSON API responses (10 MB) so a malformed
	// upstream cannot exhaust memory.
	maxJSONResponseBytes = 10 << 20
)

// Modrinth implements ports.PlatformClient against the Modrinth v2 API.
type Modrinth struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ModrinthOption configures a Modrinth client during construction.
type ModrinthOption func(*Modrinth)

// WithModrinthBaseURL overrides the API base URL, primarily for test servers.
func WithModrinthBaseURL(base string) ModrinthOption {
	return func(m *Modrinth) { m.baseURL = strings.TrimRight(base, "/") }
}

// WithModrinthHTTPClient sets a custom HTTP client.
func WithModrinthHTTPClient(c *http.Client) ModrinthOption {
	return func(m *Modrinth) { m.httpClient = c }
}

// NewModrinth creates a Modrinth client.
func NewModrinth(opts ...ModrinthOption) *Modrinth {
	m := &Modrinth{
		httpClient: &http.Client{},
		baseURL:    modrinthAPIBase,
		userAgent:  "hollowmc/hollow",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Platform implements ports.PlatformClient.
func (m *Modrinth) Platform() domain.Platform { return domain.PlatformModrinth }

// modrinthVersion is the JSON wire format of one project version.
type modrinthVersion struct {
	ID            string               `json:"id"`
	VersionNumber string               `json:"version_number"`
	DatePublished time.Time            `json:"date_published"`
	Loaders       []string             `json:"loaders"`
	GameVersions  []string             `json:"game_versions"`
	Files         []modrinthFile       `json:"files"`
	Dependencies  []modrinthDependency `json:"dependencies"`
}

type modrinthFile struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Hashes   map[string]string `json:"hashes"`
}

type modrinthDependency struct {
	ProjectID      string `json:"project_id"`
	DependencyType string `json:"dependency_type"`
}

// ListVersions implements ports.PlatformClient.
func (m *Modrinth) ListVersions(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	url := fmt.Sprintf("%s/project/%s/version", m.baseURL, ref.ProjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build modrinth request")
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
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

	var wire []modrinthVersion
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse modrinth response"), "mod", ref.Key())
	}

	versions := make([]domain.ModVersion, 0, len(wire))
	for _, w := range wire {
		versions = append(versions, m.toDomain(ref, w))
	}
	return versions, nil
}

func (m *Modrinth) toDomain(ref domain.ModReference, w modrinthVersion) domain.ModVersion {
	file := primaryFile(w.Files)

	checksum := ""
	if h, ok := file.Hashes["sha512"]; ok {
		checksum = domain.AlgoSHA512 + ":" + strings.ToLower(h)
	} else if h, ok := file.Hashes["sha1"]; ok {
		checksum = domain.AlgoSHA1 + ":" + strings.ToLower(h)
	}

	loaders := make([]domain.Loader, 0, len(w.Loaders))
	for _, l := range w.Loaders {
		loaders = append(loaders, domain.Loader(l))
	}
	gvs := make([]domain.GameVersion, 0, len(w.GameVersions))
	for _, g := range w.GameVersions {
		gvs = append(gvs, domain.GameVersion(g))
	}

	deps := make([]domain.Dependency, 0, len(w.Dependencies))
	for _, d := range w.Dependencies {
		rel, ok := modrinthRelation(d.DependencyType)
		if !ok || d.ProjectID == "" {
			continue
		}
		deps = append(deps, domain.Dependency{
			Ref:      domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: d.ProjectID},
			Relation: rel,
			// Modrinth declares no version ranges on dependencies; any
			// compatible version satisfies the edge.
		})
	}

	return domain.ModVersion{
		Ref:          ref,
		ID:           w.VersionNumber,
		FileName:     file.Filename,
		ReleasedAt:   w.DatePublished,
		Loaders:      loaders,
		GameVersions: gvs,
		ArtifactURL:  file.URL,
		Checksum:     checksum,
		Dependencies: deps,
	}
}

func primaryFile(files []modrinthFile) modrinthFile {
	for _, f := range files {
		if f.Primary {
			return f
		}
	}
	if len(files) > 0 {
		return files[0]
	}
	return modrinthFile{}
}

func modrinthRelation(t string) (domain.Relation, bool) {
	switch t {
	case "required":
		return domain.RelationRequired, true
	case "optional":
		return domain.RelationOptional, true
	case "incompatible":
		return domain.RelationIncompatible, true
	default:
		// "embedded" dependencies ship inside the artifact.
		return "", false
	}
}

// FetchArtifact implements ports.PlatformClient.
func (m *Modrinth) FetchArtifact(ctx context.Context, ver domain.ModVersion) (io.ReadCloser, string, error) {
	return fetchURL(ctx, m.httpClient, m.userAgent, ver)
}
