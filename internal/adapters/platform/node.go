package platform

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
)

// NodeID is the unique identifier for the platform registry Graft node.
const NodeID graft.ID = "adapter.platform_registry"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Registry, error) {
			return NewDefaultRegistry(domain.DefaultCacheRoot())
		},
	})
}

// NewDefaultRegistry builds the production registry: all three platform
// clients, credentials from the environment, version listings cached under
// cacheRoot.
func NewDefaultRegistry(cacheRoot string) (*Registry, error) {
	metaDir := filepath.Join(cacheRoot, "metadata")

	clients := []ports.PlatformClient{
		NewModrinth(),
		NewCurseForge(os.Getenv("CURSEFORGE_API_KEY")),
		NewGitHub(WithGitHubToken(os.Getenv("GITHUB_TOKEN"))),
	}

	wrapped := make([]ports.PlatformClient, 0, len(clients))
	for _, c := range clients {
		cc, err := WithMetadataCache(c, metaDir)
		if err != nil {
			return nil, err
		}
		wrapped = append(wrapped, cc)
	}

	return NewRegistry(wrapped...), nil
}
