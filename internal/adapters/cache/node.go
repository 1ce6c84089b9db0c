package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
)

// NodeID is the unique identifier for the artifact cache Graft node.
const NodeID graft.ID = "adapter.artifact_cache"

func init() {
	graft.Register(graft.Node[ports.ArtifactCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{platform.NodeID},
		Run: func(ctx context.Context) (ports.ArtifactCache, error) {
			registry, err := graft.Dep[*platform.Registry](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(domain.DefaultCacheRoot(), registry)
		},
	})
}
